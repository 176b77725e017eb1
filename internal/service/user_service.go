package service

import (
	"context"
	"errors"
	"fmt"

	"backend_boilerplate/internal/cache"
	"backend_boilerplate/internal/config"
	"backend_boilerplate/internal/models"
	"backend_boilerplate/internal/repository"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 100
	maxListLimit     = 100
)

// UserService implements user CRUD on top of the repository with the Redis
// read-through cache in front of single-user lookups.
type UserService struct {
	users repository.Users
	cache *cache.UserCache
	mail  Mailer
}

func NewUserService(users repository.Users, userCache *cache.UserCache, mail Mailer) *UserService {
	return &UserService{users: users, cache: userCache, mail: mail}
}

var _ Users = (*UserService)(nil)

// Register creates a user from the given profile and raw password and kicks
// off the notification mails in the background.
func (s *UserService) Register(ctx context.Context, u *models.User, password string) (*models.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPassword, err)
	}
	u.PasswordHash = hash
	created, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	s.mail.SendNewAccountEmail(created.Email, created.Username)
	s.mail.SendWelcomeEmail(created.Email, created.Username)
	return created, nil
}

// GetByID returns a user, serving repeat lookups from the cache.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if cached, err := s.cache.Get(ctx, id); err == nil && cached != nil {
		return cached, nil
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	// a failed cache write must not fail the lookup
	_ = s.cache.Set(ctx, u)
	return u, nil
}

// List returns a page of users. skip < 0 is clamped to 0; limit is clamped
// into [1, 100] with 100 as the default.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.users.List(ctx, skip, limit)
}

// Update applies a partial update, re-hashing the password when present,
// and drops the cached entry.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	if upd.Password != nil {
		hash, err := hashPassword(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPassword, err)
		}
		upd.Password = &hash
	}
	u, err := s.users.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	_ = s.cache.Invalidate(ctx, id)
	return u, nil
}

// Delete removes a user and drops the cached entry.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	_ = s.cache.Invalidate(ctx, id)
	return nil
}

// EnsureSuperuser seeds the administrative account on first start.
// A blank config section disables seeding.
func (s *UserService) EnsureSuperuser(ctx context.Context, su config.SuperuserConfig) error {
	if su.Username == "" {
		return nil
	}
	existing, err := s.users.GetByUsername(ctx, su.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := hashPassword(su.Password)
	if err != nil {
		return fmt.Errorf("superuser password: %w", err)
	}
	_, err = s.users.Create(ctx, &models.User{
		Username:     su.Username,
		Email:        su.Email,
		FirstName:    su.FirstName,
		LastName:     su.LastName,
		PasswordHash: hash,
		IsSuperuser:  true,
	})
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	return nil
}
