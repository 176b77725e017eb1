package service

import (
	"context"
	"fmt"
	"time"

	"backend_boilerplate/internal/cache"
	"backend_boilerplate/internal/models"
	"backend_boilerplate/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// fakeUserRepo is an in-memory repository.Users for the service tests.
type fakeUserRepo struct {
	byID map[uuid.UUID]*models.User

	createErr error
	getErr    error
	updateErr error
	deleteErr error
	listErr   error

	created    []*models.User
	lastUpdate models.UserUpdate

	lastListOffset int
	lastListLimit  int
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{byID: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

var _ repository.Users = (*fakeUserRepo)(nil)

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	stored := *u
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	r.byID[stored.ID] = &stored
	r.created = append(r.created, &stored)
	return &stored, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.byID[id], nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]models.User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.lastListOffset = offset
	r.lastListLimit = limit
	var users []models.User
	for _, u := range r.byID {
		users = append(users, *u)
	}
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *fakeUserRepo) Update(_ context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	r.lastUpdate = upd
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	if upd.Password != nil {
		u.PasswordHash = *upd.Password
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	return u, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

// fakeMailer records sent mail instead of touching SMTP.
type fakeMailer struct {
	newAccount      []string
	welcome         []string
	resetTokens     map[string]string // email -> token
	passwordChanged []string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{resetTokens: make(map[string]string)}
}

var _ Mailer = (*fakeMailer)(nil)

func (m *fakeMailer) SendNewAccountEmail(email, _ string) { m.newAccount = append(m.newAccount, email) }
func (m *fakeMailer) SendWelcomeEmail(email, _ string)    { m.welcome = append(m.welcome, email) }
func (m *fakeMailer) SendResetPasswordEmail(email, _, token string) {
	m.resetTokens[email] = token
}
func (m *fakeMailer) SendPasswordChangedEmail(email, _ string) {
	m.passwordChanged = append(m.passwordChanged, email)
}

// memRedis is a map-backed cache.Commands; the sorted-set methods are
// unused by these tests.
type memRedis struct {
	strings map[string]string
}

func newMemRedis() *memRedis {
	return &memRedis{strings: make(map[string]string)}
}

var _ cache.Commands = (*memRedis)(nil)

func (m *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	value, ok := m.strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *memRedis) SetEX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case string:
		m.strings[key] = v
	case []byte:
		m.strings[key] = string(v)
	default:
		m.strings[key] = fmt.Sprint(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := m.strings[key]; ok {
			delete(m.strings, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (m *memRedis) ZRemRangeByScore(_ context.Context, _, _, _ string) *redis.IntCmd {
	return redis.NewIntResult(0, nil)
}

func (m *memRedis) ZAdd(_ context.Context, _ string, _ ...*redis.Z) *redis.IntCmd {
	return redis.NewIntResult(0, nil)
}

func (m *memRedis) ZCard(_ context.Context, _ string) *redis.IntCmd {
	return redis.NewIntResult(0, nil)
}

func (m *memRedis) Expire(_ context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}
