package service

import (
	"context"
	"errors"

	"backend_boilerplate/internal/cache"
	"backend_boilerplate/internal/config"
	"backend_boilerplate/internal/models"
	"backend_boilerplate/internal/repository"

	"github.com/google/uuid"
)

// Domain errors surfaced to the HTTP layer.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("username or email already registered")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrInactiveUser      = errors.New("inactive user")
	ErrInvalidToken      = errors.New("invalid token")
	ErrRevokedToken      = errors.New("token has been revoked")
)

// Authorization handles login, token lifecycle and password recovery.
type Authorization interface {
	Login(ctx context.Context, username, password, clientIP string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken, clientIP string) (*models.TokenPair, error)
	Authenticate(ctx context.Context, token, scope string) (*Claims, error)
	Logout(ctx context.Context, accessToken string) error
	RecoverPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Users exposes user CRUD with the Redis read-through cache behind it.
type Users interface {
	Register(ctx context.Context, u *models.User, password string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, skip, limit int) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	EnsureSuperuser(ctx context.Context, su config.SuperuserConfig) error
}

// Mailer sends user-facing notification mail. Implementations must never
// block request handling; sends happen in the background.
type Mailer interface {
	SendNewAccountEmail(email, username string)
	SendWelcomeEmail(email, username string)
	SendResetPasswordEmail(email, username, token string)
	SendPasswordChangedEmail(email, username string)
}

// Service aggregates all sub-services behind one wiring point.
type Service struct {
	Authorization
	Users
}

func NewService(repos *repository.Repository, stores *cache.Cache, tm *TokenManager, mail Mailer) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Users, stores.Tokens, tm, mail),
		Users:         NewUserService(repos.Users, stores.Users, mail),
	}
}
