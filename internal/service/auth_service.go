package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend_boilerplate/internal/cache"
	"backend_boilerplate/internal/models"
	"backend_boilerplate/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles user authentication and token lifecycle.
type AuthService struct {
	users  repository.Users
	tokens *cache.TokenStore
	tm     *TokenManager
	mail   Mailer
}

func NewAuthService(users repository.Users, tokens *cache.TokenStore, tm *TokenManager, mail Mailer) *AuthService {
	return &AuthService{users: users, tokens: tokens, tm: tm, mail: mail}
}

var _ Authorization = (*AuthService)(nil)

// Login validates credentials and returns a fresh token pair. The refresh
// token is recorded in Redis keyed by its token ID.
func (s *AuthService) Login(ctx context.Context, username, password, clientIP string) (*models.TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidPassword
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return s.issuePair(ctx, u, clientIP)
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, clientIP string) (*models.TokenPair, error) {
	claims, err := s.Authenticate(ctx, refreshToken, models.ScopeRefreshToken)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return s.issuePair(ctx, u, clientIP)
}

func (s *AuthService) issuePair(ctx context.Context, u *models.User, clientIP string) (*models.TokenPair, error) {
	pair, refreshID, err := s.tm.IssuePair(u)
	if err != nil {
		return nil, err
	}
	userInfo := fmt.Sprintf("%s:%s", u.ID, clientIP)
	if err := s.tokens.Save(ctx, refreshID, userInfo); err != nil {
		return nil, err
	}
	return pair, nil
}

// Authenticate verifies a bearer token of the wanted scope and rejects
// revoked tokens.
func (s *AuthService) Authenticate(ctx context.Context, token, scope string) (*Claims, error) {
	claims, err := s.tm.Parse(token, scope)
	if err != nil {
		return nil, err
	}
	revoked, err := s.tokens.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Logout blacklists the presented access token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tm.Parse(accessToken, models.ScopeAccessToken)
	if err != nil {
		return err
	}
	return s.tokens.Blacklist(ctx, claims.ID)
}

// RecoverPassword mails a reset token when the address is registered.
// The outcome is identical either way so addresses cannot be probed.
func (s *AuthService) RecoverPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil || !u.IsActive {
		return nil
	}
	token, err := s.tm.IssueResetToken(u.Email)
	if err != nil {
		return err
	}
	s.mail.SendResetPasswordEmail(u.Email, u.Username, token)
	return nil
}

// ResetPassword verifies a reset token and stores the new password hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tm.Parse(token, models.ScopePasswordReset)
	if err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.users.Update(ctx, u.ID, models.UserUpdate{Password: &hash}); err != nil {
		return err
	}
	s.mail.SendPasswordChangedEmail(u.Email, u.Username)
	return nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
