package service

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strings"
	"time"

	"backend_boilerplate/internal/config"
	"backend_boilerplate/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const subjectPrefix = "username:"

// Claims is the JWT payload for access, refresh and password-reset tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email             string `json:"email,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Scope             string `json:"scope"`
}

// UserID extracts the user ID from the "username:<uuid>" subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(c.Subject, subjectPrefix)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: malformed subject %q", ErrInvalidToken, c.Subject)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a UUID", ErrInvalidToken)
	}
	return id, nil
}

// TokenManager signs and verifies RS256 JWTs with the key pair configured
// at auth.private_key_path / auth.public_key_path.
type TokenManager struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewTokenManager loads both PEM key files and fails fast when either is
// missing or malformed.
func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	privatePEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key %q: %w", cfg.PrivateKeyPath, err)
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key %q: %w", cfg.PrivateKeyPath, err)
	}

	publicPEM, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key %q: %w", cfg.PublicKeyPath, err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key %q: %w", cfg.PublicKeyPath, err)
	}

	return &TokenManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
		resetTTL:   cfg.ResetTokenTTL(),
	}, nil
}

func (m *TokenManager) ttlFor(scope string) time.Duration {
	switch scope {
	case models.ScopeRefreshToken:
		return m.refreshTTL
	case models.ScopePasswordReset:
		return m.resetTTL
	default:
		return m.accessTTL
	}
}

func (m *TokenManager) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(m.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", claims.Scope, err)
	}
	return signed, nil
}

// Issue creates a single token with the given scope for a user.
// The returned claims expose the generated token ID (jti).
func (m *TokenManager) Issue(u *models.User, scope string) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subjectPrefix + u.ID.String(),
			Audience:  jwt.ClaimStrings{m.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttlFor(scope))),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Email:             u.Email,
		PreferredUsername: u.Username,
		Scope:             scope,
	}
	signed, err := m.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// IssuePair creates an access/refresh token pair; the refresh token ID is
// returned so the caller can persist it.
func (m *TokenManager) IssuePair(u *models.User) (*models.TokenPair, string, error) {
	access, _, err := m.Issue(u, models.ScopeAccessToken)
	if err != nil {
		return nil, "", err
	}
	refresh, refreshClaims, err := m.Issue(u, models.ScopeRefreshToken)
	if err != nil {
		return nil, "", err
	}
	pair := &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}
	return pair, refreshClaims.ID, nil
}

// IssueResetToken creates a password-reset token bound to an email address.
func (m *TokenManager) IssueResetToken(email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   email,
			Audience:  jwt.ClaimStrings{m.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.resetTTL)),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Email: email,
		Scope: models.ScopePasswordReset,
	}
	return m.sign(claims)
}

// Parse verifies the signature and standard claims and requires the token
// to carry the wanted scope.
func (m *TokenManager) Parse(tokenString, wantScope string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Scope != wantScope {
		return nil, fmt.Errorf("%w: scope %q, want %q", ErrInvalidToken, claims.Scope, wantScope)
	}
	return claims, nil
}
