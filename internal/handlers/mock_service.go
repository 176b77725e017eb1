package handlers

import (
	"context"

	"backend_boilerplate/internal/config"
	"backend_boilerplate/internal/models"
	"backend_boilerplate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ---- Service mocks shared by the handler tests ----

type mockAuth struct {
	loginPair    *models.TokenPair
	loginErr     error
	refreshPair  *models.TokenPair
	refreshErr   error
	authClaims   *service.Claims
	authErr      error
	logoutErr    error
	recoverErr   error
	resetErr     error

	lastLoginUsername string
	lastLoginPassword string
	lastAuthToken     string
	lastAuthScope     string
	lastLogoutToken   string
	lastRecoverEmail  string
	lastResetToken    string
	logoutCalls       int
}

func (m *mockAuth) Login(_ context.Context, username, password, _ string) (*models.TokenPair, error) {
	m.lastLoginUsername = username
	m.lastLoginPassword = password
	return m.loginPair, m.loginErr
}

func (m *mockAuth) Refresh(_ context.Context, _, _ string) (*models.TokenPair, error) {
	return m.refreshPair, m.refreshErr
}

func (m *mockAuth) Authenticate(_ context.Context, token, scope string) (*service.Claims, error) {
	m.lastAuthToken = token
	m.lastAuthScope = scope
	return m.authClaims, m.authErr
}

func (m *mockAuth) Logout(_ context.Context, token string) error {
	m.logoutCalls++
	m.lastLogoutToken = token
	return m.logoutErr
}

func (m *mockAuth) RecoverPassword(_ context.Context, email string) error {
	m.lastRecoverEmail = email
	return m.recoverErr
}

func (m *mockAuth) ResetPassword(_ context.Context, token, _ string) error {
	m.lastResetToken = token
	return m.resetErr
}

type mockUsers struct {
	registerUser *models.User
	registerErr  error
	getUser      *models.User
	getErr       error
	listUsers    []models.User
	listErr      error
	updateUser   *models.User
	updateErr    error
	deleteErr    error

	lastRegisterPassword string
	lastGetID            uuid.UUID
	lastListSkip         int
	lastListLimit        int
	lastUpdate           models.UserUpdate
	lastDeleteID         uuid.UUID
}

func (m *mockUsers) Register(_ context.Context, _ *models.User, password string) (*models.User, error) {
	m.lastRegisterPassword = password
	return m.registerUser, m.registerErr
}

func (m *mockUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.lastGetID = id
	return m.getUser, m.getErr
}

func (m *mockUsers) List(_ context.Context, skip, limit int) ([]models.User, error) {
	m.lastListSkip = skip
	m.lastListLimit = limit
	return m.listUsers, m.listErr
}

func (m *mockUsers) Update(_ context.Context, _ uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	m.lastUpdate = upd
	return m.updateUser, m.updateErr
}

func (m *mockUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.lastDeleteID = id
	return m.deleteErr
}

func (m *mockUsers) EnsureSuperuser(_ context.Context, _ config.SuperuserConfig) error {
	return nil
}

// accessClaims builds valid access-token claims for the given user ID.
func accessClaims(id uuid.UUID) *service.Claims {
	c := &service.Claims{
		Email:             "u@example.com",
		PreferredUsername: "u",
		Scope:             models.ScopeAccessToken,
	}
	c.Subject = "username:" + id.String()
	c.ID = uuid.NewString()
	return c
}

// newTestRouter wires a router without rate limiting or real stores.
func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, 31536000, nil, nil, nil)
	return h.InitRoutes()
}
