package models

// Token scopes embedded in the JWT "scope" claim.
const (
	ScopeAccessToken   = "access_token"
	ScopeRefreshToken  = "refresh_token"
	ScopePasswordReset = "password_reset"
)

// TokenPair is the login/refresh response body, OAuth2 password-flow shape.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // always "bearer"
}
