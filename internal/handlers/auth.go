package handlers

import (
	"net/http"
	"net/mail"

	"backend_boilerplate/internal/service"

	"github.com/gin-gonic/gin"
)

// loginRequest accepts both the OAuth2 password form shape and plain JSON.
type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// bindOrBadRequest binds the request body into dst and writes a 400 JSON on
// failure. Returns false if the request was already handled (aborted).
func (h *Handler) bindOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.Request.URL.Path, "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary      Log in
// @Description  Exchanges username/password for an access/refresh token pair.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Accept       json
// @Produce      json
// @Param        username  formData  string  true  "Username"
// @Param        password  formData  string  true  "Password"
// @Success      200  {object}  models.TokenPair
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if ok := h.bindOrBadRequest(c, &input); !ok {
		return
	}
	pair, err := h.services.Login(c.Request.Context(), input.Username, input.Password, c.ClientIP())
	if err != nil {
		if h.log != nil {
			h.log.Infow("login_failed", "username", input.Username, "err", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

// @Summary      Refresh tokens
// @Description  Issues a new token pair for a valid refresh token.
// @Tags         auth
// @Produce      json
// @Success      201  {object}  models.TokenPair
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/auth/refresh [post]
// @Security     BearerAuth
func (h *Handler) refresh(c *gin.Context) {
	token := c.GetString(ctxToken)
	pair, err := h.services.Refresh(c.Request.Context(), token, c.ClientIP())
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pair)
}

// @Summary      Validate access token
// @Description  Returns the authenticated user's token claims.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/auth/validate-token [post]
// @Security     BearerAuth
func (h *Handler) validateToken(c *gin.Context) {
	claims := c.MustGet(ctxClaims).(*service.Claims)
	userID := c.MustGet(ctxUserID)
	c.JSON(http.StatusOK, gin.H{
		"id":       userID,
		"username": claims.PreferredUsername,
		"email":    claims.Email,
	})
}

// @Summary      Log out
// @Description  Blacklists the presented access token until it expires.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/auth/logout [post]
// @Security     BearerAuth
func (h *Handler) logout(c *gin.Context) {
	token := c.GetString(ctxToken)
	if err := h.services.Logout(c.Request.Context(), token); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "logged out successfully"})
}

const recoverMsg = "If the email is registered, a reset link will be sent."

// @Summary      Recover password
// @Description  Sends a password-reset mail. The response never reveals whether the address exists.
// @Tags         auth
// @Produce      json
// @Param        email  path  string  true  "Account email"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/auth/recover-password/{email} [post]
func (h *Handler) recoverPassword(c *gin.Context) {
	email := c.Param("email")
	if _, err := mail.ParseAddress(email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
		return
	}
	if err := h.services.RecoverPassword(c.Request.Context(), email); err != nil {
		if h.log != nil {
			h.log.Errorw("recover_password_failed", "err", err)
		}
		// still answer neutrally: internal failures must not leak account state
	}
	c.JSON(http.StatusOK, gin.H{"msg": recoverMsg})
}

// @Summary      Reset password
// @Description  Sets a new password using a reset token from the recovery mail.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  resetPasswordRequest  true  "Reset token and new password"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/auth/reset-password [post]
func (h *Handler) resetPassword(c *gin.Context) {
	var input resetPasswordRequest
	if ok := h.bindOrBadRequest(c, &input); !ok {
		return
	}
	if err := h.services.ResetPassword(c.Request.Context(), input.Token, input.Password); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "password updated successfully"})
}
