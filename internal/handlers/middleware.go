package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"backend_boilerplate/internal/cache"
	"backend_boilerplate/internal/models"
	"backend_boilerplate/internal/service"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by the auth middleware.
const (
	ctxUserID = "userId"
	ctxClaims = "claims"
	ctxToken  = "bearerToken"
)

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return "", false
	}
	return parts[1], true
}

func (h *Handler) tokenMiddleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}
		claims, err := h.services.Authenticate(c.Request.Context(), token, scope)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxClaims, claims)
		c.Set(ctxToken, token)
		c.Next()
	}
}

func (h *Handler) accessTokenMiddleware(c *gin.Context) {
	h.tokenMiddleware(models.ScopeAccessToken)(c)
}

func (h *Handler) refreshTokenMiddleware(c *gin.Context) {
	h.tokenMiddleware(models.ScopeRefreshToken)(c)
}

// securityHeaders mirrors the hardening headers the service always sends.
func (h *Handler) securityHeaders(c *gin.Context) {
	hdr := c.Writer.Header()
	hdr.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", h.hstsMaxAge))
	hdr.Set("Cross-Origin-Embedder-Policy", "require-corp")
	hdr.Set("Cross-Origin-Opener-Policy", "same-origin")
	hdr.Set("Cross-Origin-Resource-Policy", "same-origin")
	hdr.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	hdr.Set("Permissions-Policy", "geolocation=self, microphone=self, camera=self, fullscreen=self")
	hdr.Set("Cache-Control", "no-store")
	hdr.Set("X-Frame-Options", "DENY")
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set("X-XSS-Protection", "1; mode=block")
	hdr.Set("X-DNS-Prefetch-Control", "off")
	hdr.Set("X-Download-Options", "noopen")
	hdr.Set("X-Permitted-Cross-Domain-Policies", "none")
	c.Next()
}

// rateLimit enforces the Redis sliding window and the IP blacklist.
// A nil limiter disables throttling (tests, local runs without Redis).
func (h *Handler) rateLimit(c *gin.Context) {
	if h.limiter == nil {
		c.Next()
		return
	}
	ctx := c.Request.Context()
	ip := c.ClientIP()

	blocked, err := h.limiter.IsIPBlacklisted(ctx, ip)
	if err != nil {
		// an unreachable limiter must not take the API down
		if h.log != nil {
			h.log.Errorw("rate_limit_check_failed", "ip", ip, "err", err)
		}
		c.Next()
		return
	}
	if blocked {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "IP address blocked"})
		return
	}

	verdict, err := h.limiter.Check(ctx, cache.Visit{
		IP:        ip,
		UserAgent: c.Request.UserAgent(),
		Path:      c.Request.URL.Path,
	})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("rate_limit_check_failed", "ip", ip, "err", err)
		}
		c.Next()
		return
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(verdict.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(verdict.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(verdict.Reset.Unix(), 10))
	if !verdict.Allowed {
		if err := h.limiter.BlacklistIP(ctx, ip); err != nil && h.log != nil {
			h.log.Errorw("ip_blacklist_failed", "ip", ip, "err", err)
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}
	c.Next()
}

// requestLogger writes one structured line per request.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}
	h.log.Infow("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency_ms", time.Since(start).Milliseconds(),
		"ip", c.ClientIP(),
	)
}

// serviceError maps domain errors onto HTTP status codes.
func (h *Handler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrUserNotFound.Error()})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": service.ErrUserAlreadyExists.Error()})
	case errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrRevokedToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrInactiveUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInactiveUser.Error()})
	default:
		if h.log != nil {
			h.log.Errorw("internal_error", "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
