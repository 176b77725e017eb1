package handlers

import (
	"context"
	"net/http"

	"backend_boilerplate/internal/cache"
	"backend_boilerplate/internal/logger"
	"backend_boilerplate/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// PingFunc probes a backing store for the health endpoint.
type PingFunc func(ctx context.Context) error

// Handler wires the HTTP layer to services, the rate limiter and logging.
type Handler struct {
	services   *service.Service
	limiter    *cache.RateLimiter
	log        *logger.Logger
	hstsMaxAge int

	dbPing    PingFunc
	redisPing PingFunc
}

// NewHandler constructs the HTTP handler with its dependencies. limiter and
// the ping funcs may be nil (disabled), which the tests rely on.
func NewHandler(services *service.Service, limiter *cache.RateLimiter, hstsMaxAge int, dbPing, redisPing PingFunc, log *logger.Logger) *Handler {
	return &Handler{
		services:   services,
		limiter:    limiter,
		log:        log,
		hstsMaxAge: hstsMaxAge,
		dbPing:     dbPing,
		redisPing:  redisPing,
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(h.requestLogger, h.securityHeaders, h.rateLimit)

	// interactive API docs
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/", h.redirectToDocs)

	router.GET("/health", h.health)

	v1 := router.Group("/api/v1")
	h.registerAuthRoutes(v1)
	h.registerUserRoutes(v1)

	return router
}

func (h *Handler) registerAuthRoutes(v1 *gin.RouterGroup) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.login)
		auth.POST("/refresh", h.refreshTokenMiddleware, h.refresh)
		auth.POST("/validate-token", h.accessTokenMiddleware, h.validateToken)
		auth.POST("/logout", h.accessTokenMiddleware, h.logout)
		auth.POST("/recover-password/:email", h.recoverPassword)
		auth.POST("/reset-password", h.resetPassword)
	}
}

func (h *Handler) registerUserRoutes(v1 *gin.RouterGroup) {
	user := v1.Group("/user", h.accessTokenMiddleware)
	{
		user.GET("", h.listUsers)
		user.POST("", h.createUser)
		user.GET("/me", h.currentUser)
		user.GET("/:id", h.getUser)
		user.PUT("/:id", h.updateUser)
		user.DELETE("/:id", h.deleteUser)
	}
}

// @Summary      Redirect to docs
// @Tags         docs
// @Success      307
// @Router       / [get]
func (h *Handler) redirectToDocs(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, "/swagger/index.html")
}

// @Summary      Health check
// @Description  Reports healthy only when PostgreSQL and Redis both answer.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	ctx := c.Request.Context()
	for _, ping := range []PingFunc{h.dbPing, h.redisPing} {
		if ping == nil {
			continue
		}
		if err := ping(ctx); err != nil {
			if h.log != nil {
				h.log.Errorw("health_check_failed", "err", err)
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
