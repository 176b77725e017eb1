package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend_boilerplate/internal/cache"
	"backend_boilerplate/internal/config"
	"backend_boilerplate/internal/handlers"
	"backend_boilerplate/internal/logger"
	"backend_boilerplate/internal/mailer"
	"backend_boilerplate/internal/repository"
	"backend_boilerplate/internal/server"
	"backend_boilerplate/internal/service"

	"github.com/go-redis/redis/v8"
)

const (
	shutdownTimeout = 10 * time.Second
	startupTimeout  = 10 * time.Second
)

// @title        Backend Boilerplate API
// @version      1.0
// @description  Starter web backend: users CRUD, JWT auth (RS256), PostgreSQL, Redis.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Server.LogLevel)

	// open DB
	conn, err := repository.InitDB(cfg.DB.DSN(), cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns)
	if err != nil {
		log.Fatalw("failed to init postgres", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close postgres", "err", cerr)
		}
	}()

	// connect Redis
	startCtx, startCancel := context.WithTimeout(context.Background(), startupTimeout)
	rdb, err := cache.Connect(startCtx, cfg.Redis)
	startCancel()
	if err != nil {
		log.Fatalw("failed to connect redis", "err", err)
	}
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Errorw("failed to close redis", "err", cerr)
		}
	}()

	// load signing keys
	tm, err := service.NewTokenManager(cfg.Auth)
	if err != nil {
		log.Fatalw("failed to load signing keys", "err", err)
	}

	// wire dependencies
	repos := repository.NewRepository(conn)
	stores := cache.NewCache(rdb, cfg.Auth)
	mail := mailer.New(cfg.SMTP, cfg.Server.BaseURL, log.Named("mailer"))
	services := service.NewService(repos, stores, tm, mail)

	if err := seedSuperuser(services, cfg); err != nil {
		log.Fatalw("failed to seed superuser", "err", err)
	}

	apiHandler := handlers.NewHandler(
		services,
		stores.RateLimiter,
		cfg.Server.HSTSMaxAge,
		dbPing(conn),
		redisPing(rdb),
		log,
	)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, log)
}

func seedSuperuser(services *service.Service, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	return services.Users.EnsureSuperuser(ctx, cfg.Superuser)
}

func dbPing(conn *sql.DB) handlers.PingFunc {
	return conn.PingContext
}

func redisPing(rdb *redis.Client) handlers.PingFunc {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, cfg *config.Config, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		port := cfg.Server.Port
		if port == "" {
			port = "8080"
		}
		log.Infow("starting server", "port", port)
		if err := srv.Run(port, handler.InitRoutes(), cfg.Server.CORSOrigins); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
