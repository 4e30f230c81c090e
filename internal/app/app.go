package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-finance-tracker/internal/config"
	"go-finance-tracker/internal/database"
	"go-finance-tracker/internal/handler"
	"go-finance-tracker/internal/kvstore"
	"go-finance-tracker/internal/middleware"
	"go-finance-tracker/internal/ratelimit"
	"go-finance-tracker/internal/repository"
	"go-finance-tracker/internal/router"
	"go-finance-tracker/internal/service"
	"go-finance-tracker/internal/session"
	"go-finance-tracker/internal/token"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.UsingDevSecret() {
		slog.Warn("JWT_SECRET not set, using development secret; do not run this configuration in production")
	}

	// Redis is optional. Without it — or once it fails — sessions and
	// rate-limit windows live in process memory.
	var remote kvstore.Store
	if cfg.RedisAddr != "" {
		redisStore, redisErr := kvstore.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		if redisErr != nil {
			slog.Warn("redis unreachable, starting on the in-memory store", "addr", cfg.RedisAddr, "error", redisErr)
		} else {
			remote = redisStore
			slog.Info("redis connected", "addr", cfg.RedisAddr)
		}
	}
	store := kvstore.NewFailover(remote, kvstore.NewMemory(), cfg.StoreTimeout)

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	slog.Info("database ready")

	codec := token.NewCodec(cfg.JWTSecret)
	sessions := session.NewManager(store, cfg.SessionTTL, cfg.SessionSliding)

	authService := service.NewAuthService(userRepo, codec, sessions, cfg.JWTAccessTTL)
	financeService := service.NewFinanceService(categoryRepo, transactionRepo)

	metrics := middleware.NewMetrics()
	csrf := middleware.NewCSRFGuard(cfg.Production())
	auth := middleware.NewAuthenticator(codec, sessions)
	rateLimiter := middleware.NewRateLimiter(ratelimit.NewLimiter(store), ratelimit.Policy{
		MaxRequests: cfg.RateLimitMax,
		Window:      cfg.RateLimitWindow,
	})
	chain := middleware.NewChain(rateLimiter, csrf, auth, metrics)

	appRouter := router.New(cfg, chain, metrics, router.Handlers{
		Auth:        handler.NewAuthHandler(authService, csrf, cfg.JWTAccessTTL, cfg.Production()),
		Category:    handler.NewCategoryHandler(financeService),
		Transaction: handler.NewTransactionHandler(financeService),
		Report:      handler.NewReportHandler(financeService),
		User:        handler.NewUserHandler(authService),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
