package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/citypulse/internal/auth"
	"github.com/BradenHooton/citypulse/internal/config"
	"github.com/BradenHooton/citypulse/internal/database"
	"github.com/BradenHooton/citypulse/internal/handlers"
	"github.com/BradenHooton/citypulse/internal/lifecycle"
	"github.com/BradenHooton/citypulse/internal/middleware"
	"github.com/BradenHooton/citypulse/internal/repositories"
	"github.com/BradenHooton/citypulse/internal/routes"
	"github.com/BradenHooton/citypulse/internal/services"
	pkglogger "github.com/BradenHooton/citypulse/pkg/logger"
)

// store bundles the repositories and health check of the selected backend
type store struct {
	users   services.UserRepository
	reports services.ReportRepository
	health  handlers.HealthChecker
	close   func()
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("store", cfg.Server.StoreDriver))

	// Initialize storage
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := openStore(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize store", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.close()

	// Initialize domain components
	engine := lifecycle.NewEngine(lifecycle.Policy{
		Window:          cfg.SLA.Window,
		WarningInterval: cfg.SLA.WarningInterval,
		DueSoon:         cfg.SLA.DueSoon,
		Transitions:     lifecycle.PermissiveTransitions(),
	}, nil)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger, cfg.Server.Env)

	// Initialize services
	authService := services.NewAuthService(st.users, tokenManager, logger, auditLogger)
	reportService := services.NewReportService(st.reports, engine, logger, auditLogger)

	// Bootstrap an officer account if configured
	if cfg.Auth.BootstrapOfficerUsername != "" && cfg.Auth.BootstrapOfficerPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := authService.EnsureOfficer(ctx, cfg.Auth.BootstrapOfficerUsername, cfg.Auth.BootstrapOfficerPassword); err != nil {
			logger.Error("failed to ensure bootstrap officer", slog.Any("error", err))
		}
		cancel()
	}

	// Setup router
	router := routes.NewRouter(logger, routes.Options{
		Env:            cfg.Server.Env,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthRateLimit:  middleware.RateLimitConfig{RequestsPerMinute: cfg.Auth.RateLimitPerMinute},
	}, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Reports: handlers.NewReportHandler(reportService),
		Health:  handlers.NewHealthHandler(st.health, cfg.Server.StoreDriver, logger),
	}, tokenManager)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// openStore connects to the configured backend and builds its repositories
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	if cfg.Server.StoreDriver == config.StoreDriverMongo {
		mdb, err := database.NewMongoConnection(ctx, &cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		return &store{
			users:   repositories.NewMongoUserRepository(mdb),
			reports: repositories.NewMongoReportRepository(mdb),
			health:  mdb,
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := mdb.Close(ctx); err != nil {
					logger.Error("failed to disconnect from mongo", slog.Any("error", err))
				}
			},
		}, nil
	}

	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &store{
		users:   repositories.NewUserRepository(db),
		reports: repositories.NewReportRepository(db),
		health:  db,
		close:   db.Close,
	}, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
