package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/hrcore/accounts/config"
	"github.com/hrcore/accounts/internal/handler"
	"github.com/hrcore/accounts/internal/middleware"
	"github.com/hrcore/accounts/internal/repository"
	"github.com/hrcore/accounts/internal/router"
	"github.com/hrcore/accounts/internal/service"
	"github.com/hrcore/accounts/pkg/database"
	"github.com/hrcore/accounts/pkg/health"
	"github.com/hrcore/accounts/pkg/logger"
	"github.com/hrcore/accounts/pkg/mail"
	"github.com/hrcore/accounts/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)

	db, err := database.NewPostgresDB(database.Config{
		Host:            config.Database.Host,
		Port:            config.Database.Port,
		User:            config.Database.User,
		Password:        config.Database.Password,
		Database:        config.Database.Name,
		SSLMode:         config.Database.SSLMode,
		MaxIdleConns:    config.Database.MaxIdleConns,
		MaxOpenConns:    config.Database.MaxOpenConns,
		ConnMaxLifetime: int(config.Database.ConnMaxLifetime.Minutes()),
		ConnMaxIdleTime: int(config.Database.ConnMaxIdleTime.Minutes()),
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := database.OptimizedIndexes(db); err != nil {
		logger.GetLogger().Warn("Failed to create optimized indexes", zap.Error(err))
	}

	// Seed initial data
	if err := database.Seed(db); err != nil {
		logger.GetLogger().Error("Failed to seed database", zap.Error(err))
		// Don't fail - seed data may already exist
	} else {
		logger.GetLogger().Info("Database seeded successfully")
	}

	redisClient, err := redis.NewClient(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	store := repository.NewGormStore(db)

	// Services
	tokenService := service.NewTokenService(config.Token)
	attemptTracker := service.NewAttemptTracker(redisClient, config.Lockout)
	cacheService := service.NewCacheService(redisClient)

	var mailer mail.Mailer = mail.NewSMTPMailer(config.SMTP)
	if config.SMTP.Host == "" {
		logger.GetLogger().Warn("SMTP host not configured, mail delivery disabled")
		mailer = mail.NopMailer{}
	}

	accountService := service.NewAccountService(store, tokenService, attemptTracker, cacheService, mailer, config)

	// Handlers
	authHandler := handler.NewAuthHandler(accountService)
	userHandler := handler.NewUserHandler(accountService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Middleware
	validationMiddleware := middleware.NewValidationMiddleware()
	authMiddleware := middleware.NewAuthMiddleware(tokenService, store.Users())

	engine := router.NewRouter(
		authHandler,
		userHandler,
		healthHandler,

		validationMiddleware,
		authMiddleware,
		config,
	).SetupRoutes()

	// Dependency monitor
	monitor := health.NewMonitor(30*time.Second, logger.GetLogger())
	monitor.Register("postgres", &health.DatabaseChecker{Name: "postgres", DB: db})
	monitor.Register("redis", &health.PingChecker{Name: "redis", Pinger: redisClient})
	if config.SMTP.Host != "" {
		monitor.Register("smtp", &health.TCPChecker{
			Name:    "smtp",
			Address: fmt.Sprintf("%s:%d", config.SMTP.Host, config.SMTP.Port),
		})
	}
	monitor.Start()
	defer monitor.Stop()

	// Expired-session sweeper
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepSessions(sweepCtx, store)

	server := &http.Server{
		Addr:         ":" + config.App.Port,
		Handler:      engine,
		ReadTimeout:  config.App.Timeout,
		WriteTimeout: config.App.Timeout,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().Error("Server shutdown failed", zap.Error(err))
	}
}

// sweepSessions removes expired refresh-token records once an hour.
func sweepSessions(ctx context.Context, store repository.Store) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := store.Sessions().DeleteExpired(ctx); err != nil {
				logger.GetLogger().Warn("Session sweep failed", zap.Error(err))
			}
		}
	}
}
