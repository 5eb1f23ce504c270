// Package main provides the main entry point for the services marketplace API
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/servicosdigitais/plataforma/app/handlers"
	"github.com/servicosdigitais/plataforma/app/middleware"
	"github.com/servicosdigitais/plataforma/app/router"
	"github.com/servicosdigitais/plataforma/app/services"
	businessflow "github.com/servicosdigitais/plataforma/business_flow"
	"github.com/servicosdigitais/plataforma/config"
	"github.com/servicosdigitais/plataforma/repository"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)
	log.Println("Starting plataforma application...")

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the standard logger to stdout, a rotated file, or both
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output == "stdout" || cfg.FilePath == "" {
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	switch cfg.Output {
	case "file":
		log.SetOutput(fileWriter)
	case "both":
		log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisAddr, cfg.RedisDB)
	return rc, nil
}

// startSessionCleaner starts a background goroutine that periodically expires
// stale sessions. The returned cancel function stops the cleaner.
func startSessionCleaner(parent context.Context, sessionRepo repository.AccountSessionRepository, interval time.Duration) func() {
	cleanerCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-cleanerCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 30*time.Second)
				if err := sessionRepo.CleanupExpiredSessions(ctx); err != nil {
					log.Printf("Session cleanup failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	accountTypeRepo := repository.NewAccountTypeRepository(db)
	sessionRepo := repository.NewAccountSessionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	serviceRepo := repository.NewOfferedServiceRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	stopCleaner := startSessionCleaner(context.Background(), sessionRepo, cfg.Security.SessionCleanupInterval)
	stopFuncs = append(stopFuncs, stopCleaner)

	// Initialize services
	passwordService := services.NewPasswordService(cfg.Security.BcryptCost)

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.RememberedRefreshTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	resolver := businessflow.NewIdentityResolver(accountRepo)
	lockout := businessflow.NewLockoutPolicy(accountRepo, businessflow.LockoutSettings{
		MaxAttempts:     cfg.Lockout.MaxAttempts,
		LockoutDuration: cfg.Lockout.LockoutDuration,
		ResetWindow:     cfg.Lockout.FailureResetWindow,
	}, nil)

	signupFlow := businessflow.NewSignupFlow(
		accountRepo,
		accountTypeRepo,
		auditRepo,
		passwordService,
		db,
		nil,
	)

	loginFlow := businessflow.NewLoginFlow(
		accountRepo,
		sessionRepo,
		auditRepo,
		resolver,
		lockout,
		passwordService,
		tokenService,
		db,
		nil,
	)

	profileFlow := businessflow.NewProfileFlow(
		accountRepo,
		auditRepo,
		passwordService,
		cfg.Uploads.Dir,
		db,
		nil,
	)

	serviceFlow := businessflow.NewServiceFlow(
		accountRepo,
		serviceRepo,
		db,
		nil,
	)

	ticketFlow := businessflow.NewTicketFlow(
		ticketRepo,
		accountRepo,
		db,
		nil,
	)

	adminFlow := businessflow.NewAdminFlow(
		accountRepo,
		sessionRepo,
		serviceRepo,
		auditRepo,
		db,
		nil,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(signupFlow, loginFlow)
	profileHandler := handlers.NewProfileHandler(profileFlow)
	serviceHandler := handlers.NewServiceHandler(serviceFlow)
	ticketHandler := handlers.NewTicketHandler(ticketFlow)
	adminHandler := handlers.NewAdminHandler(adminFlow)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService, accountRepo)
	loginLimiter := middleware.NewLoginRateLimiter(rc, cfg.Security.LoginRateLimit, cfg.Security.RateLimitWindow)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authHandler,
		profileHandler,
		serviceHandler,
		ticketHandler,
		adminHandler,
		authMiddleware,
		loginLimiter,
	)

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
