// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/app/handlers"
	"github.com/servicosdigitais/plataforma/app/middleware"
	"github.com/servicosdigitais/plataforma/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	authHandler    handlers.AuthHandlerInterface
	profileHandler handlers.ProfileHandlerInterface
	serviceHandler handlers.ServiceHandlerInterface
	ticketHandler  handlers.TicketHandlerInterface
	adminHandler   handlers.AdminHandlerInterface
	authMiddleware *middleware.AuthMiddleware
	loginLimiter   *middleware.LoginRateLimiter
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	authHandler handlers.AuthHandlerInterface,
	profileHandler handlers.ProfileHandlerInterface,
	serviceHandler handlers.ServiceHandlerInterface,
	ticketHandler handlers.TicketHandlerInterface,
	adminHandler handlers.AdminHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
	loginLimiter *middleware.LoginRateLimiter,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Plataforma de Servicos API",
		ServerHeader: "Plataforma",
		ErrorHandler: errorHandler,
		BodyLimit:    8 * 1024 * 1024, // 8MB, photo uploads included
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:            app,
		authHandler:    authHandler,
		profileHandler: profileHandler,
		serviceHandler: serviceHandler,
		ticketHandler:  ticketHandler,
		adminHandler:   adminHandler,
		authMiddleware: authMiddleware,
		loginLimiter:   loginLimiter,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Prometheus scrape endpoint, outside the versioned API group
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// Apply general rate limiting to all API routes (aligned with nginx)
	api.Use(limiter.New(limiter.Config{
		Max:        2000,            // Maximum 2000 requests (matches nginx api zone)
		Expiration: 1 * time.Minute, // Per minute
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: dto.ErrCodeTooManyRequests,
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks
			return c.Path() == "/api/v1/health"
		},
	}))

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")

	// Apply stricter rate limiting to auth endpoints (aligned with nginx)
	auth.Use(limiter.New(limiter.Config{
		Max:        20,              // Maximum 20 requests (matches nginx auth zone)
		Expiration: 1 * time.Minute, // Per minute
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: dto.ErrCodeTooManyRequests,
				},
			})
		},
	}))

	// Auth endpoints
	auth.Post("/signup", r.authHandler.Signup)
	auth.Post("/login", r.authHandler.Login, r.loginLimiter.Limit())
	auth.Post("/refresh", r.authHandler.Refresh)
	auth.Post("/logout", r.authHandler.Logout, r.authMiddleware.Authenticate())

	// Profile endpoints, all behind authentication
	profile := api.Group("/profile", r.authMiddleware.Authenticate())
	profile.Get("/", r.profileHandler.GetProfile)
	profile.Put("/", r.profileHandler.UpdateProfile)
	profile.Put("/password", r.profileHandler.ChangePassword)
	profile.Put("/privacy", r.profileHandler.SetHideSensitiveData)
	profile.Post("/photo", r.profileHandler.UploadPhoto)

	// Public provider directory
	providers := api.Group("/providers")
	providers.Get("/", r.serviceHandler.ListProviders)
	providers.Get("/:uuid", r.serviceHandler.GetProvider)

	// Service management for authenticated providers
	services := api.Group("/services", r.authMiddleware.Authenticate())
	services.Get("/", r.serviceHandler.ListOwnServices)
	services.Post("/", r.serviceHandler.CreateService)
	services.Put("/:id", r.serviceHandler.UpdateService)
	services.Delete("/:id", r.serviceHandler.DeleteService)

	// Support tickets
	tickets := api.Group("/tickets", r.authMiddleware.Authenticate())
	tickets.Post("/", r.ticketHandler.CreateTicket)
	tickets.Get("/", r.ticketHandler.ListOwnTickets)
	tickets.Post("/:uuid/reply", r.ticketHandler.ReplyTicket)
	tickets.Post("/:uuid/close", r.ticketHandler.CloseTicket)
	tickets.Get("/conversations/:correlation_id", r.ticketHandler.GetConversation)

	// Back-office endpoints, admin only
	admin := api.Group("/admin", r.authMiddleware.AdminAuthenticate())
	admin.Get("/accounts", r.adminHandler.ListAccounts)
	admin.Get("/accounts/export", r.adminHandler.ExportAccounts)
	admin.Put("/accounts/:id/status", r.adminHandler.SetActiveStatus)
	admin.Put("/accounts/:id/admin", r.adminHandler.SetAdminStatus)
	admin.Delete("/accounts/:id", r.adminHandler.SoftDeleteAccount)
	admin.Delete("/accounts/:id/hard", r.adminHandler.HardDeleteAccount)
	admin.Get("/tickets", r.ticketHandler.AdminListTickets)
	admin.Post("/tickets/:uuid/reply", r.ticketHandler.AdminReplyTicket)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// SetupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000, // 1 year
		HSTSExcludeSubdomains:     false,
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' https:; connect-src 'self' https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	// CORS middleware with production settings
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"https://servicosdigitais.com.br",
			"https://api.servicosdigitais.com.br",
			"https://admin.servicosdigitais.com.br",
			"https://app.servicosdigitais.com.br",
		},
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Response-Time",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// Skip compression for certain content types
			contentType := c.Get("Content-Type")
			return contains(contentType, "image/") ||
				contains(contentType, "video/") ||
				contains(contentType, "audio/")
		},
	}))

	// Advanced logging middleware
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks in production
			return c.Path() == "/api/v1/health"
		},
	}))

	// Request metrics for Prometheus
	r.app.Use(middleware.Metrics())

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "plataforma-api",
		},
	})
}

// Catch-all for unknown routes
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: dto.ErrCodeNotFound,
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	// Default error code
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	log.Printf("Error %d: %v", code, err)

	// Get RequestID for tracing
	requestID := c.Locals("requestid")

	// Return JSON error response
	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: dto.ErrCodeInternal,
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}
