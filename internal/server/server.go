// Package server contains the HTTP handlers for the application's routes.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/featureflags"
	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
	"warbler/internal/service"
	"warbler/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SessionCookie is the name of the HTTP-only cookie carrying the session token.
const SessionCookie = "warbler_session"

// Server holds all dependencies and provides handlers
type Server struct {
	config   *config.Config
	db       *gorm.DB
	redis    *redis.Client
	sessions *session.Store
	flags    *featureflags.Manager

	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	followRepo  repository.FollowRepository
	likeRepo    repository.LikeRepository

	userService *service.UserService
	feedService *service.FeedService

	app *fiber.App
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.InitRedis(cfg)

	return NewServerWithDeps(cfg, db, redisClient), nil
}

// NewServerWithDeps creates a server from pre-built dependencies. Used by
// tests to inject an in-memory database and a nil Redis client.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	sessions := session.NewStore(redisClient, time.Duration(cfg.SessionTTLMinutes)*time.Minute)

	userRepo := repository.NewUserRepository(db, redisClient)
	messageRepo := repository.NewMessageRepository(db)
	followRepo := repository.NewFollowRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	return &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		sessions:    sessions,
		flags:       featureflags.NewManager(cfg.FeatureFlags),
		userRepo:    userRepo,
		messageRepo: messageRepo,
		followRepo:  followRepo,
		likeRepo:    likeRepo,
		userService: service.NewUserService(userRepo),
		feedService: service.NewFeedService(messageRepo),
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	prom := fiberprometheus.New("warbler")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware
	app.Use(middleware.StructuredLogger())

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-CSRF-Token",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// CSRF protection for state-changing browser routes. The /api surface
	// authenticates with bearer tokens and is exempt.
	app.Use(csrf.New(csrf.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api")
		},
		KeyLookup:      "header:X-CSRF-Token",
		CookieName:     "warbler_csrf",
		CookieSameSite: "Lax",
		CookieHTTPOnly: false,
		Expiration:     1 * time.Hour,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Session resolution runs on every request.
	app.Use(s.CurrentUser())

	// Health checks
	app.Get("/health", s.HealthCheck)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Public routes
	app.Get("/", s.Home)
	app.Get("/flashes", s.GetFlashes)
	app.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Protected routes
	protected := app.Group("", s.LoginRequired())

	protected.Post("/logout", s.Logout)

	users := protected.Group("/users")
	users.Get("/", s.ListUsers)
	// Define specific routes BEFORE generic /:id route
	users.Get("/profile", s.GetProfile)
	users.Post("/profile", s.UpdateProfile)
	users.Post("/follow/:id", s.Follow)
	users.Post("/stop-following/:id", s.Unfollow)
	users.Post("/delete", s.DeleteAccount)
	users.Get("/:id/following", s.Following)
	users.Get("/:id/followers", s.Followers)
	users.Get("/:id/likes", s.LikedMessages)
	users.Get("/:id", s.ShowUser)

	messages := protected.Group("/messages")
	messages.Get("/new", s.NewMessageForm)
	messages.Post("/new", s.CreateMessage)
	messages.Post("/:id/delete", s.DeleteMessage)
	messages.Post("/:id/like", s.ToggleLike)
	messages.Get("/:id", s.ShowMessage)

	// JSON API surface
	api := app.Group("/api", s.LoginRequired())
	api.Post("/messages/:id/like", s.APIToggleLike)
}

// CurrentUser resolves the session cookie into a request-scoped identity.
// A missing or stale token degrades silently to anonymous.
func (s *Server) CurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			observability.SessionResolutions.WithLabelValues("anonymous").Inc()
			return c.Next()
		}

		c.Locals("sessionToken", token)

		userID, ok := s.sessions.Resolve(c.Context(), token)
		if !ok || userID == session.GuestUserID {
			observability.SessionResolutions.WithLabelValues("anonymous").Inc()
			return c.Next()
		}

		user, err := s.userRepo.GetByID(c.Context(), userID)
		if err != nil {
			// User no longer exists; drop the dangling session.
			s.sessions.Destroy(c.Context(), token)
			observability.SessionResolutions.WithLabelValues("stale").Inc()
			return c.Next()
		}

		observability.SessionResolutions.WithLabelValues("resolved").Inc()
		c.Locals("userID", user.ID)
		c.Locals("currentUser", user)
		return c.Next()
	}
}

// LoginRequired rejects anonymous requests. Browser routes get a flash and a
// redirect to the landing page; /api routes may instead present a bearer
// token, and failing that receive 401 JSON.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("userID") != nil {
			return c.Next()
		}

		if strings.HasPrefix(c.Path(), "/api") {
			if userID, ok := s.bearerUserID(c); ok {
				c.Locals("userID", userID)
				return c.Next()
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Access unauthorized."))
		}

		return s.flashAndRedirect(c, "danger", "Access unauthorized.", "/")
	}
}

// LivenessCheck handles GET /health/live.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// ReadinessCheck handles GET /health/ready. Ready means the database answers.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready"})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// HealthCheck handles GET /health with component detail.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  "healthy",
		"version": "1.0.0",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Warbler API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down http server", "error", err.Error())
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr.Error())
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr.Error())
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
