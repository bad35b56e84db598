// Package server contains the HTTP and WebSocket handlers for the PenLoft API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "penloft/docs" // swagger docs
	"penloft/internal/config"
	"penloft/internal/featureflags"
	"penloft/internal/middleware"
	"penloft/internal/models"
	"penloft/internal/notifications"
	"penloft/internal/repository"
	"penloft/internal/service"
	"penloft/internal/suggest"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the already-initialised collaborators a Server runs on.
// DB, Redis and Generator may be nil.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Users     repository.UserRepository
	Posts     repository.PostRepository
	Generator suggest.Generator
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	postService    *service.PostService
	userService    *service.UserService
	suggester      *suggest.Service
}

// NewServer wires services and the live feed around deps.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if deps.Users == nil || deps.Posts == nil {
		return nil, errors.New("server: user and post repositories are required")
	}

	hub := notifications.NewHub()
	notifier := notifications.NewNotifier(deps.Redis, hub)

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("penloft-api"),
		userRepo:       deps.Users,
		postRepo:       deps.Posts,
		notifier:       notifier,
		hub:            hub,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	s.postService = service.NewPostService(deps.Posts, deps.Users, notifier)
	s.userService = service.NewUserService(deps.Users, deps.Posts)
	s.suggester = suggest.NewService(deps.Generator, time.Duration(cfg.GenAITimeoutSeconds)*time.Second)

	return s, nil
}

// App builds the fiber application with middleware and routes. It is
// built once; later calls return the same app.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName: "PenLoft API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	api.Get("/session", s.OptionalViewer(), s.Session)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.SearchPosts)
	posts.Post("/", s.AuthRequired(),
		middleware.RateLimit(s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:slug", s.GetPost)

	// /me must be registered before the /:username catch-all.
	users := api.Group("/users")
	users.Get("/", s.GetAllUsers)
	users.Get("/me", s.AuthRequired(), s.GetMe)
	users.Get("/:username/available", s.UsernameAvailable)
	users.Get("/:username", s.GetUserProfile)

	engagement := api.Group("/engagement", s.OptionalViewer())
	engagement.Post("/like", s.ToggleLike)
	engagement.Post("/bookmark", s.ToggleBookmark)

	ai := api.Group("/ai", s.AuthRequired(),
		s.featureFlags.Gate(featureflags.AISuggestions),
		middleware.RateLimit(s.redis, 10, time.Minute, "ai_suggest"))
	ai.Post("/tags", s.SuggestTags)
	ai.Post("/content", s.SuggestContent)

	api.Get("/ws/feed", s.OptionalViewer(),
		s.featureFlags.Gate(featureflags.LiveFeed), s.FeedWebsocket())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck pings the database and Redis. Either may be absent
// (memory storage, no REDIS_URL); only a failing ping marks the service
// unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if s.db != nil {
		dbStatus = "healthy"
		sqlDB, err := s.db.DB()
		if err != nil {
			dbStatus = "unhealthy"
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  overall,
		"storage": s.config.StorageDriver,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start builds the app, wires the live feed to Redis and listens on the
// configured port. It blocks until the listener stops.
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	app := s.App()

	if s.redis != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Warn("live feed wiring failed", "error", err)
		}
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops the listener, the feed wiring and the hub. Closing the
// database and Redis clients is left to whoever opened them.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("feed hub shutdown: %w", err))
	}
	return errors.Join(errs...)
}
