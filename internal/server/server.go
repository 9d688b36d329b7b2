// Package server contains HTTP and WebSocket handlers for the forum API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "agora/docs" // swagger docs
	"agora/internal/auth"
	"agora/internal/cache"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/observability"
	"agora/internal/repository"
	"agora/internal/service"
	"agora/internal/validation"

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

// Deps are the long-lived resources the server is built from. Redis is optional.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Logger *slog.Logger
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	log            *slog.Logger
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	store     *cache.Store
	limiter   *middleware.RateLimiter
	validator *validation.Validator

	notifier   *notifications.Notifier
	hub        *notifications.Hub
	dispatcher *notifications.Dispatcher

	authService         *service.AuthService
	userService         *service.UserService
	postService         *service.PostService
	commentService      *service.CommentService
	voteService         *service.VoteService
	notificationService *service.NotificationService
}

// NewServer wires repositories, services and the Fiber app from deps.
func NewServer(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.DB == nil {
		return nil, errors.New("server: config and db are required")
	}
	log := deps.Logger
	if log == nil {
		log = observability.Discard()
	}
	cfg := deps.Config

	store := cache.NewStore(deps.Redis, log)

	userRepo := repository.NewUserRepository(deps.DB, store)
	postRepo := repository.NewPostRepository(deps.DB, store)
	commentRepo := repository.NewCommentRepository(deps.DB)
	voteRepo := repository.NewVoteRepository(deps.DB, store)
	notifRepo := repository.NewNotificationRepository(deps.DB)

	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	notifier := notifications.NewNotifier(deps.Redis, log)
	hub := notifications.NewHub(log)
	dispatcher := notifications.NewDispatcher(hub, notifier, log)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		log:            log,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		store:          store,
		limiter:        middleware.NewRateLimiter(deps.Redis, cfg.Env, log),
		validator:      validation.New(),
		notifier:       notifier,
		hub:            hub,
		dispatcher:     dispatcher,

		authService:         service.NewAuthService(userRepo, hasher, tokens, store, log),
		userService:         service.NewUserService(userRepo, voteRepo, hasher),
		postService:         service.NewPostService(postRepo, userRepo),
		commentService:      service.NewCommentService(commentRepo, postRepo, userRepo, cfg.CommentDeletePolicy),
		voteService:         service.NewVoteService(voteRepo, userRepo, notifRepo, dispatcher, log),
		notificationService: service.NewNotificationService(notifRepo),
	}

	app := fiber.New(fiber.Config{
		AppName:      "Agora Forum API",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app

	return s, nil
}

// App returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := models.CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = models.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusUpgradeRequired:
			code = models.CodeValidation
		}
		return models.RespondWithError(c, fe.Code, models.NewAppError(code, fe.Message))
	}

	s.log.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
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

	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(middleware.StructuredLogger(s.log))

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, X-Server-Secret",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	switch s.config.Env {
	case "test", "stress":
		return
	}
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
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewAppError(models.CodeRateLimited, "Too many requests, please try again later."))
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

	authRequired := middleware.AuthRequired(s.authService)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.limiter.Limit("register", 5, 10*time.Minute), s.Register)
	authGroup.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute), s.Login)
	authGroup.Post("/logout", authRequired, s.Logout)

	// Group middleware matches by prefix, so auth is attached per route.
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", authRequired, s.limiter.Limit("create_post", 10, time.Minute), s.CreatePost)
	// Specific /:id/:resource routes before generic /:id
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", authRequired, s.limiter.Limit("create_comment", 20, time.Minute), s.CreateComment)
	posts.Post("/:id/upvote", authRequired, s.voteHandler(models.VoteUp, false))
	posts.Delete("/:id/upvote", authRequired, s.voteHandler(models.VoteUp, true))
	posts.Post("/:id/downvote", authRequired, s.voteHandler(models.VoteDown, false))
	posts.Delete("/:id/downvote", authRequired, s.voteHandler(models.VoteDown, true))
	posts.Get("/:id", s.GetPost)
	posts.Patch("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	api.Get("/users/:id/posts", s.GetUserPosts)

	comments := api.Group("/comments")
	comments.Patch("/:id", authRequired, s.UpdateComment)
	comments.Delete("/:id", authRequired, s.DeleteComment)

	user := api.Group("/user")
	user.Post("/logout", authRequired, s.Logout)
	user.Get("/current/me", authRequired, s.GetMe)
	user.Patch("/current/me", authRequired, s.UpdateMe)
	user.Delete("/current/me", authRequired, s.DeleteMe)
	user.Get("/current/userUpvotes", authRequired, s.votedPostsHandler(models.VoteUp))
	user.Get("/current/userDownvotes", authRequired, s.votedPostsHandler(models.VoteDown))
	user.Get("/:id", authRequired, s.GetUser)

	notes := api.Group("/notifications")
	notes.Get("/", authRequired, s.GetNotifications)
	notes.Post("/read", authRequired, s.MarkNotificationsRead)

	api.Get("/ws/notifications", s.NotificationUpgrade, s.NotificationChannel())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
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
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires the hub to Redis and listens on the configured port. It blocks
// until the listener stops.
func (s *Server) Start() error {
	if err := s.startWiring(); err != nil {
		s.log.Error("failed to start notification wiring", slog.String("error", err.Error()))
	}

	s.log.Info("server starting", slog.String("port", s.config.Port), slog.String("env", s.config.Env))
	return s.app.Listen(":" + s.config.Port)
}

// startWiring forwards Redis notification traffic to local sockets until shutdown.
func (s *Server) startWiring() error {
	if !s.notifier.Enabled() {
		return nil
	}
	return s.hub.StartWiring(s.shutdownCtx, s.notifier)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()

	var errs []error
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", s.hub.Name(), err))
	}

	s.log.Info("server shutdown complete")
	return errors.Join(errs...)
}
