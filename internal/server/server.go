// Package server contains the HTTP and WebSocket handlers for the API.
package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"agora/internal/access"
	"agora/internal/bootstrap"
	"agora/internal/config"
	"agora/internal/database"
	_ "agora/internal/docs" // swagger docs
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/repository"
	"agora/internal/service"

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

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens   *middleware.TokenManager
	userRepo repository.UserRepository
	notifier *notifications.Notifier
	hub      *notifications.Hub

	accounts      *service.AccountService
	avatars       *service.AvatarService
	posts         *service.PostService
	comments      *service.CommentService
	books         *service.BookService
	likes         *service.LikeService
	follows       *service.FollowService
	notifications *service.NotificationService
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, revocation and realtime delivery are then
// disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	policies := service.DefaultContentPolicies()

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("agora-api"),
		tokens:         middleware.NewTokenManager(cfg, redisClient),
		userRepo:       userRepo,
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}

	s.accounts = service.NewAccountService(userRepo, s.tokens)
	s.avatars = service.NewAvatarService(userRepo, cfg)
	s.posts = service.NewPostService(postRepo, policies)
	s.comments = service.NewCommentService(repository.NewCommentRepository(db), postRepo, policies)
	s.books = service.NewBookService(repository.NewBookRepository(db), policies)
	s.likes = service.NewLikeService(repository.NewLikeRepository(db), s.notifier)
	s.follows = service.NewFollowService(userRepo, repository.NewFollowRepository(db))
	s.notifications = service.NewNotificationService(repository.NewNotificationRepository(db))
	return s, nil
}

// NewApp builds a Fiber app with the shared error handler.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   "Agora API",
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, err)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
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

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	if s.config.RateLimitRequests > 0 {
		window := time.Duration(s.config.RateLimitWindowSeconds) * time.Second
		if window <= 0 {
			window = time.Minute
		}
		app.Use(limiter.New(limiter.Config{
			Max:        s.config.RateLimitRequests,
			Expiration: window,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/health")
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

	app.Use(s.OptionalAuth())
}

// SetupRoutes configures all routes. Fiber's default non-strict routing
// makes every trailing slash optional.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/metrics", middleware.MetricsHandler())
	app.Get("/swagger/*", swagger.HandlerDefault)
	if s.config.MediaURL != "" && s.config.MediaDir != "" {
		app.Static(s.config.MediaURL, s.config.MediaDir)
	}

	tokenOnly := middleware.Guard(access.NewPolicy(access.IsAuthenticated{}))
	readOpen := middleware.Guard(access.NewPolicy(access.IsAuthenticatedOrReadOnly{}))

	authPolicy := middleware.FailLocal
	if s.config.RateLimitFailClosed {
		authPolicy = middleware.FailClosed
	}
	app.Post("/register", middleware.RateLimitWithPolicy(s.redis, 5, 10*time.Minute, authPolicy, "register"), s.Register)
	app.Post("/login", middleware.RateLimitWithPolicy(s.redis, 10, 5*time.Minute, authPolicy, "login"), s.Login)
	app.Post("/logout", tokenOnly, s.Logout)

	// Relation transitions.
	app.Post("/posts/:id/like", tokenOnly, middleware.RateLimit(s.redis, 60, time.Minute, "like"), s.LikePost)
	app.Post("/posts/:id/unlike", tokenOnly, s.UnlikePost)
	app.Post("/follow/:id", tokenOnly, middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.FollowUser)
	app.Post("/unfollow/:id", tokenOnly, s.UnfollowUser)

	posts := app.Group("/posts", readOpen)
	posts.Get("/", s.ListPosts)
	posts.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", s.ListPostComments)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Patch("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)
	app.Get("/tags/:slug", s.ListTaggedPosts)

	comments := app.Group("/comments", readOpen)
	comments.Get("/", s.ListComments)
	comments.Post("/", middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	comments.Get("/:id", s.GetComment)
	comments.Put("/:id", s.UpdateComment)
	comments.Patch("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	books := app.Group("/books", readOpen)
	books.Get("/", s.ListBooks)
	books.Post("/", s.CreateBook)
	books.Get("/:id", s.GetBook)
	books.Put("/:id", s.UpdateBook)
	books.Patch("/:id", s.UpdateBook)
	books.Delete("/:id", s.DeleteBook)

	app.Get("/feed", tokenOnly, s.Feed)
	app.Get("/notifications", tokenOnly, s.ListNotifications)

	profile := app.Group("/profile", tokenOnly)
	profile.Get("/", s.GetProfile)
	profile.Patch("/", s.UpdateProfile)
	profile.Post("/avatar", middleware.RateLimit(s.redis, 5, time.Minute, "avatar"), s.UploadAvatar)

	users := app.Group("/users")
	users.Get("/", s.ListUsers)
	users.Get("/:id/followers", s.ListFollowers)
	users.Get("/:id/following", s.ListFollowing)
	users.Get("/:id", s.GetUser)

	app.Get("/ws/notifications", s.WebSocketUpgrade(), s.NotificationsWebSocket())
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports 503 when the database is unreachable. Redis is
// optional and only reported.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus != "healthy" {
		overall = "degraded"
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

// Start wires realtime delivery and listens on the configured port.
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())

	app := NewApp()
	s.app = app
	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if s.redis != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start notification wiring", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down notification hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
