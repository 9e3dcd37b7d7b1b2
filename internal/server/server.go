// Package server contains the HTTP handlers and routing of the blog.
package server

import (
	"context"
	"fmt"
	"strconv"
	"time"

	_ "yatube/docs" // swagger docs
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	fibercache "github.com/gofiber/fiber/v2/middleware/cache"
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
	pages          *cache.PageStore
	media          *media.Service
	mediaStore     media.Storage
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
	groupService   *service.GroupService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := media.NewStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("media storage init failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; the page cache then lives in process memory.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store media.Storage) (*Server, error) {
	if cfg == nil || db == nil || store == nil {
		return nil, fmt.Errorf("server: config, database and media storage are required")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	mediaService := media.NewService(store, cfg.ImageMaxUploadSizeMB, cfg.ImagePreviews)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("yatube"),
		pages:          cache.NewPageStore(redisClient),
		media:          mediaService,
		mediaStore:     store,
	}
	s.postService = service.NewPostService(postRepo, groupRepo, userRepo, followRepo, commentRepo, mediaService, cfg.PageSize)
	s.commentService = service.NewCommentService(commentRepo, postRepo)
	s.followService = service.NewFollowService(followRepo, userRepo)
	s.userService = service.NewUserService(userRepo)
	s.groupService = service.NewGroupService(groupRepo)

	return s, nil
}

// Pages exposes the page cache so callers can clear it.
func (s *Server) Pages() *cache.PageStore {
	return s.pages
}

// App builds the fiber application with every middleware and route installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Yatube",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		BodyLimit:    (s.config.ImageMaxUploadSizeMB + 1) * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware installs the global middleware chain.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// The session must be resolved before the context middleware copies userID into the request context.
	app.Use(s.SessionMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
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
	app.Get("/swagger/*", swagger.HandlerDefault)

	if local, ok := s.mediaStore.(*media.LocalStorage); ok {
		app.Static(s.config.MediaURL, local.Root())
	}

	app.Get("/", s.countPageCache(), s.indexCache(), s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/profile/:username/", s.Profile)
	app.Get("/posts/:id/", s.PostDetail)

	login := s.LoginRequired()
	app.Get("/create/", login, s.PostCreateForm)
	app.Post("/create/", login, s.PostCreate)
	app.Get("/posts/:id/edit/", login, s.PostEditForm)
	app.Post("/posts/:id/edit/", login, s.PostEdit)
	app.Post("/posts/:id/comment/", login,
		middleware.RateLimit(s.redis, 30, time.Minute, "comment"), s.AddComment)

	app.Get("/follow/", login, s.FollowIndex)
	app.Get("/profile/:username/follow/", login, s.ProfileFollow)
	app.Get("/profile/:username/unfollow/", login, s.ProfileUnfollow)

	auth := app.Group("/auth")
	auth.Get("/login/", s.LoginForm)
	auth.Post("/login/", middleware.RateLimit(s.redis, 10, 10*time.Minute, "login"), s.Login)
	auth.Get("/signup/", s.SignupForm)
	auth.Post("/signup/", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/logout/", s.Logout)

	admin := app.Group("/admin", login, s.AdminRequired())
	admin.Get("/groups/", s.ListGroups)
	admin.Post("/groups/", s.CreateGroup)
	admin.Post("/cache/clear/", s.ClearCache)

	app.Use(s.NotFound)
}

// indexCache stores the home listing per resolved page number.
func (s *Server) indexCache() fiber.Handler {
	return fibercache.New(fibercache.Config{
		Expiration: s.config.IndexCacheTTL(),
		Storage:    s.pages,
		Next: func(_ *fiber.Ctx) bool {
			return s.config.IndexCacheSeconds <= 0
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return "index:" + strconv.Itoa(pagination.ParseNumber(c.Query("page")))
		},
	})
}

func (s *Server) countPageCache() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		switch c.GetRespHeader("X-Cache") {
		case "hit":
			observability.PageCacheResults.WithLabelValues("hit").Inc()
		case "miss":
			observability.PageCacheResults.WithLabelValues("miss").Inc()
		}
		return err
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: without it
// the page cache and rate limits degrade to in-process behavior.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
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
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
