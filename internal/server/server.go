// Package server contains the HTTP handlers for the dashboard, the public
// blogs, authentication and billing.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/billing"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/identity"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

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
	verifier       identity.Verifier
	resolver       *identity.Resolver
	users          repository.UserRepository
	blogCache      *cache.Store
	featureFlags   *featureflags.Manager

	siteService      *service.SiteService
	postService      *service.PostService
	billingService   *service.BillingService
	dashboardService *service.DashboardService
	blogService      *service.BlogService
}

// NewServer wires repositories and services over already-initialized
// dependencies. redisClient may be nil, in which case the blog cache and the
// distributed rate limiter are disabled.
func NewServer(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	verifier identity.Verifier,
	gateway billing.Gateway,
) *Server {
	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	siteRepo := repository.NewSiteRepository(db)
	postRepo := repository.NewPostRepository(db)

	store := cache.NewStore(redisClient)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	entitlements := service.NewEntitlementChecker(subRepo, siteRepo)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("inkwell-api"),
		verifier:       verifier,
		resolver:       identity.NewResolver(userRepo),
		users:          userRepo,
		blogCache:      store,
		featureFlags:   flags,

		siteService: service.NewSiteService(siteRepo, postRepo, entitlements, store),
		postService: service.NewPostService(postRepo, siteRepo, store),
		billingService: service.NewBillingService(userRepo, subRepo, gateway, service.BillingConfig{
			PriceID:    cfg.StripePriceID,
			SuccessURL: cfg.PaymentSuccessURL(),
			CancelURL:  cfg.PaymentCancelURL(),
		}),
		dashboardService: service.NewDashboardService(siteRepo, postRepo, entitlements, cfg.StripePriceID),
		blogService:      service.NewBlogService(siteRepo, postRepo, store, flags),
	}
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Inkwell API",
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler writes every error that reaches fiber in the standard shape.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "Unhandled request error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, status, err)
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
		origins = s.config.BaseURL
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || c.Path() == "/api/webhooks/stripe"
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
	auth.Get("/login", s.Login)
	auth.Get("/logout", s.Logout)
	auth.Get("/callback", s.AuthCallback)
	api.Get("/me", s.SessionRequired(), s.GetMe)

	api.Post("/webhooks/stripe", s.StripeWebhook)

	// Public blogs
	blog := app.Group("/blog")
	blog.Get("/:name", s.GetBlog)
	blog.Get("/:name/:slug", s.GetBlogArticle)

	dash := app.Group("/dashboard", s.SessionRequired())
	dash.Get("/", s.GetOverview)
	dash.Get("/pricing", s.GetPricing)
	dash.Get("/slug", s.GenerateSlug)

	sites := dash.Group("/sites")
	sites.Get("/", s.ListSites)
	sites.Post("/", middleware.RateLimit(s.redis, 10, 10*time.Minute, "create_site"), s.CreateSite)
	// Specific /sites/<action> routes before the generic /:siteId
	sites.Post("/image", s.UpdateSiteImage)
	sites.Post("/delete", s.DeleteSite)
	sites.Get("/:siteId/articles/:articleId", s.GetArticle)
	sites.Get("/:siteId", s.GetSite)

	articles := dash.Group("/articles")
	articles.Post("/", middleware.RateLimit(s.redis, 30, 10*time.Minute, "create_post"), s.CreateArticle)
	articles.Post("/edit", s.EditArticle)
	articles.Post("/delete", s.DeleteArticle)

	dash.Post("/billing/checkout", middleware.RateLimit(s.redis, 5, 10*time.Minute, "checkout"), s.StartCheckout)
	dash.Get("/payment/success", s.PaymentSuccess)
	dash.Get("/payment/cancelled", s.PaymentCancelled)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis. Redis only
// backs the blog cache, so a missing client does not fail readiness.
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

	redisStatus := "disabled"
	if s.blogCache.Enabled() {
		redisStatus = "healthy"
		if err := s.blogCache.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
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

// Start builds the app and blocks serving on the configured port.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the HTTP server and closes the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
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

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
