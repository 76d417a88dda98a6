package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/edukita/tryout-platform/internal/infra/config"
	"github.com/edukita/tryout-platform/internal/infra/security"
	"github.com/edukita/tryout-platform/internal/transport/http/handlers"
	"github.com/edukita/tryout-platform/internal/transport/http/middleware"
	"github.com/edukita/tryout-platform/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth         *usecase.AuthService
	Registration *usecase.RegistrationService
	Accounts     *usecase.AccountService
	Passwords    *usecase.PasswordService
	Catalog      *usecase.CatalogService
	Enrollments  *usecase.EnrollmentService
	Quiz         *usecase.QuizService
	Tryouts      *usecase.TryoutService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	JWTManager  *security.JWTManager
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if len(deps.Config.App.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	}
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)
	deviceGuard := middleware.ValidateDevice(deps.Services.Auth)
	adminOnly := middleware.RequireRole("admin")

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.JWTManager != nil {
		jwksHandler := handlers.NewJWKSHandler(deps.JWTManager)
		r.GET("/.well-known/jwks.json", jwksHandler.Keys)
	}

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Registration)
		authHandler.RegisterRoutes(
			authGroup,
			buildRateLimitChain(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts),
			buildRateLimitChain(deps, "auth_force_login_ip", deps.Config.RateLimit.ForceLoginMaxAttempts),
		)

		passwordGroup := api.Group("/password")
		passwordHandler := handlers.NewPasswordHandler(deps.Services.Passwords)
		passwordHandler.RegisterRoutes(
			passwordGroup,
			[]gin.HandlerFunc{authMiddleware, deviceGuard},
			buildRateLimitChain(deps, "password_reset_ip", deps.Config.RateLimit.ForgotPasswordMaxAttempts),
		)

		// All account and participant routes sit behind the device guard so a
		// displaced session is rejected on its next request. Admin sessions are
		// bound to a single device the same way.
		authed := api.Group("")
		authed.Use(authMiddleware, deviceGuard)

		admin := api.Group("/admin")
		admin.Use(authMiddleware, deviceGuard, adminOnly)

		accountHandler := handlers.NewAccountHandler(deps.Services.Accounts)
		accountHandler.RegisterRoutes(authed, admin)

		programHandler := handlers.NewProgramHandler(deps.Services.Catalog)
		programHandler.RegisterRoutes(api, admin)

		enrollmentHandler := handlers.NewEnrollmentHandler(deps.Services.Enrollments)
		enrollmentHandler.RegisterRoutes(authed, admin)

		questionBankHandler := handlers.NewQuestionBankHandler(deps.Services.Quiz)
		questionBankHandler.RegisterRoutes(authed, admin)

		tryoutHandler := handlers.NewTryoutHandler(deps.Services.Tryouts)
		tryoutHandler.RegisterRoutes(authed, admin)
	}

	return r
}

func buildRateLimitChain(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
