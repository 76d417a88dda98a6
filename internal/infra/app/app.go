package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/infra/config"
	"github.com/edukita/tryout-platform/internal/infra/database"
	kafkainfra "github.com/edukita/tryout-platform/internal/infra/kafka"
	"github.com/edukita/tryout-platform/internal/infra/logger"
	mailinfra "github.com/edukita/tryout-platform/internal/infra/mail"
	redisinfra "github.com/edukita/tryout-platform/internal/infra/redis"
	"github.com/edukita/tryout-platform/internal/infra/security"
	postgresrepo "github.com/edukita/tryout-platform/internal/repository/postgres"
	redisrepo "github.com/edukita/tryout-platform/internal/repository/redis"
	"github.com/edukita/tryout-platform/internal/transport/http/middleware"
	"github.com/edukita/tryout-platform/internal/transport/http/routes"
	"github.com/edukita/tryout-platform/internal/usecase"
)

// Application owns the wired service graph and the HTTP server lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New wires configuration into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	keyProvider, err := security.NewKeyProvider(cfg.App.Env, cfg.JWT.KeyDirectory)
	if err != nil {
		return nil, fmt.Errorf("init key provider: %w", err)
	}
	jwtManager := security.NewJWTManager(keyProvider)

	signingKid := "v1"
	if dev, ok := keyProvider.(*security.DevKeyProvider); ok {
		if kid := dev.SigningKid(); kid != "" {
			signingKid = kid
		}
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var mailer port.Mailer
	if cfg.Mail.Host != "" {
		smtpMailer, err := mailinfra.NewSMTPMailer(cfg.Mail, log)
		if err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("init mailer: %w", err)
		}
		mailer = smtpMailer
	} else {
		log.Info("mail host not configured, logging reset mails instead")
		mailer = mailinfra.NewLogMailer(log)
	}

	fingerprinter := security.NewFingerprinter(cfg.Device.Secret)
	passwordValidator := security.DefaultPasswordValidator()

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "tryout:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	authService := usecase.NewAuthService(cfg, repos.Accounts, eventPublisher, fingerprinter, jwtManager, signingKid)
	registrationService := usecase.NewRegistrationService(repos.Accounts, eventPublisher, authService, fingerprinter, passwordValidator)
	accountService := usecase.NewAccountService(repos.Accounts)
	passwordService := usecase.NewPasswordService(cfg, repos.Accounts, repos.ResetTokens, mailer, eventPublisher)
	catalogService := usecase.NewCatalogService(repos.Programs)
	enrollmentService := usecase.NewEnrollmentService(repos.Enrollments, repos.Programs)
	quizService := usecase.NewQuizService(repos.QuestionBanks, repos.Programs)
	tryoutService := usecase.NewTryoutService(repos.Tryouts, repos.QuestionBanks, repos.Programs, enrollmentService)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		JWTManager:  jwtManager,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:         authService,
			Registration: registrationService,
			Accounts:     accountService,
			Passwords:    passwordService,
			Catalog:      catalogService,
			Enrollments:  enrollmentService,
			Quiz:         quizService,
			Tryouts:      tryoutService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Logger exposes the application logger.
func (a *Application) Logger() *zap.Logger {
	return a.logger
}

// Close releases the application's connections.
func (a *Application) Close() {
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.logger.Sync()
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer a.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting tryout API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
