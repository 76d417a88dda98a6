package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/infra/config"
	"github.com/edukita/tryout-platform/internal/infra/database"
	kafkainfra "github.com/edukita/tryout-platform/internal/infra/kafka"
	"github.com/edukita/tryout-platform/internal/infra/logger"
	postgresrepo "github.com/edukita/tryout-platform/internal/repository/postgres"
	"github.com/edukita/tryout-platform/internal/usecase"
)

// devicesweep clears device bindings whose last login predates the configured
// inactivity threshold. Run it once, or on an interval with -every.
func main() {
	_ = godotenv.Load()

	every := flag.Duration("every", 0, "run continuously at this interval instead of once")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zlog, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() {
		_ = zlog.Sync()
	}()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, zlog)
	if err != nil {
		zlog.Fatal("failed to init postgres", zap.Error(err))
	}
	defer pool.Close()

	var events port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, zlog)
		if err != nil {
			zlog.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			events = kafkainfra.NewStubPublisher(zlog)
		} else {
			defer func() {
				_ = producer.Close()
			}()
			events = kafkainfra.NewEventPublisher(producer, cfg.App, zlog)
		}
	} else {
		events = kafkainfra.NewStubPublisher(zlog)
	}

	repos := postgresrepo.NewRepositories(pool)
	sweeper := usecase.NewDeviceSweepService(repos.Accounts, events, cfg.Device.InactiveThreshold, zlog)

	if _, err := sweeper.Sweep(ctx); err != nil {
		zlog.Fatal("device sweep failed", zap.Error(err))
	}

	if *every <= 0 {
		return
	}

	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sweeper.Sweep(ctx); err != nil {
				zlog.Error("device sweep failed", zap.Error(err))
			}
		}
	}
}
