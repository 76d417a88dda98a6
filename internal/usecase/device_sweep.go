package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
)

const defaultInactiveThreshold = 30 * 24 * time.Hour

// DeviceSweepService releases device bindings that have not logged in for a
// configured threshold, freeing abandoned sessions.
type DeviceSweepService struct {
	accounts  port.AccountRepository
	events    port.EventPublisher
	threshold time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewDeviceSweepService constructs a device sweep service.
func NewDeviceSweepService(accounts port.AccountRepository, events port.EventPublisher, threshold time.Duration, logger *zap.Logger) *DeviceSweepService {
	if threshold <= 0 {
		threshold = defaultInactiveThreshold
	}
	return &DeviceSweepService{
		accounts:  accounts,
		events:    events,
		threshold: threshold,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Sweep clears all bindings whose last login predates the threshold and
// returns how many were released.
func (s *DeviceSweepService) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	cutoff := now.Add(-s.threshold)

	cleared, err := s.accounts.ClearDevicesInactiveSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep inactive devices: %w", err)
	}

	s.logger.Info("inactive device sweep completed",
		zap.Time("cutoff", cutoff),
		zap.Int64("cleared", cleared),
	)

	if s.events != nil {
		_ = s.events.PublishDeviceSweep(ctx, domain.DeviceSweepEvent{
			Cutoff:     cutoff,
			Cleared:    cleared,
			OccurredAt: now,
		})
	}

	return cleared, nil
}
