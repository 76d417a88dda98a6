package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccountRegistered logs account.registered events.
func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	payload := map[string]any{
		"account_id":    event.AccountID,
		"username":      event.Username,
		"email":         event.Email,
		"device_id":     event.DeviceID,
		"device_name":   event.DeviceName,
		"registered_at": event.RegisteredAt,
		"metadata":      event.Metadata,
	}
	p.logEvent("account.registered", event.AccountID, event.RegisteredAt, payload)
	return nil
}

// PublishForceLogin logs auth.force_login events.
func (p *StubPublisher) PublishForceLogin(_ context.Context, event domain.ForceLoginEvent) error {
	payload := map[string]any{
		"account_id":      event.AccountID,
		"old_device_id":   event.OldDeviceID,
		"old_device_name": event.OldDeviceName,
		"new_device_id":   event.NewDeviceID,
		"new_device_name": event.NewDeviceName,
		"ip":              event.IP,
		"occurred_at":     event.OccurredAt,
		"metadata":        event.Metadata,
	}
	p.logEvent("auth.force_login", event.AccountID, event.OccurredAt, payload)
	return nil
}

// PublishDeviceMismatch logs auth.device_mismatch events.
func (p *StubPublisher) PublishDeviceMismatch(_ context.Context, event domain.DeviceMismatchEvent) error {
	payload := map[string]any{
		"account_id":        event.AccountID,
		"request_device_id": event.RequestDeviceID,
		"registered_device": event.RegisteredDevice,
		"ip":                event.IP,
		"occurred_at":       event.OccurredAt,
		"metadata":          event.Metadata,
	}
	p.logEvent("auth.device_mismatch", event.AccountID, event.OccurredAt, payload)
	return nil
}

// PublishPasswordReset logs auth.password_reset events.
func (p *StubPublisher) PublishPasswordReset(_ context.Context, event domain.PasswordResetEvent) error {
	payload := map[string]any{
		"account_id":     event.AccountID,
		"email":          event.Email,
		"reset_at":       event.ResetAt,
		"device_cleared": event.DeviceCleared,
		"metadata":       event.Metadata,
	}
	p.logEvent("auth.password_reset", event.AccountID, event.ResetAt, payload)
	return nil
}

// PublishDeviceSweep logs device.sweep events.
func (p *StubPublisher) PublishDeviceSweep(_ context.Context, event domain.DeviceSweepEvent) error {
	payload := map[string]any{
		"cutoff":      event.Cutoff,
		"cleared":     event.Cleared,
		"occurred_at": event.OccurredAt,
	}
	p.logEvent("device.sweep", "", event.OccurredAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
