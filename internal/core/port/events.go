package port

import (
	"context"

	"github.com/edukita/tryout-platform/internal/core/domain"
)

// EventPublisher delivers security and lifecycle events to downstream consumers.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishForceLogin(ctx context.Context, event domain.ForceLoginEvent) error
	PublishDeviceMismatch(ctx context.Context, event domain.DeviceMismatchEvent) error
	PublishPasswordReset(ctx context.Context, event domain.PasswordResetEvent) error
	PublishDeviceSweep(ctx context.Context, event domain.DeviceSweepEvent) error
}
