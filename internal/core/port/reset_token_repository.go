package port

import (
	"context"

	"github.com/edukita/tryout-platform/internal/core/domain"
)

// ResetTokenRepository manages password reset tokens keyed by email.
// Replace discards any prior token for the email before storing the new one,
// keeping at most one live token per address.
type ResetTokenRepository interface {
	Replace(ctx context.Context, token domain.PasswordResetToken) error
	GetByEmail(ctx context.Context, email string) (*domain.PasswordResetToken, error)
	DeleteByEmail(ctx context.Context, email string) error
}
