package port

import (
	"context"
	"time"

	"github.com/edukita/tryout-platform/internal/core/domain"
)

// AccountFilter narrows account listings.
type AccountFilter struct {
	Role       domain.Role
	University string
	IsActive   *bool
	Limit      int
	Offset     int
}

// AccountRepository exposes persistence behavior for accounts.
//
// BindDevice and ClearDevice write the whole device field group in a single
// statement so the group is always fully populated or fully null.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, account domain.Account) error
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	BindDevice(ctx context.Context, id string, binding domain.DeviceBinding) error
	ClearDevice(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
	Count(ctx context.Context, filter AccountFilter) (int, error)
	ClearDevicesInactiveSince(ctx context.Context, cutoff time.Time) (int64, error)
}
