package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/repository"
)

func newMockAccountRepo(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	repo := &AccountRepository{
		exec:    mock,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	return repo, mock
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	repo, mock := newMockAccountRepo(t)

	createdAt := time.Now().UTC()
	deviceID := "fp-abc"
	deviceName := "Chrome Browser"
	lastIP := "203.0.113.10"

	rows := pgxmock.NewRows(accountColumns).AddRow(
		"acc-1", "Siti Rahma", "sitirahma", "siti@example.com", "UI", "0812", domain.RoleUser,
		"hash", nil, true, deviceID, deviceName, createdAt, lastIP, "UA", createdAt, createdAt,
	)

	mock.ExpectQuery(`SELECT .* FROM tryout\.accounts WHERE email = \$1`).
		WithArgs("siti@example.com").
		WillReturnRows(rows)

	account, err := repo.GetByEmail(context.Background(), "siti@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if account.ID != "acc-1" {
		t.Fatalf("expected account acc-1, got %s", account.ID)
	}
	if account.DeviceID == nil || *account.DeviceID != deviceID {
		t.Fatalf("expected device binding to be populated")
	}
	if account.DeviceName == nil || *account.DeviceName != deviceName {
		t.Fatalf("expected device name to match")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByIDNotFound(t *testing.T) {
	repo, mock := newMockAccountRepo(t)

	mock.ExpectQuery(`SELECT .* FROM tryout\.accounts WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(accountColumns))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_BindDevice(t *testing.T) {
	repo, mock := newMockAccountRepo(t)

	at := time.Now().UTC()
	binding := domain.DeviceBinding{
		DeviceID:    "fp-abc",
		DeviceName:  "Chrome Browser",
		LastLoginAt: at,
		LastLoginIP: "203.0.113.10",
		UserAgent:   "UA",
	}

	mock.ExpectExec(`UPDATE tryout\.accounts SET device_id = \$1`).
		WithArgs(binding.DeviceID, binding.DeviceName, binding.LastLoginAt, binding.LastLoginIP, binding.UserAgent, binding.LastLoginAt, "acc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.BindDevice(context.Background(), "acc-1", binding); err != nil {
		t.Fatalf("BindDevice returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_ClearDeviceNotFound(t *testing.T) {
	repo, mock := newMockAccountRepo(t)

	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE tryout\.accounts SET device_id = \$1`).
		WithArgs(nil, nil, nil, nil, nil, at, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.ClearDevice(context.Background(), "missing", at); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_ClearDevicesInactiveSince(t *testing.T) {
	repo, mock := newMockAccountRepo(t)

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)

	mock.ExpectExec(`UPDATE tryout\.accounts SET device_id = \$1`).
		WithArgs(nil, nil, nil, nil, nil, pgxmock.AnyArg(), cutoff).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	cleared, err := repo.ClearDevicesInactiveSince(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ClearDevicesInactiveSince returned error: %v", err)
	}
	if cleared != 4 {
		t.Fatalf("expected 4 cleared rows, got %d", cleared)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_CountWithFilter(t *testing.T) {
	repo, mock := newMockAccountRepo(t)

	active := true

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tryout\.accounts`).
		WithArgs(domain.RoleUser, active).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.Count(context.Background(), port.AccountFilter{Role: domain.RoleUser, IsActive: &active})
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 12 {
		t.Fatalf("expected 12 accounts, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
