package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/repository"
)

func newMockResetTokenRepo(t *testing.T) (*ResetTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	repo := &ResetTokenRepository{
		exec:    mock,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	return repo, mock
}

func TestResetTokenRepository_ReplaceUpserts(t *testing.T) {
	repo, mock := newMockResetTokenRepo(t)

	token := domain.PasswordResetToken{
		Email:     "siti@example.com",
		TokenHash: "hash-abc",
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO tryout\.password_reset_tokens .* ON CONFLICT \(email\) DO UPDATE`).
		WithArgs(token.Email, token.TokenHash, token.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Replace(context.Background(), token); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResetTokenRepository_GetByEmail(t *testing.T) {
	repo, mock := newMockResetTokenRepo(t)

	createdAt := time.Now().UTC()

	mock.ExpectQuery(`SELECT email, token_hash, created_at FROM tryout\.password_reset_tokens`).
		WithArgs("siti@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"email", "token_hash", "created_at"}).
			AddRow("siti@example.com", "hash-abc", createdAt))

	token, err := repo.GetByEmail(context.Background(), "siti@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if token.TokenHash != "hash-abc" {
		t.Fatalf("expected stored hash, got %s", token.TokenHash)
	}

	mock.ExpectQuery(`SELECT email, token_hash, created_at FROM tryout\.password_reset_tokens`).
		WithArgs("missing@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"email", "token_hash", "created_at"}))

	if _, err := repo.GetByEmail(context.Background(), "missing@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResetTokenRepository_DeleteByEmail(t *testing.T) {
	repo, mock := newMockResetTokenRepo(t)

	mock.ExpectExec(`DELETE FROM tryout\.password_reset_tokens`).
		WithArgs("siti@example.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.DeleteByEmail(context.Background(), "siti@example.com"); err != nil {
		t.Fatalf("DeleteByEmail returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
