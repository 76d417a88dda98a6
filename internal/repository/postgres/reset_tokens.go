package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/repository"
)

// ResetTokenRepository implements port.ResetTokenRepository using PostgreSQL.
// The table is keyed by email, so an address can hold at most one live token.
type ResetTokenRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewResetTokenRepository wires a PostgreSQL-backed reset token repository.
func NewResetTokenRepository(pool *pgxpool.Pool) *ResetTokenRepository {
	return &ResetTokenRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ResetTokenRepository) WithTx(tx pgx.Tx) *ResetTokenRepository {
	if tx == nil {
		return r
	}
	return &ResetTokenRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Replace upserts the reset token for the email, discarding any prior one.
func (r *ResetTokenRepository) Replace(ctx context.Context, token domain.PasswordResetToken) error {
	stmt, args, err := r.builder.Insert("tryout.password_reset_tokens").
		Columns("email", "token_hash", "created_at").
		Values(token.Email, token.TokenHash, token.CreatedAt).
		Suffix("ON CONFLICT (email) DO UPDATE SET token_hash = EXCLUDED.token_hash, created_at = EXCLUDED.created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build replace reset token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("replace reset token: %w", err)
	}

	return nil
}

// GetByEmail retrieves the live reset token for an email address.
func (r *ResetTokenRepository) GetByEmail(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	stmt, args, err := r.builder.
		Select("email", "token_hash", "created_at").
		From("tryout.password_reset_tokens").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reset token sql: %w", err)
	}

	var token domain.PasswordResetToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&token.Email,
		&token.TokenHash,
		&token.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan reset token: %w", err)
	}

	return &token, nil
}

// DeleteByEmail removes the reset token for an email address.
func (r *ResetTokenRepository) DeleteByEmail(ctx context.Context, email string) error {
	stmt, args, err := r.builder.Delete("tryout.password_reset_tokens").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete reset token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}

	return nil
}

var _ port.ResetTokenRepository = (*ResetTokenRepository)(nil)
