package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/repository"
)

var tryoutColumns = []string{
	"id",
	"program_id",
	"question_bank_id",
	"title",
	"duration_minutes",
	"starts_at",
	"ends_at",
	"is_active",
	"created_at",
	"updated_at",
}

// TryoutRepository implements port.TryoutRepository using PostgreSQL.
type TryoutRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTryoutRepository wires a PostgreSQL-backed tryout repository.
func NewTryoutRepository(pool *pgxpool.Pool) *TryoutRepository {
	return &TryoutRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new tryout row.
func (r *TryoutRepository) Create(ctx context.Context, tryout domain.Tryout) error {
	stmt, args, err := r.builder.Insert("tryout.tryouts").
		Columns(tryoutColumns...).
		Values(
			tryout.ID,
			tryout.ProgramID,
			tryout.QuestionBankID,
			tryout.Title,
			tryout.DurationMinutes,
			tryout.StartsAt,
			tryout.EndsAt,
			tryout.IsActive,
			tryout.CreatedAt,
			tryout.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert tryout sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert tryout: %w", err)
	}

	return nil
}

// GetByID retrieves a tryout by identifier.
func (r *TryoutRepository) GetByID(ctx context.Context, id string) (*domain.Tryout, error) {
	stmt, args, err := r.builder.
		Select(tryoutColumns...).
		From("tryout.tryouts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select tryout sql: %w", err)
	}

	tryout, err := scanTryout(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan tryout: %w", err)
	}

	return tryout, nil
}

func scanTryout(row pgx.Row) (*domain.Tryout, error) {
	var (
		tryout   domain.Tryout
		startsAt sql.NullTime
		endsAt   sql.NullTime
	)

	if err := row.Scan(
		&tryout.ID,
		&tryout.ProgramID,
		&tryout.QuestionBankID,
		&tryout.Title,
		&tryout.DurationMinutes,
		&startsAt,
		&endsAt,
		&tryout.IsActive,
		&tryout.CreatedAt,
		&tryout.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if startsAt.Valid {
		val := startsAt.Time
		tryout.StartsAt = &val
	}
	if endsAt.Valid {
		val := endsAt.Time
		tryout.EndsAt = &val
	}

	return &tryout, nil
}

// Update modifies an existing tryout.
func (r *TryoutRepository) Update(ctx context.Context, tryout domain.Tryout) error {
	stmt, args, err := r.builder.Update("tryout.tryouts").
		Set("title", tryout.Title).
		Set("question_bank_id", tryout.QuestionBankID).
		Set("duration_minutes", tryout.DurationMinutes).
		Set("starts_at", tryout.StartsAt).
		Set("ends_at", tryout.EndsAt).
		Set("is_active", tryout.IsActive).
		Set("updated_at", tryout.UpdatedAt).
		Where(squirrel.Eq{"id": tryout.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update tryout sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update tryout: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a tryout row.
func (r *TryoutRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("tryout.tryouts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete tryout sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete tryout: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns tryouts with optional filtering and pagination.
func (r *TryoutRepository) List(ctx context.Context, filter port.TryoutFilter) ([]domain.Tryout, error) {
	query := r.builder.Select(tryoutColumns...).
		From("tryout.tryouts").
		OrderBy("created_at DESC")

	query = applyTryoutFilter(query, filter)

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tryouts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query tryouts: %w", err)
	}
	defer rows.Close()

	tryouts := make([]domain.Tryout, 0)
	for rows.Next() {
		tryout, err := scanTryout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tryout: %w", err)
		}
		tryouts = append(tryouts, *tryout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tryouts: %w", err)
	}

	return tryouts, nil
}

// Count returns the total number of tryouts matching the filter.
func (r *TryoutRepository) Count(ctx context.Context, filter port.TryoutFilter) (int, error) {
	query := r.builder.Select("COUNT(*)").From("tryout.tryouts")
	query = applyTryoutFilter(query, filter)

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count tryouts sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tryouts: %w", err)
	}

	return count, nil
}

func applyTryoutFilter(query squirrel.SelectBuilder, filter port.TryoutFilter) squirrel.SelectBuilder {
	if filter.ProgramID != "" {
		query = query.Where(squirrel.Eq{"program_id": filter.ProgramID})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	return query
}

var _ port.TryoutRepository = (*TryoutRepository)(nil)
