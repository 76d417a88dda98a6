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

var enrollmentColumns = []string{
	"id",
	"account_id",
	"program_id",
	"is_active",
	"paid_at",
	"created_at",
	"updated_at",
}

// EnrollmentRepository implements port.EnrollmentRepository using PostgreSQL.
type EnrollmentRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewEnrollmentRepository wires a PostgreSQL-backed enrollment repository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new enrollment row.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment domain.Enrollment) error {
	stmt, args, err := r.builder.Insert("tryout.enrollments").
		Columns(enrollmentColumns...).
		Values(
			enrollment.ID,
			enrollment.AccountID,
			enrollment.ProgramID,
			enrollment.IsActive,
			enrollment.PaidAt,
			enrollment.CreatedAt,
			enrollment.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert enrollment sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}

	return nil
}

// GetByID retrieves an enrollment by identifier.
func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByAccountAndProgram retrieves the enrollment linking an account to a program.
func (r *EnrollmentRepository) GetByAccountAndProgram(ctx context.Context, accountID, programID string) (*domain.Enrollment, error) {
	return r.getBy(ctx, squirrel.Eq{"account_id": accountID, "program_id": programID})
}

func (r *EnrollmentRepository) getBy(ctx context.Context, pred squirrel.Eq) (*domain.Enrollment, error) {
	stmt, args, err := r.builder.
		Select(enrollmentColumns...).
		From("tryout.enrollments").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select enrollment sql: %w", err)
	}

	enrollment, err := scanEnrollment(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan enrollment: %w", err)
	}

	return enrollment, nil
}

func scanEnrollment(row pgx.Row) (*domain.Enrollment, error) {
	var (
		enrollment domain.Enrollment
		paidAt     sql.NullTime
	)

	if err := row.Scan(
		&enrollment.ID,
		&enrollment.AccountID,
		&enrollment.ProgramID,
		&enrollment.IsActive,
		&paidAt,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if paidAt.Valid {
		val := paidAt.Time
		enrollment.PaidAt = &val
	}

	return &enrollment, nil
}

// Update modifies an existing enrollment.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment domain.Enrollment) error {
	stmt, args, err := r.builder.Update("tryout.enrollments").
		Set("is_active", enrollment.IsActive).
		Set("paid_at", enrollment.PaidAt).
		Set("updated_at", enrollment.UpdatedAt).
		Where(squirrel.Eq{"id": enrollment.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update enrollment sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes an enrollment row.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("tryout.enrollments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete enrollment sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns enrollments with optional filtering and pagination.
func (r *EnrollmentRepository) List(ctx context.Context, filter port.EnrollmentFilter) ([]domain.Enrollment, error) {
	query := r.builder.Select(enrollmentColumns...).
		From("tryout.enrollments").
		OrderBy("created_at DESC")

	query = applyEnrollmentFilter(query, filter)

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list enrollments sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]domain.Enrollment, 0)
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, *enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	return enrollments, nil
}

// Count returns the total number of enrollments matching the filter.
func (r *EnrollmentRepository) Count(ctx context.Context, filter port.EnrollmentFilter) (int, error) {
	query := r.builder.Select("COUNT(*)").From("tryout.enrollments")
	query = applyEnrollmentFilter(query, filter)

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count enrollments sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}

	return count, nil
}

func applyEnrollmentFilter(query squirrel.SelectBuilder, filter port.EnrollmentFilter) squirrel.SelectBuilder {
	if filter.AccountID != "" {
		query = query.Where(squirrel.Eq{"account_id": filter.AccountID})
	}
	if filter.ProgramID != "" {
		query = query.Where(squirrel.Eq{"program_id": filter.ProgramID})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	return query
}

var _ port.EnrollmentRepository = (*EnrollmentRepository)(nil)
