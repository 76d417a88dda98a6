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

var programColumns = []string{
	"id",
	"title",
	"slug",
	"description",
	"price",
	"is_active",
	"images",
	"created_at",
	"updated_at",
}

// ProgramRepository implements port.ProgramRepository using PostgreSQL.
type ProgramRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewProgramRepository wires a PostgreSQL-backed program repository.
func NewProgramRepository(pool *pgxpool.Pool) *ProgramRepository {
	return &ProgramRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new program row.
func (r *ProgramRepository) Create(ctx context.Context, program domain.Program) error {
	stmt, args, err := r.builder.Insert("tryout.programs").
		Columns(programColumns...).
		Values(
			program.ID,
			program.Title,
			program.Slug,
			program.Description,
			program.Price,
			program.IsActive,
			program.Images,
			program.CreatedAt,
			program.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert program sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert program: %w", err)
	}

	return nil
}

// GetByID retrieves a program by identifier.
func (r *ProgramRepository) GetByID(ctx context.Context, id string) (*domain.Program, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetBySlug retrieves a program by its URL slug.
func (r *ProgramRepository) GetBySlug(ctx context.Context, slug string) (*domain.Program, error) {
	return r.getBy(ctx, squirrel.Eq{"slug": slug})
}

func (r *ProgramRepository) getBy(ctx context.Context, pred squirrel.Eq) (*domain.Program, error) {
	stmt, args, err := r.builder.
		Select(programColumns...).
		From("tryout.programs").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select program sql: %w", err)
	}

	var program domain.Program
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&program.ID,
		&program.Title,
		&program.Slug,
		&program.Description,
		&program.Price,
		&program.IsActive,
		&program.Images,
		&program.CreatedAt,
		&program.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan program: %w", err)
	}

	return &program, nil
}

// SlugExists reports whether another program already uses the slug.
func (r *ProgramRepository) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	query := r.builder.Select("COUNT(*)").
		From("tryout.programs").
		Where(squirrel.Eq{"slug": slug})

	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"id": excludeID})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("build slug exists sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count slug: %w", err)
	}

	return count > 0, nil
}

// Update modifies an existing program.
func (r *ProgramRepository) Update(ctx context.Context, program domain.Program) error {
	stmt, args, err := r.builder.Update("tryout.programs").
		Set("title", program.Title).
		Set("slug", program.Slug).
		Set("description", program.Description).
		Set("price", program.Price).
		Set("is_active", program.IsActive).
		Set("images", program.Images).
		Set("updated_at", program.UpdatedAt).
		Where(squirrel.Eq{"id": program.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update program sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update program: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a program row.
func (r *ProgramRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("tryout.programs").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete program sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns programs with optional filtering and pagination.
func (r *ProgramRepository) List(ctx context.Context, filter port.ProgramFilter) ([]domain.Program, error) {
	query := r.builder.Select(programColumns...).
		From("tryout.programs").
		OrderBy("created_at DESC")

	query = applyProgramFilter(query, filter)

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list programs sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	programs := make([]domain.Program, 0)
	for rows.Next() {
		var program domain.Program
		if err := rows.Scan(
			&program.ID,
			&program.Title,
			&program.Slug,
			&program.Description,
			&program.Price,
			&program.IsActive,
			&program.Images,
			&program.CreatedAt,
			&program.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, program)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}

	return programs, nil
}

// Count returns the total number of programs matching the filter.
func (r *ProgramRepository) Count(ctx context.Context, filter port.ProgramFilter) (int, error) {
	query := r.builder.Select("COUNT(*)").From("tryout.programs")
	query = applyProgramFilter(query, filter)

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count programs sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count programs: %w", err)
	}

	return count, nil
}

func applyProgramFilter(query squirrel.SelectBuilder, filter port.ProgramFilter) squirrel.SelectBuilder {
	if filter.Search != "" {
		query = query.Where(squirrel.ILike{"title": "%" + filter.Search + "%"})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	return query
}

var _ port.ProgramRepository = (*ProgramRepository)(nil)
