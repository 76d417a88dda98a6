package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/repository"
)

var accountColumns = []string{
	"id",
	"name",
	"username",
	"email",
	"university",
	"phone",
	"role",
	"password_hash",
	"profile_image",
	"is_active",
	"device_id",
	"device_name",
	"last_login_at",
	"last_login_ip",
	"last_user_agent",
	"created_at",
	"updated_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	if tx == nil {
		return r
	}
	return &AccountRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new account row.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	query := r.builder.Insert("tryout.accounts").
		Columns(accountColumns...).
		Values(
			account.ID,
			account.Name,
			account.Username,
			account.Email,
			account.University,
			account.Phone,
			account.Role,
			account.PasswordHash,
			account.ProfileImage,
			account.IsActive,
			account.DeviceID,
			account.DeviceName,
			account.LastLoginAt,
			account.LastLoginIP,
			account.LastUserAgent,
			account.CreatedAt,
			account.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves an account by email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email})
}

// GetByUsername retrieves an account by username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getBy(ctx, squirrel.Eq{"username": username})
}

func (r *AccountRepository) getBy(ctx context.Context, pred squirrel.Eq) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("tryout.accounts").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return account, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account       domain.Account
		profileImage  sql.NullString
		deviceID      sql.NullString
		deviceName    sql.NullString
		lastLoginAt   sql.NullTime
		lastLoginIP   sql.NullString
		lastUserAgent sql.NullString
	)

	if err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Username,
		&account.Email,
		&account.University,
		&account.Phone,
		&account.Role,
		&account.PasswordHash,
		&profileImage,
		&account.IsActive,
		&deviceID,
		&deviceName,
		&lastLoginAt,
		&lastLoginIP,
		&lastUserAgent,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if profileImage.Valid {
		val := profileImage.String
		account.ProfileImage = &val
	}
	if deviceID.Valid {
		val := deviceID.String
		account.DeviceID = &val
	}
	if deviceName.Valid {
		val := deviceName.String
		account.DeviceName = &val
	}
	if lastLoginAt.Valid {
		val := lastLoginAt.Time
		account.LastLoginAt = &val
	}
	if lastLoginIP.Valid {
		val := lastLoginIP.String
		account.LastLoginIP = &val
	}
	if lastUserAgent.Valid {
		val := lastUserAgent.String
		account.LastUserAgent = &val
	}

	return &account, nil
}

// UpdateProfile modifies an account's mutable profile fields.
func (r *AccountRepository) UpdateProfile(ctx context.Context, account domain.Account) error {
	stmt, args, err := r.builder.Update("tryout.accounts").
		Set("name", account.Name).
		Set("university", account.University).
		Set("phone", account.Phone).
		Set("profile_image", account.ProfileImage).
		Set("is_active", account.IsActive).
		Set("updated_at", account.UpdatedAt).
		Where(squirrel.Eq{"id": account.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update account sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	stmt, args, err := r.builder.Update("tryout.accounts").
		Set("password_hash", passwordHash).
		Set("updated_at", changedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// BindDevice writes the whole device field group in one statement.
func (r *AccountRepository) BindDevice(ctx context.Context, id string, binding domain.DeviceBinding) error {
	stmt, args, err := r.builder.Update("tryout.accounts").
		Set("device_id", binding.DeviceID).
		Set("device_name", binding.DeviceName).
		Set("last_login_at", binding.LastLoginAt).
		Set("last_login_ip", binding.LastLoginIP).
		Set("last_user_agent", binding.UserAgent).
		Set("updated_at", binding.LastLoginAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build bind device sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("bind device: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ClearDevice nulls the whole device field group in one statement.
func (r *AccountRepository) ClearDevice(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("tryout.accounts").
		Set("device_id", nil).
		Set("device_name", nil).
		Set("last_login_at", nil).
		Set("last_login_ip", nil).
		Set("last_user_agent", nil).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear device sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("clear device: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns accounts with optional filtering and pagination.
func (r *AccountRepository) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	query := r.builder.Select(accountColumns...).
		From("tryout.accounts").
		OrderBy("created_at DESC")

	query = applyAccountFilter(query, filter)

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list accounts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// Count returns the total number of accounts matching the filter.
func (r *AccountRepository) Count(ctx context.Context, filter port.AccountFilter) (int, error) {
	query := r.builder.Select("COUNT(*)").From("tryout.accounts")
	query = applyAccountFilter(query, filter)

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count accounts sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}

	return count, nil
}

func applyAccountFilter(query squirrel.SelectBuilder, filter port.AccountFilter) squirrel.SelectBuilder {
	if filter.Role != "" {
		query = query.Where(squirrel.Eq{"role": filter.Role})
	}
	if filter.University != "" {
		query = query.Where(squirrel.Eq{"university": filter.University})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	return query
}

// ClearDevicesInactiveSince releases bindings whose last login predates the
// cutoff and reports how many rows changed.
func (r *AccountRepository) ClearDevicesInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	stmt, args, err := r.builder.Update("tryout.accounts").
		Set("device_id", nil).
		Set("device_name", nil).
		Set("last_login_at", nil).
		Set("last_login_ip", nil).
		Set("last_user_agent", nil).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.NotEq{"device_id": nil}).
		Where(squirrel.Lt{"last_login_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build device sweep sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep inactive devices: %w", err)
	}

	return ct.RowsAffected(), nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
