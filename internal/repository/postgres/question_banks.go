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

// QuestionBankRepository implements port.QuestionBankRepository using PostgreSQL.
type QuestionBankRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewQuestionBankRepository wires a PostgreSQL-backed question bank repository.
func NewQuestionBankRepository(pool *pgxpool.Pool) *QuestionBankRepository {
	return &QuestionBankRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new question bank row.
func (r *QuestionBankRepository) Create(ctx context.Context, bank domain.QuestionBank) error {
	stmt, args, err := r.builder.Insert("tryout.question_banks").
		Columns("id", "program_id", "title", "description", "created_at", "updated_at").
		Values(bank.ID, bank.ProgramID, bank.Title, bank.Description, bank.CreatedAt, bank.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert question bank sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert question bank: %w", err)
	}

	return nil
}

// GetByID retrieves a question bank by identifier.
func (r *QuestionBankRepository) GetByID(ctx context.Context, id string) (*domain.QuestionBank, error) {
	stmt, args, err := r.builder.
		Select("id", "program_id", "title", "description", "created_at", "updated_at").
		From("tryout.question_banks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select question bank sql: %w", err)
	}

	var bank domain.QuestionBank
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&bank.ID,
		&bank.ProgramID,
		&bank.Title,
		&bank.Description,
		&bank.CreatedAt,
		&bank.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan question bank: %w", err)
	}

	return &bank, nil
}

// Update modifies an existing question bank.
func (r *QuestionBankRepository) Update(ctx context.Context, bank domain.QuestionBank) error {
	stmt, args, err := r.builder.Update("tryout.question_banks").
		Set("title", bank.Title).
		Set("description", bank.Description).
		Set("updated_at", bank.UpdatedAt).
		Where(squirrel.Eq{"id": bank.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update question bank sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update question bank: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a question bank row.
func (r *QuestionBankRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("tryout.question_banks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete question bank sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete question bank: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns question banks with optional filtering and pagination.
func (r *QuestionBankRepository) List(ctx context.Context, filter port.QuestionBankFilter) ([]domain.QuestionBank, error) {
	query := r.builder.
		Select("id", "program_id", "title", "description", "created_at", "updated_at").
		From("tryout.question_banks").
		OrderBy("created_at DESC")

	if filter.ProgramID != "" {
		query = query.Where(squirrel.Eq{"program_id": filter.ProgramID})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list question banks sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query question banks: %w", err)
	}
	defer rows.Close()

	banks := make([]domain.QuestionBank, 0)
	for rows.Next() {
		var bank domain.QuestionBank
		if err := rows.Scan(
			&bank.ID,
			&bank.ProgramID,
			&bank.Title,
			&bank.Description,
			&bank.CreatedAt,
			&bank.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan question bank: %w", err)
		}
		banks = append(banks, bank)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question banks: %w", err)
	}

	return banks, nil
}

// Count returns the total number of question banks matching the filter.
func (r *QuestionBankRepository) Count(ctx context.Context, filter port.QuestionBankFilter) (int, error) {
	query := r.builder.Select("COUNT(*)").From("tryout.question_banks")
	if filter.ProgramID != "" {
		query = query.Where(squirrel.Eq{"program_id": filter.ProgramID})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count question banks sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count question banks: %w", err)
	}

	return count, nil
}

// CreateQuestion inserts a new question row.
func (r *QuestionBankRepository) CreateQuestion(ctx context.Context, question domain.Question) error {
	stmt, args, err := r.builder.Insert("tryout.questions").
		Columns("id", "question_bank_id", "content", "explanation", "created_at", "updated_at").
		Values(
			question.ID,
			question.QuestionBankID,
			question.Content,
			question.Explanation,
			question.CreatedAt,
			question.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert question sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	return nil
}

// ListQuestions returns all questions in a bank, oldest first.
func (r *QuestionBankRepository) ListQuestions(ctx context.Context, bankID string) ([]domain.Question, error) {
	stmt, args, err := r.builder.
		Select("id", "question_bank_id", "content", "explanation", "created_at", "updated_at").
		From("tryout.questions").
		Where(squirrel.Eq{"question_bank_id": bankID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list questions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var question domain.Question
		if err := rows.Scan(
			&question.ID,
			&question.QuestionBankID,
			&question.Content,
			&question.Explanation,
			&question.CreatedAt,
			&question.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, question)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	return questions, nil
}

// DeleteQuestion removes a question row.
func (r *QuestionBankRepository) DeleteQuestion(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("tryout.questions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete question sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CreateAnswer inserts a new answer row.
func (r *QuestionBankRepository) CreateAnswer(ctx context.Context, answer domain.Answer) error {
	stmt, args, err := r.builder.Insert("tryout.answers").
		Columns("id", "question_id", "content", "is_correct", "created_at", "updated_at").
		Values(
			answer.ID,
			answer.QuestionID,
			answer.Content,
			answer.IsCorrect,
			answer.CreatedAt,
			answer.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert answer sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}

	return nil
}

// ListAnswers returns all answers for a question, oldest first.
func (r *QuestionBankRepository) ListAnswers(ctx context.Context, questionID string) ([]domain.Answer, error) {
	stmt, args, err := r.builder.
		Select("id", "question_id", "content", "is_correct", "created_at", "updated_at").
		From("tryout.answers").
		Where(squirrel.Eq{"question_id": questionID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list answers sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	answers := make([]domain.Answer, 0)
	for rows.Next() {
		var answer domain.Answer
		if err := rows.Scan(
			&answer.ID,
			&answer.QuestionID,
			&answer.Content,
			&answer.IsCorrect,
			&answer.CreatedAt,
			&answer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, answer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}

	return answers, nil
}

var _ port.QuestionBankRepository = (*QuestionBankRepository)(nil)
