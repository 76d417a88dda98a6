package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Accounts      *AccountRepository
	ResetTokens   *ResetTokenRepository
	Programs      *ProgramRepository
	Enrollments   *EnrollmentRepository
	QuestionBanks *QuestionBankRepository
	Tryouts       *TryoutRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Accounts:      NewAccountRepository(pool),
		ResetTokens:   NewResetTokenRepository(pool),
		Programs:      NewProgramRepository(pool),
		Enrollments:   NewEnrollmentRepository(pool),
		QuestionBanks: NewQuestionBankRepository(pool),
		Tryouts:       NewTryoutRepository(pool),
	}
}
