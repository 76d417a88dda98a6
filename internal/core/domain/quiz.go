package domain

import "time"

// QuestionBank groups questions under a program.
type QuestionBank struct {
	ID          string
	ProgramID   string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Question is a single quiz item within a bank.
type Question struct {
	ID             string
	QuestionBankID string
	Content        string
	Explanation    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Answer is an option for a question; exactly one per question should be correct.
type Answer struct {
	ID         string
	QuestionID string
	Content    string
	IsCorrect  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Tryout is a timed exam instance built from a question bank.
type Tryout struct {
	ID              string
	ProgramID       string
	QuestionBankID  string
	Title           string
	DurationMinutes int
	StartsAt        *time.Time
	EndsAt          *time.Time
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OpenAt reports whether the tryout accepts participants at the given time.
func (t Tryout) OpenAt(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.StartsAt != nil && now.Before(*t.StartsAt) {
		return false
	}
	if t.EndsAt != nil && now.After(*t.EndsAt) {
		return false
	}
	return true
}
