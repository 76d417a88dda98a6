package domain

import (
	"regexp"
	"strings"
	"time"
)

// Program is a purchasable preparation course in the catalog.
type Program struct {
	ID          string
	Title       string
	Slug        string
	Description string
	Price       float64
	IsActive    bool
	Images      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsFree reports whether the program requires no payment.
func (p Program) IsFree() bool {
	return p.Price == 0
}

// Enrollment links an account to a program it signed up for.
type Enrollment struct {
	ID        string
	AccountID string
	ProgramID string
	IsActive  bool
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status derives the display status from the active flag and payment state.
func (e Enrollment) Status() string {
	if !e.IsActive {
		return "inactive"
	}
	if e.PaidAt == nil {
		return "unpaid"
	}
	return "paid"
}

var slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a program title into a URL-safe slug.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStripPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
