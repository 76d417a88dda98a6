package port

import "context"

// ResetMail carries the password-reset delivery payload.
type ResetMail struct {
	To       string
	Name     string
	RawToken string
	ResetURL string
}

// Mailer delivers transactional mail. Implementations must not log the raw token.
type Mailer interface {
	SendPasswordReset(ctx context.Context, mail ResetMail) error
}
