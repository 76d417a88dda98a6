package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/infra/config"
	"github.com/edukita/tryout-platform/internal/infra/logger"
)

const resetSubject = "Reset your password"

var resetTemplate = template.Must(template.New("reset").Parse(
	`Hi {{.Name}},

We received a request to reset the password for your account.
Open the link below to choose a new password. The link expires in one hour.

{{.ResetURL}}?token={{.RawToken}}

If you did not request a reset you can ignore this message.
`))

// SMTPMailer delivers password reset mail over SMTP.
type SMTPMailer struct {
	client *gomail.Client
	from   string
	logger *zap.Logger
}

// NewSMTPMailer builds a mail client from the configured SMTP settings.
func NewSMTPMailer(cfg config.MailSettings, log *zap.Logger) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From, logger: log}, nil
}

// SendPasswordReset renders and delivers the reset link email.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, mail port.ResetMail) error {
	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, mail); err != nil {
		return fmt.Errorf("render reset mail: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(mail.To); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(resetSubject)
	msg.SetBodyString(gomail.TypeTextPlain, body.String())

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	m.logger.Info("password reset mail sent",
		zap.String("to", logger.MaskEmail(mail.To)),
	)
	return nil
}

var _ port.Mailer = (*SMTPMailer)(nil)

// LogMailer logs reset requests instead of sending mail. Used when no SMTP
// host is configured, typically in development.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

// SendPasswordReset logs the delivery without the raw token value.
func (m *LogMailer) SendPasswordReset(_ context.Context, mail port.ResetMail) error {
	m.logger.Info("password reset mail (log only)",
		zap.String("to", logger.MaskEmail(mail.To)),
		zap.String("token", logger.MaskString(mail.RawToken)),
		zap.String("reset_url", mail.ResetURL),
	)
	return nil
}

var _ port.Mailer = (*LogMailer)(nil)
