// Package email sends the transactional mail that the development auth
// gateway stands in for.
//
// Implementations:
// - SMTPMailer: any SMTP server (Mailhog in development)
// - LogMailer: writes the message to the log instead of sending it
package email

import (
	"context"
	"log/slog"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Mailer sends transactional emails.
type Mailer interface {
	// SendVerificationEmail sends the link that confirms a new account's
	// address.
	// Parameters:
	// - to: Recipient email address
	// - name: Recipient's name for personalization
	// - verifyURL: Absolute URL the recipient opens to verify
	SendVerificationEmail(ctx context.Context, to, name, verifyURL string) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string
	FromName string
}

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "noreply@eduauth.local"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "EDU"

	verificationSubject = "Verify your EDU account"
)

// =============================================================================
// Log Mailer
// =============================================================================

// LogMailer logs messages instead of sending them. It is the default when no
// SMTP server is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendVerificationEmail logs the verification link.
func (m *LogMailer) SendVerificationEmail(ctx context.Context, to, name, verifyURL string) error {
	m.logger.Info("verification email (not sent)",
		"to", to,
		"subject", verificationSubject,
		"verify_url", verifyURL,
	)
	return nil
}

var (
	_ Mailer = (*LogMailer)(nil)
	_ Mailer = (*SMTPMailer)(nil)
)
