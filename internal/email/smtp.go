package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"
)

// =============================================================================
// SMTP Mailer Implementation
// =============================================================================

const verificationHTML = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #18181b;">
<p>Hi {{.Name}},</p>
<p>Welcome to EDU! Please confirm your email address to finish creating your account.</p>
<p><a href="{{.VerifyURL}}" style="display: inline-block; padding: 10px 16px; background: #18181b; color: #fff; border-radius: 12px; text-decoration: none;">Verify email</a></p>
<p>If you didn't create an account, you can safely ignore this email.</p>
<p style="color: #71717a; font-size: 12px;">&copy; {{.Year}} EDU</p>
</body>
</html>`

var verificationTemplate = template.Must(template.New("verification").Parse(verificationHTML))

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends emails via SMTP.
//
// This implementation works with:
// - Mailhog (development): No authentication required
// - Any standard SMTP server with PLAIN auth
type SMTPMailer struct {
	config SMTPConfig
	logger *slog.Logger
	send   sendFunc
}

// NewSMTPMailer creates a new SMTP-based mailer.
//
// Example usage:
//
//	mailer := email.NewSMTPMailer(email.SMTPConfig{
//	    Host: "localhost",
//	    Port: 1025,
//	}, logger)
func NewSMTPMailer(config SMTPConfig, logger *slog.Logger) *SMTPMailer {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	return &SMTPMailer{
		config: config,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// SendVerificationEmail sends an email verification link to a new user.
func (s *SMTPMailer) SendVerificationEmail(ctx context.Context, to, name, verifyURL string) error {
	var html bytes.Buffer
	err := verificationTemplate.Execute(&html, map[string]any{
		"Name":      name,
		"VerifyURL": verifyURL,
		"Year":      time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render verification email template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

Welcome to EDU! Please confirm your email address by opening the link below:

%s

If you didn't create an account, you can safely ignore this email.
`, name, verifyURL)

	return s.deliver(ctx, Email{
		To:       to,
		Subject:  verificationSubject,
		HTMLBody: html.String(),
		TextBody: textBody,
	})
}

// =============================================================================
// Internal Methods
// =============================================================================

// deliver sends an email via SMTP. net/smtp has no context support, so ctx is
// only checked before dialing.
func (s *SMTPMailer) deliver(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(email)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Mailhog needs no auth
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := s.send(addr, auth, s.config.From, []string{email.To}, msg); err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}

// buildMessage constructs the raw multipart/alternative message.
func (s *SMTPMailer) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	const boundary = "===============EDUAUTH_BOUNDARY==============="

	fmt.Fprintf(&buf, "From: %s <%s>\r\n", s.config.FromName, s.config.From)
	fmt.Fprintf(&buf, "To: %s\r\n", email.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", email.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain", email.TextBody},
		{"text/html", email.HTMLBody},
	} {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; charset=utf-8\r\n\r\n", part.contentType)
		buf.WriteString(part.body)
		buf.WriteString("\r\n")
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
