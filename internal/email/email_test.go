package email

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
)

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newCapturingMailer(cfg SMTPConfig, sendErr error) (*SMTPMailer, *[]capturedMail) {
	var sent []capturedMail
	m := NewSMTPMailer(cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, capturedMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
		return sendErr
	}
	return m, &sent
}

func TestSMTPMailer_SendVerificationEmail(t *testing.T) {
	m, sent := newCapturingMailer(SMTPConfig{Host: "localhost", Port: 1025}, nil)

	err := m.SendVerificationEmail(context.Background(), "ada@example.com", "Ada", "http://localhost:8080/dev/verify-email?email=ada%40example.com")
	if err != nil {
		t.Fatalf("SendVerificationEmail() error = %v", err)
	}

	if len(*sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(*sent))
	}
	got := (*sent)[0]
	if got.addr != "localhost:1025" {
		t.Errorf("addr = %q, want localhost:1025", got.addr)
	}
	if got.auth != nil {
		t.Error("expected no auth without credentials")
	}
	if got.from != DefaultFromEmail {
		t.Errorf("from = %q, want %q", got.from, DefaultFromEmail)
	}
	for _, want := range []string{
		"From: EDU <noreply@eduauth.local>",
		"To: ada@example.com",
		"Subject: Verify your EDU account",
		"multipart/alternative",
		"Content-Type: text/plain",
		"Content-Type: text/html",
		"Hi Ada,",
		"dev/verify-email?email=ada%40example.com",
	} {
		if !strings.Contains(got.msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSMTPMailer_EscapesName(t *testing.T) {
	m, sent := newCapturingMailer(SMTPConfig{Host: "localhost", Port: 1025}, nil)

	_ = m.SendVerificationEmail(context.Background(), "x@example.com", "<script>", "http://localhost/verify")

	msg := (*sent)[0].msg
	html := msg[strings.Index(msg, "Content-Type: text/html"):]
	if strings.Contains(html, "<script>") {
		t.Error("HTML part should escape the recipient name")
	}
}

func TestSMTPMailer_UsesAuthWhenConfigured(t *testing.T) {
	m, sent := newCapturingMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p"}, nil)

	_ = m.SendVerificationEmail(context.Background(), "x@example.com", "X", "http://localhost/verify")

	if (*sent)[0].auth == nil {
		t.Error("expected PLAIN auth with credentials")
	}
}

func TestSMTPMailer_SendError(t *testing.T) {
	m, _ := newCapturingMailer(SMTPConfig{Host: "localhost", Port: 1025}, errors.New("connection refused"))

	err := m.SendVerificationEmail(context.Background(), "x@example.com", "X", "http://localhost/verify")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error = %v, want wrapped send error", err)
	}
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	m, sent := newCapturingMailer(SMTPConfig{Host: "localhost", Port: 1025}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.SendVerificationEmail(ctx, "x@example.com", "X", "http://localhost/verify"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(*sent) != 0 {
		t.Error("nothing should be sent after cancellation")
	}
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := m.SendVerificationEmail(context.Background(), "ada@example.com", "Ada", "http://localhost/verify?x=1"); err != nil {
		t.Fatalf("SendVerificationEmail() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "ada@example.com") || !strings.Contains(out, "http://localhost/verify?x=1") {
		t.Errorf("log output missing recipient or link: %s", out)
	}
}
