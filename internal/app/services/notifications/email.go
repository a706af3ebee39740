package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Integral-ind/integral-backend/internal/config"
)

// EmailSender delivers one rendered email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPEmailSender sends mail through a plain SMTP relay.
type SMTPEmailSender struct {
	cfg config.SMTPConfig
}

// NewSMTPEmailSender creates a sender from SMTP settings.
func NewSMTPEmailSender(cfg config.SMTPConfig) *SMTPEmailSender {
	return &SMTPEmailSender{cfg: cfg}
}

func (s *SMTPEmailSender) Send(_ context.Context, to, subject, body string) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
