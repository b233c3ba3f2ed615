package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/hrcore/accounts/config"
	"github.com/hrcore/accounts/pkg/circuit"
	"github.com/hrcore/accounts/pkg/logger"
	"go.uber.org/zap"
)

// Mailer dispatches a rendered template to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, templateName string, fields Fields) error
}

// SMTPMailer delivers mail over a plain SMTP relay. Dispatch runs behind a
// circuit breaker so a dead relay fails fast instead of stalling login and
// registration flows on SMTP timeouts.
type SMTPMailer struct {
	cfg     config.SMTPConfig
	breaker *circuit.Breaker
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:     cfg,
		breaker: circuit.NewBreaker("smtp", circuit.DefaultConfig(), logger.GetLogger()),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, templateName string, fields Fields) error {
	subject, body, err := Render(templateName, fields)
	if err != nil {
		return err
	}

	start := time.Now()
	err = m.breaker.Execute(func() error {
		return m.dispatch(to, subject, body)
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to send mail").
			String("template", templateName).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return fmt.Errorf("failed to send mail: %w", err)
	}

	logger.InfoWithContext(ctx, "Mail sent").
		String("template", templateName).
		Duration(time.Since(start)).
		Log()

	return nil
}

func (m *SMTPMailer) dispatch(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String()))
}

// NopMailer renders templates but sends nothing. Used in development
// environments without an SMTP relay.
type NopMailer struct{}

func (NopMailer) Send(ctx context.Context, to, templateName string, fields Fields) error {
	subject, _, err := Render(templateName, fields)
	if err != nil {
		return err
	}
	logger.GetLogger().Info("Mail suppressed (no SMTP relay configured)",
		zap.String("template", templateName),
		zap.String("subject", subject),
	)
	return nil
}
