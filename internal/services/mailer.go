package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/getdone/api/internal/config"
)

// Mailer sends transactional email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(to, subject, plainText, htmlContent string) error
}

// NewMailer picks an implementation from configuration: SendGrid when an
// API key is set, otherwise a logger that only records what would be sent.
func NewMailer(cfg config.EmailConfig, log *logrus.Logger) Mailer {
	if cfg.SendGridKey != "" {
		return &SendGridMailer{Key: cfg.SendGridKey, From: cfg.From, Log: log}
	}
	log.Warn("SENDGRID_API_KEY not set, email delivery disabled")
	return &LogMailer{Log: log}
}

// SendGridMailer delivers mail through the SendGrid API.
type SendGridMailer struct {
	Key  string
	From string
	Log  *logrus.Logger
}

func (m *SendGridMailer) Send(to, subject, plainText, htmlContent string) error {
	from := mail.NewEmail("GetDone", m.From)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	client := sendgrid.NewSendClient(m.Key)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	m.Log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("email sent")
	return nil
}

// LogMailer records outgoing mail without delivering it. Used when no
// provider is configured.
type LogMailer struct {
	Log *logrus.Logger
}

func (m *LogMailer) Send(to, subject, plainText, htmlContent string) error {
	m.Log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("email suppressed (no provider configured)")
	return nil
}
