package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/ayursutra/booking-api/internal/config"
	"github.com/ayursutra/booking-api/pkg/logger"
)

// Sender delivers transactional mail. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

// NewSMTPSender builds a Sender over a plain SMTP dialer.
func NewSMTPSender(cfg config.SMTPConfig, log *logger.Logger) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		logger: log,
	}
}

func (s *smtpSender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	// gomail has no context support; honour cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	s.logger.Debug("email sent", "to", to, "subject", subject)
	return nil
}

// NoopSender discards mail. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) Send(context.Context, string, string, string) error { return nil }
