// Package email delivers rendered HTML messages over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/config"
)

// ErrRecipient is returned when the recipient address cannot be used.
var ErrRecipient = errors.New("invalid recipient")

// Sender sends mail through one SMTP relay. A Sender built from a config without SMTP_HOST is disabled:
// Send reports false and never dials.
type Sender struct {
	client   *mail.Client
	from     string
	fromName string
	logger   *zap.Logger
}

// NewSender creates a sender from the email config.
func NewSender(cfg config.EmailConfig, logger *zap.Logger) (*Sender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sender{from: cfg.FromAddress, fromName: cfg.FromName, logger: logger}
	if !cfg.SMTPEnabled() {
		logger.Warn("SMTP_HOST not set; outbound email disabled")
		return s, nil
	}
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPass),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	s.client = client
	return s, nil
}

// Enabled reports whether the sender will actually deliver.
func (s *Sender) Enabled() bool {
	return s.client != nil
}

// Send delivers one HTML message. It returns false with a nil error when delivery is disabled.
func (s *Sender) Send(ctx context.Context, to, subject, html string) (bool, error) {
	if !s.Enabled() {
		s.logger.Debug("email skipped", zap.String("to", to), zap.String("subject", subject))
		return false, nil
	}
	m, err := s.message(to, subject, html)
	if err != nil {
		return false, err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return false, fmt.Errorf("smtp send: %w", err)
	}
	return true, nil
}

func (s *Sender) message(to, subject, html string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(s.fromName, s.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRecipient, to)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextHTML, html)
	return m, nil
}
