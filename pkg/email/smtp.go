package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// SMTPConfig holds the mail-provider account used for every send.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	SSL      bool
}

// SMTPMailer sends mail through an authenticated SMTP relay. The dialer is
// built once and shared by all requests; gomail opens a fresh connection per
// DialAndSend, so no locking is required.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	cfg      SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{
		dialer:   d,
		from:     from,
		fromName: cfg.FromName,
		cfg:      cfg,
	}
}

// Send returns when the relay accepts the message or ctx is done, whichever
// comes first. gomail has no context support, so an abandoned send keeps
// running in the background until the relay answers.
func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.buildMessage(msg)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", msg.To, ctx.Err())
	}
}

// buildMessage sends plain text with an HTML alternative when both are set.
func (s *SMTPMailer) buildMessage(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	if s.fromName != "" {
		m.SetAddressHeader("From", s.from, s.fromName)
	} else {
		m.SetHeader("From", s.from)
	}
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/html", msg.HTML)
	}
	return m
}

// IsConfigured checks if the mailer has valid SMTP configuration
func (s *SMTPMailer) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != ""
}

// Close is a no-op; connections are per send.
func (s *SMTPMailer) Close() error {
	return nil
}
