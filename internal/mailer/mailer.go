// Package mailer delivers plain-text emails for verification links, password
// resets, group invitations and member notifications.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/fkhayef/splitbuddy/internal/config"
)

// Message is a single outgoing email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the SMTP sender when a host is configured and the log-only sender otherwise
func New(cfg config.SMTPConfig, logger *slog.Logger) (Sender, error) {
	if cfg.Host == "" {
		logger.Warn("SMTP_HOST not set, emails will only be logged")
		return &LogSender{Logger: logger}, nil
	}

	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("SMTP from address %q couldn't be parsed: %w", cfg.From, err)
	}

	sender := &SMTPSender{
		From:          *from,
		ServerAddress: net.JoinHostPort(cfg.Host, cfg.Port),
	}
	if cfg.Username != "" {
		sender.Auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return sender, nil
}

// SMTPSender sends mail through an SMTP relay. STARTTLS is used when the server offers it.
type SMTPSender struct {
	From          mail.Address
	Auth          smtp.Auth
	ServerAddress string
}

// Send delivers msg. The context is checked before dialing; net/smtp has no
// cancellation of its own.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}

	body := compose(s.From, *to, msg, time.Now())
	if err := smtp.SendMail(s.ServerAddress, s.Auth, s.From.Address, []string{to.Address}, body); err != nil {
		return fmt.Errorf("send mail to %s: %w", to.Address, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them
type LogSender struct {
	Logger *slog.Logger
}

// Send logs msg
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.InfoContext(ctx, "email not sent (no SMTP configured)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

func compose(from, to mail.Address, msg Message, date time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return b.Bytes()
}

// sanitizeHeader drops line breaks so a subject can't inject headers
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
