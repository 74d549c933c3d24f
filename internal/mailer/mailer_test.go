package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitbuddy/internal/config"
)

func TestNewWithoutHostLogsOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	sender, err := New(config.SMTPConfig{}, logger)
	require.NoError(t, err)
	require.IsType(t, &LogSender{}, sender)

	require.NoError(t, sender.Send(context.Background(), Message{To: "a@example.com", Subject: "hi", Body: "hello"}))
	assert.Contains(t, buf.String(), "to=a@example.com")
}

func TestNewSMTP(t *testing.T) {
	sender, err := New(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "user",
		Password: "pass",
		From:     "SplitBuddy <no-reply@example.com>",
	}, slog.Default())
	require.NoError(t, err)

	s, ok := sender.(*SMTPSender)
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com:587", s.ServerAddress)
	assert.Equal(t, "no-reply@example.com", s.From.Address)
	assert.NotNil(t, s.Auth)
}

func TestNewRejectsBadFrom(t *testing.T) {
	_, err := New(config.SMTPConfig{Host: "smtp.example.com", From: "not an address"}, slog.Default())
	assert.Error(t, err)
}

func TestCompose(t *testing.T) {
	from := mail.Address{Name: "SplitBuddy", Address: "no-reply@example.com"}
	to := mail.Address{Address: "a@example.com"}
	date := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	out := string(compose(from, to, Message{Subject: "Hi\r\nBcc: x@evil.com", Body: "line1\nline2"}, date))
	assert.Contains(t, out, "Subject: Hi  Bcc: x@evil.com\r\n")
	assert.Contains(t, out, "To: <a@example.com>\r\n")
	assert.Contains(t, out, "\r\n\r\nline1\r\nline2")
}

func TestSMTPSenderHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (&SMTPSender{ServerAddress: "127.0.0.1:1"}).Send(ctx, Message{To: "a@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}
