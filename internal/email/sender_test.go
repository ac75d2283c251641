package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/aura-travel/backend/config"
)

func TestSender_DisabledWithoutHost(t *testing.T) {
	s, err := NewSender(config.EmailConfig{FromAddress: "noreply@aura.test", FromName: "Aura"}, nil)
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	sent, err := s.Send(context.Background(), "desk@sunway.test", "Offer ready", "<p>hi</p>")
	assert.NoError(t, err)
	assert.False(t, sent)
}

func TestSender_Message(t *testing.T) {
	s, err := NewSender(config.EmailConfig{FromAddress: "noreply@aura.test", FromName: "Aura Travel"}, nil)
	require.NoError(t, err)

	m, err := s.message("desk@sunway.test", "Offer ready", "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, []string{"Offer ready"}, m.GetGenHeader(mail.HeaderSubject))
	rcpts, err := m.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"desk@sunway.test"}, rcpts)

	_, err = s.message("not an address", "x", "y")
	assert.ErrorIs(t, err, ErrRecipient)
}

func TestNewSender_Enabled(t *testing.T) {
	s, err := NewSender(config.EmailConfig{
		FromAddress: "noreply@aura.test",
		SMTPHost:    "smtp.aura.test",
		SMTPPort:    587,
		SMTPUser:    "mailer",
		SMTPPass:    "secret",
	}, nil)
	require.NoError(t, err)
	assert.True(t, s.Enabled())
}
