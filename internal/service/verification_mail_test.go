package service

import (
	"testing"

	"startupconnect/api/internal/model"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestMailerLinkAndDisabledSend(t *testing.T) {
	viper.Set("mail.enabled", false)
	viper.Set("host.domain", "startupconnect.app")
	viper.Set("host.ssl.enabled", true)
	t.Cleanup(viper.Reset)

	m := NewMailer()
	tok := &model.EmailVerificationToken{UserID: "u1", Token: "abc123"}

	assert.Equal(t, "https://startupconnect.app/verify-email?token=abc123", m.VerificationLink(tok))
	assert.NoError(t, m.SendVerification(tok, "ada@example.com"))
}
