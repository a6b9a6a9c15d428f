package service

import (
	"errors"
	"fmt"
	"net/url"

	"startupconnect/api/internal/model"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// MailSender delivers verification links
type MailSender interface {
	SendVerification(t *model.EmailVerificationToken, sendTo string) error
}

// Mailer sends verification mail over SMTP. With mail disabled the link is
// only logged, which is what local development runs with.
type Mailer struct {
	enabled bool
	from    string
	dialer  *gomail.Dialer
	baseURL string
}

func NewMailer() *Mailer {
	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	from := viper.GetString("mail.sender_address")

	return &Mailer{
		enabled: viper.GetBool("mail.enabled"),
		from:    from,
		dialer:  gomail.NewDialer(viper.GetString("mail.host"), viper.GetInt("mail.port"), from, viper.GetString("mail.password")),
		baseURL: fmt.Sprintf("%s://%s", scheme, viper.GetString("host.domain")),
	}
}

// VerificationLink builds the frontend link carrying the token
func (m *Mailer) VerificationLink(t *model.EmailVerificationToken) string {
	return m.baseURL + "/verify-email?token=" + url.QueryEscape(t.Token)
}

func (m *Mailer) SendVerification(t *model.EmailVerificationToken, sendTo string) error {
	link := m.VerificationLink(t)

	if !m.enabled {
		zap.L().Info("Mail disabled, verification link not sent",
			zap.String("user_id", t.UserID),
			zap.String("link", link),
		)
		return nil
	}

	if sendTo == m.from {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", sendTo)
	msg.SetHeader("Subject", "Verify your email to start using StartupConnect")
	msg.SetBody("text/html", fmt.Sprintf("Click <a href='%v'>here</a> to verify your account.\n\nThis link will expire in 24 hours", link))

	return m.dialer.DialAndSend(msg)
}
