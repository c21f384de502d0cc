package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

// SMTPMailer delivers email over plain SMTP. Used as the fallback channel.
type SMTPMailer struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

// NewSMTPMailer creates an SMTP mailer. Returns nil when no host is
// configured.
func NewSMTPMailer(host string, port int, username, password, fromEmail string) *SMTPMailer {
	if host == "" {
		return nil
	}
	return &SMTPMailer{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.fromEmail)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	if textBody != "" {
		msg.SetBody("text/plain", textBody)
		msg.AddAlternative("text/html", htmlBody)
	} else {
		msg.SetBody("text/html", htmlBody)
	}

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	logrus.WithField("to", to).Info("email sent via smtp")
	return nil
}
