package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// ResendMailer delivers email through the Resend API.
type ResendMailer struct {
	client    *resend.Client
	fromName  string
	fromEmail string
}

// NewResendMailer creates a Resend-backed mailer. Returns nil when no API
// key is configured so the fallback channel takes over.
func NewResendMailer(apiKey, fromName, fromEmail string) *ResendMailer {
	if apiKey == "" {
		return nil
	}
	return &ResendMailer{
		client:    resend.NewClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (m *ResendMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}
	if textBody != "" {
		params.Text = textBody
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"to":       to,
		"email_id": sent.Id,
	}).Info("email sent via resend")
	return nil
}
