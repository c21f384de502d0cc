// Package mailer delivers transactional email. Delivery is best-effort from
// the caller's point of view: failures are logged and retried on a fallback
// channel, never surfaced to the requester.
package mailer

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Mailer sends a single message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// FallbackMailer tries a primary channel and falls back to a secondary one
// before declaring failure.
type FallbackMailer struct {
	primary   Mailer
	secondary Mailer
}

// NewFallbackMailer wires the two channels. Either may be nil.
func NewFallbackMailer(primary, secondary Mailer) *FallbackMailer {
	return &FallbackMailer{primary: primary, secondary: secondary}
}

func (m *FallbackMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if m.primary != nil {
		err := m.primary.Send(ctx, to, subject, htmlBody, textBody)
		if err == nil {
			return nil
		}
		logrus.WithFields(logrus.Fields{
			"to":    to,
			"error": err,
		}).Warn("primary email channel failed, trying fallback")
	}

	if m.secondary != nil {
		return m.secondary.Send(ctx, to, subject, htmlBody, textBody)
	}

	if m.primary == nil {
		logrus.WithField("to", to).Warn("no email channel configured, dropping message")
		return nil
	}
	return errNoFallback
}

var errNoFallback = errors.New("primary email channel failed and no fallback is configured")
