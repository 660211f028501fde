package service

import (
	"context"

	"go.uber.org/zap"
)

// MailMessage is a rendered email ready for delivery.
type MailMessage struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer delivers rendered mail.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// LogMailer writes outgoing mail to the structured log instead of a mail server.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, msg MailMessage) error {
	m.logger.Info("mail sent",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)))
	m.logger.Debug("mail body", zap.String("to", msg.To), zap.String("body", msg.Body))
	return nil
}
