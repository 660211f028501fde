package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
)

type mailTemplate struct {
	subject string
	body    *template.Template
}

var mailTemplates = map[events.EventType]mailTemplate{
	events.EventAccountCreated: {
		subject: "Welcome! Confirm your account",
		body: template.Must(template.New("account_created").Parse(
			"Hello,\n\nAn account was created for {{.Email}}.\n" +
				"If this was not you, please contact support.\n")),
	},
	events.EventPasswordResetRequested: {
		subject: "Reset your password",
		body: template.Must(template.New("password_reset_requested").Parse(
			"You are receiving this because you (or someone else) have requested the reset of the password for your account.\n\n" +
				"Please click on the following link, or paste this into your browser to complete the process:\n\n" +
				"{{.ResetURL}}\n\n" +
				"If you did not request this, please ignore this email and your password will remain unchanged.\n")),
	},
	events.EventPasswordResetCompleted: {
		subject: "Your password has been changed",
		body: template.Must(template.New("password_reset_completed").Parse(
			"Hello,\n\nThis is a confirmation that the password for your account {{.Email}} has just been changed.\n")),
	},
}

type mailData struct {
	Email    string
	ResetURL string
}

// NotificationService turns account events into mail.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     Mailer
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer Mailer, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccountCreated, n.handle)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handle)
	n.dispatcher.Subscribe(events.EventPasswordResetCompleted, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	msg, err := n.Render(event)
	if err != nil {
		return err
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s mail: %w", event.Type, err)
	}
	n.logger.Debug("notification delivered",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
	return nil
}

// Render builds the mail for an event.
func (n *NotificationService) Render(event events.Event) (MailMessage, error) {
	tmpl, ok := mailTemplates[event.Type]
	if !ok {
		return MailMessage{}, fmt.Errorf("no mail template for %q", event.Type)
	}
	if strings.TrimSpace(event.Email) == "" {
		return MailMessage{}, fmt.Errorf("%s event %s has no recipient", event.Type, event.ID)
	}

	data := mailData{Email: event.Email}
	if event.Token != "" {
		data.ResetURL = n.cfg.ResetURLBase + event.Token
	}

	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, data); err != nil {
		return MailMessage{}, fmt.Errorf("render %s mail: %w", event.Type, err)
	}
	return MailMessage{
		From:    n.cfg.EmailFrom,
		To:      event.Email,
		Subject: tmpl.subject,
		Body:    body.String(),
	}, nil
}
