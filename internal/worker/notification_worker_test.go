package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/service"
)

type countingMailer struct {
	sent chan service.MailMessage
}

func (m *countingMailer) Send(_ context.Context, msg service.MailMessage) error {
	m.sent <- msg
	return nil
}

func TestStartNotificationWorker_DeliversQueuedMail(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dispatcher := events.NewRedisDispatcher(client, "account:mail:worker", zap.NewNop())
	mailer := &countingMailer{sent: make(chan service.MailMessage, 1)}
	notifications := service.NewNotificationService(dispatcher, mailer, zap.NewNop(), config.NotificationConfig{EmailFrom: "noreply@x.io"})

	ctx, cancel := context.WithCancel(context.Background())
	done := StartNotificationWorker(ctx, notifications, dispatcher, zap.NewNop())

	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventAccountCreated, "u-1", "jane@example.com", time.Now())))

	select {
	case msg := <-mailer.sent:
		assert.Equal(t, "jane@example.com", msg.To)
	case <-time.After(5 * time.Second):
		t.Fatal("mail was not delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStartNotificationWorker_WithoutConsumer(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	mailer := &countingMailer{sent: make(chan service.MailMessage, 1)}
	notifications := service.NewNotificationService(dispatcher, mailer, nil, config.NotificationConfig{})

	done := StartNotificationWorker(context.Background(), notifications, nil, nil)
	<-done

	require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventPasswordResetCompleted, "u-1", "jane@example.com", time.Now())))
	assert.Len(t, mailer.sent, 1)
}
