package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/service"
)

// Consumer drains queued events until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context)
}

// StartNotificationWorker registers notification handlers and, when a queue
// consumer is given, runs it in the background. The returned channel closes
// once the consumer has stopped.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, consumer Consumer, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if consumer == nil {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	go func() {
		defer close(done)
		logger.Info("notification worker started")
		consumer.Consume(ctx)
		logger.Info("notification worker stopped")
	}()
	return done
}
