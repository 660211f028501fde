package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultPopTimeout = 5 * time.Second

// RedisDispatcher queues events on a Redis list. Publish only enqueues; a
// worker calling Consume drains the list and runs the subscribed handlers.
type RedisDispatcher struct {
	handlerRegistry
	client     *redis.Client
	key        string
	logger     *zap.Logger
	popTimeout time.Duration
}

// NewRedisDispatcher creates a dispatcher writing to the given list key.
func NewRedisDispatcher(client *redis.Client, key string, logger *zap.Logger) *RedisDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisDispatcher{
		handlerRegistry: newHandlerRegistry(),
		client:          client,
		key:             key,
		logger:          logger,
		popTimeout:      defaultPopTimeout,
	}
}

// Publish appends the event to the outbox list.
func (d *RedisDispatcher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := d.client.RPush(ctx, d.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}
	return nil
}

// ConsumeOne blocks until one event is available, then delivers it. It
// returns false when nothing arrived before the pop timeout.
func (d *RedisDispatcher) ConsumeOne(ctx context.Context) (bool, error) {
	res, err := d.client.BLPop(ctx, d.popTimeout, d.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dequeue event: %w", err)
	}
	// BLPOP replies with [key, value].
	if len(res) != 2 {
		return false, fmt.Errorf("unexpected BLPOP reply of length %d", len(res))
	}

	var event Event
	if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
		d.logger.Warn("dropping malformed event", zap.String("key", d.key), zap.Error(err))
		return true, nil
	}
	if err := d.deliver(ctx, event); err != nil {
		d.logger.Error("event handler failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return true, nil
}

// Consume loops until ctx is cancelled.
func (d *RedisDispatcher) Consume(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := d.ConsumeOne(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Warn("outbox consume failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}
