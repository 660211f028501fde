package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Publisher is the side of a dispatcher the services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publisher
	Subscribe(eventType EventType, handler EventHandler)
}

// handlerRegistry is shared by the dispatcher implementations.
type handlerRegistry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

func newHandlerRegistry() handlerRegistry {
	return handlerRegistry{listeners: make(map[EventType][]EventHandler)}
}

func (r *handlerRegistry) Subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

// deliver runs every handler for the event and joins their failures.
func (r *handlerRegistry) deliver(ctx context.Context, event Event) error {
	r.mu.RLock()
	handlers := append([]EventHandler{}, r.listeners[event.Type]...)
	r.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", event.Type, err))
		}
	}
	return errors.Join(errs...)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	handlerRegistry
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{handlerRegistry: newHandlerRegistry()}
}

// Publish synchronously invokes handlers for the given event. Handler errors
// are returned to the publisher.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	return d.deliver(ctx, event)
}
