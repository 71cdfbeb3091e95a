package events

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// Handler consumes a published event. A handler error aborts the dispatch and
// propagates to the publisher; handlers that must not break the chain have to
// swallow their own failures.
type Handler func(ctx context.Context, event Event) error

// Bus is a synchronous, in-process publish/subscribe dispatcher. Subscriptions
// happen at boot; Publish fans out within the caller's request scope, invoking
// handlers in registration order and awaiting each one. There is no queueing,
// no retry, and no cross-process delivery.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: map[Kind][]Handler{}}
}

// Subscribe registers a handler for the given kind. Handlers run in the order
// they were registered.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	if h == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish dispatches the event to every handler registered for its kind and
// returns the first handler failure, leaving later handlers unrun.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event == nil {
		return goerrors.New("cannot publish a nil event", goerrors.CategoryBadInput)
	}

	b.mu.RLock()
	handlers := b.handlers[event.EventKind()]
	b.mu.RUnlock()

	for _, h := range handlers {
		select {
		case <-ctx.Done():
			return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during event dispatch")
		default:
		}

		if err := h(ctx, event); err != nil {
			return err
		}
	}

	return nil
}
