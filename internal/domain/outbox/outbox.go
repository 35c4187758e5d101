package outbox

import (
	"context"
	"errors"
)

var ErrNoHandler = errors.New("outbox: handler is required")

// Event is anything carried on the outbox, keyed by name for routing.
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// SubscribeAll routes every name in names to h.
func SubscribeAll(s Subscriber, h Handler, names ...string) error {
	if h == nil {
		return ErrNoHandler
	}
	for _, name := range names {
		s.Subscribe(name, h)
	}
	return nil
}
