// Package live fans change notifications out to streaming clients.
package live

import (
	"context"
	"time"
)

type Topic string

const (
	TopicMenu   Topic = "menu"
	TopicOrders Topic = "orders"
)

// Event tells subscribers that something on a topic changed. Subscribers
// re-read the data they show; events carry no payload beyond ids.
type Event struct {
	Topic    Topic     `json:"topic"`
	Kind     string    `json:"kind"`
	ID       string    `json:"id"`
	OwnerIDs []string  `json:"ownerIds,omitempty"`
	At       time.Time `json:"at"`
}

// Concerns reports whether the event touches the given owner. Events without
// owners concern everyone.
func (e Event) Concerns(ownerID string) bool {
	if len(e.OwnerIDs) == 0 {
		return true
	}
	for _, id := range e.OwnerIDs {
		if id == ownerID {
			return true
		}
	}
	return false
}

type Broker interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe delivers events until ctx is done or the returned close func is
	// called; the channel is closed afterwards.
	Subscribe(ctx context.Context, topics ...Topic) (<-chan Event, func(), error)
}

// NopBroker drops published events and never delivers any.
type NopBroker struct{}

func (NopBroker) Publish(context.Context, Event) error { return nil }

func (NopBroker) Subscribe(ctx context.Context, _ ...Topic) (<-chan Event, func(), error) {
	ch := make(chan Event)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, cancel, nil
}
