package live

import (
	"context"
	"sync"
	"time"
)

// MemoryBroker fans events out inside one process. It is used when no Redis
// is configured.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[*memorySub]struct{}
	buffer int
	now    func() time.Time
}

type memorySub struct {
	topics map[Topic]bool
	ch     chan Event
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs:   make(map[*memorySub]struct{}),
		buffer: 16,
		now:    time.Now,
	}
}

// Publish never blocks. A subscriber whose buffer is full misses the event,
// but the queued events already make it re-read.
func (b *MemoryBroker) Publish(_ context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = b.now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		if !s.topics[ev.Topic] {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topics ...Topic) (<-chan Event, func(), error) {
	s := &memorySub{
		topics: make(map[Topic]bool, len(topics)),
		ch:     make(chan Event, b.buffer),
	}
	for _, t := range topics {
		s.topics[t] = true
	}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, s)
		close(s.ch)
		b.mu.Unlock()
	}()
	return s.ch, cancel, nil
}

func (b *MemoryBroker) subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
