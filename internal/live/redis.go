package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroker relays events over Redis pub/sub so every API replica sees them.
type RedisBroker struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
	now    func() time.Time
}

func NewRedisBroker(client *redis.Client, logger zerolog.Logger) *RedisBroker {
	return &RedisBroker{
		client: client,
		prefix: "foodorder:live:",
		logger: logger.With().Str("component", "live").Logger(),
		now:    time.Now,
	}
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = b.now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(ev.Topic), data).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, topics ...Topic) (<-chan Event, func(), error) {
	channels := make([]string, 0, len(topics))
	for _, t := range topics {
		channels = append(channels, b.channel(t))
	}

	ps := b.client.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Event)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("drop malformed event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, cancel, nil
}

func (b *RedisBroker) channel(t Topic) string {
	return b.prefix + string(t)
}
