package httpserver

import (
	"context"
	"io"
	"net/http"
	"time"

	"foodorder/internal/live"

	"github.com/gin-gonic/gin"
)

// snapshotFunc reads the data a stream shows.
type snapshotFunc func(ctx context.Context) (any, error)

// streamSnapshots sends a snapshot, then a fresh one after every live event
// that passes keep. A nil keep accepts every event.
func (a *api) streamSnapshots(c *gin.Context, name string, topic live.Topic, keep func(live.Event) bool, read snapshotFunc) {
	ctx := c.Request.Context()
	events, stop, err := a.Live.Subscribe(ctx, topic)
	if err != nil {
		a.logger.Error().Err(err).Str("topic", string(topic)).Msg("live subscribe")
		abortWith(c, http.StatusServiceUnavailable, "Error", "Live updates are unavailable right now.")
		return
	}
	defer stop()

	first, err := read(ctx)
	if err != nil {
		a.failure(c, err, "Error", "Could not load data.")
		return
	}
	c.SSEvent(name, first)
	c.Writer.Flush()

	heartbeat := time.NewTicker(a.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if keep != nil && !keep(ev) {
				return true
			}
			snap, err := read(ctx)
			if err != nil {
				a.logger.Warn().Err(err).Str("topic", string(topic)).Msg("refresh stream snapshot")
				return true
			}
			c.SSEvent(name, snap)
			return true
		case <-heartbeat.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		}
	})
}

func (a *api) streamMenu(c *gin.Context) {
	a.streamSnapshots(c, "menu", live.TopicMenu, nil, func(ctx context.Context) (any, error) {
		items, err := a.Menu.List(ctx)
		if err != nil {
			return nil, err
		}
		return gin.H{"items": nonNilItems(items)}, nil
	})
}

func (a *api) streamRestaurantOrders(c *gin.Context) {
	owner := uid(c)
	keep := func(ev live.Event) bool { return ev.Concerns(owner) }
	a.streamSnapshots(c, "orders", live.TopicOrders, keep, func(ctx context.Context) (any, error) {
		orders, err := a.Orders.ListForRestaurant(ctx, owner)
		if err != nil {
			return nil, err
		}
		return gin.H{"orders": orders}, nil
	})
}
