// Package events publishes order lifecycle events for downstream consumers.
package events

import (
	"context"
	"time"

	"foodorder/internal/domain"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	CustomerID string    `json:"customerId,omitempty"`
	Status     string    `json:"status"`
	Total      string    `json:"total"`
	OwnerIDs   []string  `json:"ownerIds"`
	At         time.Time `json:"at"`
}

// NewOrderEvent describes the current state of an order.
func NewOrderEvent(typ string, o domain.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:       typ,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Status:     o.Status.String(),
		Total:      o.Total.StringFixed(2),
		OwnerIDs:   o.OwnerIDs(),
		At:         at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
	Close() error
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (NopPublisher) Close() error                              { return nil }
