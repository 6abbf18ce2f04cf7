// Package checkout turns a session's cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodorder/internal/cart"
	"foodorder/internal/domain"
	"foodorder/internal/events"
	"foodorder/internal/live"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	// ErrKeyReused means the idempotency key already produced an order with
	// different contents.
	ErrKeyReused = fmt.Errorf("idempotency key used for a different cart: %w", domain.ErrAlreadyExists)
)

type orderStore interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, bool, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
}

type broker interface {
	Publish(ctx context.Context, ev live.Event) error
}

type Service struct {
	orders      orderStore
	broker      broker
	events      events.Publisher
	logger      zerolog.Logger
	taxRate     decimal.Decimal
	deliveryFee decimal.Decimal
	now         func() time.Time
}

func New(orders orderStore, b broker, pub events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		orders:      orders,
		broker:      b,
		events:      pub,
		logger:      logger.With().Str("component", "checkout").Logger(),
		taxRate:     defaultTaxRate,
		deliveryFee: defaultDeliveryFee,
		now:         time.Now,
	}
}

// Result is a placed order. Replayed is true when the idempotency key had
// already produced this order.
type Result struct {
	Order    *domain.Order
	Replayed bool
}

// PlaceOrder snapshots the cart into a pending order and clears the cart.
// The key defaults to the cart's checkout key. A failed write leaves the cart
// untouched. Repeating a key returns the original order.
func (s *Service) PlaceOrder(ctx context.Context, customerID string, c *cart.Store, key string) (*Result, error) {
	key = strings.TrimSpace(key)
	snap := c.Snapshot()

	if len(snap.Items) == 0 {
		if key != "" {
			if existing, err := s.replay(ctx, customerID, key); err == nil {
				return &Result{Order: existing, Replayed: true}, nil
			}
		}
		return nil, ErrEmptyCart
	}
	if key == "" {
		key = snap.CheckoutKey
	}

	order, created, err := s.orders.Create(ctx, domain.Order{
		CustomerID:     customerID,
		Items:          snap.Items,
		Total:          snap.Total,
		Status:         domain.OrderPending,
		IdempotencyKey: key,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("customer_id", customerID).Msg("place order")
		return nil, fmt.Errorf("place order: %w", err)
	}

	if !created {
		if order.CustomerID != customerID || !sameLines(order.Items, snap.Items) {
			s.logger.Warn().Str("order_id", order.ID).Str("customer_id", customerID).Msg("idempotency key reused for a different cart")
			return nil, ErrKeyReused
		}
		s.settle(c, snap)
		s.logger.Info().Str("order_id", order.ID).Msg("checkout replayed")
		return &Result{Order: order, Replayed: true}, nil
	}

	s.settle(c, snap)

	s.logger.Info().Str("order_id", order.ID).Str("total", order.Total.StringFixed(2)).Int("lines", len(order.Items)).Msg("order placed")
	s.announce(ctx, order)
	return &Result{Order: order}, nil
}

// settle removes the ordered lines from the cart. Lines added while the order
// was being written stay in the cart.
func (s *Service) settle(c *cart.Store, snap cart.Snapshot) {
	if c.ClearIfKey(snap.CheckoutKey) {
		return
	}
	c.Subtract(snap.Items)
}

func sameLines(a, b []domain.LineItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ProductID != b[i].ProductID || a[i].Quantity != b[i].Quantity || !a[i].UnitPrice.Equal(b[i].UnitPrice) {
			return false
		}
	}
	return true
}

func (s *Service) replay(ctx context.Context, customerID, key string) (*domain.Order, error) {
	existing, err := s.orders.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	return existing, nil
}

func (s *Service) announce(ctx context.Context, o *domain.Order) {
	if err := s.events.Publish(ctx, events.NewOrderEvent(events.TypeOrderPlaced, *o, s.now())); err != nil {
		s.logger.Warn().Err(err).Str("order_id", o.ID).Msg("publish order event")
	}
	ev := live.Event{Topic: live.TopicOrders, Kind: events.TypeOrderPlaced, ID: o.ID, OwnerIDs: o.OwnerIDs()}
	if err := s.broker.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("order_id", o.ID).Msg("publish order change")
	}
}
