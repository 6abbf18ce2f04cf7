// Package order serves order history to customers and the incoming queue to
// restaurants.
package order

import (
	"context"
	"fmt"
	"time"

	"foodorder/internal/domain"
	"foodorder/internal/events"
	"foodorder/internal/live"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type repository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type broker interface {
	Publish(ctx context.Context, ev live.Event) error
}

type Service struct {
	repo   repository
	broker broker
	events events.Publisher
	logger zerolog.Logger
	now    func() time.Time
}

func New(repo repository, b broker, pub events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		broker: b,
		events: pub,
		logger: logger.With().Str("component", "orders").Logger(),
		now:    time.Now,
	}
}

// RestaurantOrder is an order as one restaurant sees it: only its own lines
// and their value.
type RestaurantOrder struct {
	domain.Order
	OwnerItems []domain.LineItem `json:"ownerItems"`
	OwnerValue decimal.Decimal   `json:"ownerValue"`
}

func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// ListForRestaurant returns orders with at least one of the owner's items,
// newest first.
func (s *Service) ListForRestaurant(ctx context.Context, ownerID string) ([]RestaurantOrder, error) {
	orders, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list restaurant orders: %w", err)
	}
	out := make([]RestaurantOrder, 0, len(orders))
	for _, o := range orders {
		items := o.ItemsForOwner(ownerID)
		if len(items) == 0 {
			continue
		}
		out = append(out, RestaurantOrder{
			Order:      o,
			OwnerItems: items,
			OwnerValue: domain.SumLineItems(items),
		})
	}
	return out, nil
}

// UpdateStatus moves an order to any known status. The owner must have items
// in the order.
func (s *Service) UpdateStatus(ctx context.Context, ownerID, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.Invalid("Invalid Status", "Unknown order status.")
	}
	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !current.HasOwner(ownerID) {
		return nil, domain.ErrNotFound
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	s.logger.Info().Str("order_id", orderID).Stringer("from", current.Status).Stringer("to", status).Msg("order status changed")

	if err := s.events.Publish(ctx, events.NewOrderEvent(events.TypeOrderStatusChanged, *updated, s.now())); err != nil {
		s.logger.Warn().Err(err).Str("order_id", orderID).Msg("publish order event")
	}
	ev := live.Event{Topic: live.TopicOrders, Kind: events.TypeOrderStatusChanged, ID: updated.ID, OwnerIDs: updated.OwnerIDs()}
	if err := s.broker.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("order_id", orderID).Msg("publish order change")
	}
	return updated, nil
}
