package order

import (
	"context"

	"foodorder/internal/domain"
)

type Repository interface {
	// Create stores the order unless its idempotency key was already used; in
	// that case the stored order is returned and created is false.
	Create(ctx context.Context, o domain.Order) (order *domain.Order, created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	// ListByOwner returns orders containing at least one item of the owner, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}
