package restaurant

import (
	"context"

	"foodorder/internal/domain"
)

// Repository stores one restaurant profile per owner.
type Repository interface {
	Get(ctx context.Context, ownerID string) (*domain.Restaurant, error)
	Upsert(ctx context.Context, r domain.Restaurant) (*domain.Restaurant, error)
}
