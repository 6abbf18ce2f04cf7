package user

import (
	"context"

	"foodorder/internal/domain"
)

// Repository stores the users documents that carry each account's role.
type Repository interface {
	Create(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	GetProfile(ctx context.Context, uid string) (*domain.Profile, error)
}
