package userprofile

import (
	"context"

	"foodorder/internal/domain"
)

type Repository interface {
	Get(ctx context.Context, uid string) (*domain.CustomerProfile, error)
	Upsert(ctx context.Context, p domain.CustomerProfile) (*domain.CustomerProfile, error)
}
