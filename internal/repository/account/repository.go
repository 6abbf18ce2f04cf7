package account

import (
	"context"

	"foodorder/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, a domain.Account) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
