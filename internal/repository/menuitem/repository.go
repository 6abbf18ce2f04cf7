package menuitem

import (
	"context"

	"foodorder/internal/domain"
)

type Repository interface {
	ListAll(ctx context.Context) ([]domain.MenuItem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.MenuItem, error)
	GetByID(ctx context.Context, id string) (*domain.MenuItem, error)
	Create(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	Update(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	Delete(ctx context.Context, id string) error
}
