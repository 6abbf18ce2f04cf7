package restaurant

import (
	"context"
	"testing"

	"foodorder/internal/db/dbtest"
	"foodorder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_UpsertKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	ownerID := dbtest.SeedUser(t, pool, "owner@example.com", "restaurant")
	repo := NewPostgres(pool)

	_, err := repo.Get(ctx, ownerID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first, err := repo.Upsert(ctx, domain.Restaurant{OwnerID: ownerID, RestaurantName: "Luigi's", Cuisine: "Italian"})
	require.NoError(t, err)

	second, err := repo.Upsert(ctx, domain.Restaurant{OwnerID: ownerID, RestaurantName: "Luigi's Trattoria", OpeningHours: "9-5"})
	require.NoError(t, err)
	assert.Equal(t, "Luigi's Trattoria", second.RestaurantName)
	assert.Empty(t, second.Cuisine)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}
