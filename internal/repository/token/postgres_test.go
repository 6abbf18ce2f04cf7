package token

import (
	"context"
	"testing"
	"time"

	"foodorder/internal/db/dbtest"
	"foodorder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_TokenLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	accountID := dbtest.SeedUser(t, pool, "t@example.com", "customer")
	repo := NewPostgres(pool)

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.Create(ctx, Token{Token: "tok-1", AccountID: accountID, Kind: KindAccess, ExpiresAt: expires}))
	require.NoError(t, repo.Create(ctx, Token{Token: "tok-2", AccountID: accountID, Kind: KindAccess, ExpiresAt: expires}))
	assert.ErrorIs(t, repo.Create(ctx, Token{Token: "tok-1", AccountID: accountID, Kind: KindAccess, ExpiresAt: expires}), domain.ErrAlreadyExists)

	got, err := repo.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, accountID, got.AccountID)
	assert.True(t, got.ExpiresAt.Equal(expires))

	require.NoError(t, repo.Delete(ctx, "tok-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "tok-1"), domain.ErrNotFound)

	require.NoError(t, repo.DeleteByAccount(ctx, accountID, KindAccess))
	_, err = repo.Get(ctx, "tok-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
