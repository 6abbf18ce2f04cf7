package seed

import (
	"context"
	"testing"

	"foodorder/internal/db/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)

	require.NoError(t, Apply(ctx, pool))
	require.NoError(t, Apply(ctx, pool))

	var accounts, users, items, restaurants int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&accounts))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&users))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM menu_items`).Scan(&items))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM restaurants`).Scan(&restaurants))

	assert.Equal(t, 2, accounts)
	assert.Equal(t, 2, users)
	assert.Equal(t, len(dishes), items)
	assert.Equal(t, 1, restaurants)

	var role string
	require.NoError(t, pool.QueryRow(ctx, `SELECT role FROM users WHERE email = $1`, restaurantAccount.Email).Scan(&role))
	assert.Equal(t, "restaurant", role)
}
