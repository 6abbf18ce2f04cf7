package restaurant

import (
	"context"
	"errors"

	"foodorder/internal/db"
	"foodorder/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const columns = `owner_id::text, restaurant_name, description, phone_number, address, cuisine,
       opening_hours, owner_name, created_at, updated_at`

func (r *postgresRepo) Get(ctx context.Context, ownerID string) (*domain.Restaurant, error) {
	q := `SELECT ` + columns + ` FROM restaurants WHERE owner_id = $1`
	return scan(r.pool.QueryRow(ctx, q, ownerID))
}

// Upsert keeps created_at from the first write.
func (r *postgresRepo) Upsert(ctx context.Context, in domain.Restaurant) (*domain.Restaurant, error) {
	q := `
INSERT INTO restaurants (owner_id, restaurant_name, description, phone_number, address, cuisine, opening_hours, owner_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (owner_id) DO UPDATE SET
    restaurant_name = EXCLUDED.restaurant_name,
    description = EXCLUDED.description,
    phone_number = EXCLUDED.phone_number,
    address = EXCLUDED.address,
    cuisine = EXCLUDED.cuisine,
    opening_hours = EXCLUDED.opening_hours,
    owner_name = EXCLUDED.owner_name,
    updated_at = now()
RETURNING ` + columns
	return scan(r.pool.QueryRow(ctx, q,
		in.OwnerID,
		in.RestaurantName,
		in.Description,
		in.PhoneNumber,
		in.Address,
		in.Cuisine,
		in.OpeningHours,
		in.OwnerName,
	))
}

func scan(row pgx.Row) (*domain.Restaurant, error) {
	var out domain.Restaurant
	if err := row.Scan(
		&out.OwnerID,
		&out.RestaurantName,
		&out.Description,
		&out.PhoneNumber,
		&out.Address,
		&out.Cuisine,
		&out.OpeningHours,
		&out.OwnerName,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}
