package userprofile

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

func (r *postgresRepo) Get(ctx context.Context, uid string) (*domain.CustomerProfile, error) {
	const q = `
SELECT user_id::text, display_name, phone_number, address, updated_at
FROM user_profiles
WHERE user_id = $1
`
	return scan(r.pool.QueryRow(ctx, q, uid))
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.CustomerProfile) (*domain.CustomerProfile, error) {
	const q = `
INSERT INTO user_profiles (user_id, display_name, phone_number, address)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
    display_name = EXCLUDED.display_name,
    phone_number = EXCLUDED.phone_number,
    address = EXCLUDED.address,
    updated_at = now()
RETURNING user_id::text, display_name, phone_number, address, updated_at
`
	return scan(r.pool.QueryRow(ctx, q, p.UID, p.DisplayName, p.PhoneNumber, p.Address))
}

func scan(row pgx.Row) (*domain.CustomerProfile, error) {
	var p domain.CustomerProfile
	if err := row.Scan(&p.UID, &p.DisplayName, &p.PhoneNumber, &p.Address, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
