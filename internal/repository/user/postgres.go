package user

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

func (r *postgresRepo) Create(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	const q = `
INSERT INTO users (id, email, role)
VALUES ($1, $2, $3)
RETURNING id::text, email, role, created_at
`
	out, err := scanProfile(r.pool.QueryRow(ctx, q, p.UID, p.Email, string(p.Role)))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		if db.IsForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetProfile(ctx context.Context, uid string) (*domain.Profile, error) {
	const q = `
SELECT id::text, email, role, created_at
FROM users
WHERE id = $1
`
	out, err := scanProfile(r.pool.QueryRow(ctx, q, uid))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
		return nil, domain.ErrNotFound
	}
	return out, err
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		p    domain.Profile
		role string
	)
	if err := row.Scan(&p.UID, &p.Email, &role, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Role = domain.Role(role)
	return &p, nil
}
