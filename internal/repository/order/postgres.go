package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"foodorder/internal/db"
	"foodorder/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "order").Logger()}
}

const columns = `id::text, customer_id::text, items, total::text, status, idempotency_key, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, bool, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return nil, false, err
	}
	status := o.Status
	if !status.Valid() {
		status = domain.OrderPending
	}

	q := `
INSERT INTO orders (customer_id, items, total, status, idempotency_key)
VALUES ($1, $2::jsonb, $3::numeric, $4, $5)
ON CONFLICT (idempotency_key) DO NOTHING
RETURNING ` + columns
	created, err := scanOrder(r.pool.QueryRow(ctx, q,
		nullable(o.CustomerID),
		string(itemsJSON),
		o.Total.String(),
		status.String(),
		o.IdempotencyKey,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error().Err(err).Str("idempotency_key", o.IdempotencyKey).Msg("insert order")
		return nil, false, err
	}

	existing, err := r.GetByIdempotencyKey(ctx, o.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing.CustomerID != o.CustomerID {
		return nil, false, domain.ErrAlreadyExists
	}
	return existing, false, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+columns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+columns+` FROM orders WHERE idempotency_key = $1`, key)
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+columns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC, id`, customerID)
}

func (r *postgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error) {
	q := `
SELECT ` + columns + `
FROM orders
WHERE items @> jsonb_build_array(jsonb_build_object('ownerId', $1::text))
ORDER BY created_at DESC, id
`
	return r.list(ctx, q, ownerID)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	q := `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + columns
	return r.get(ctx, q, id, status.String())
}

func (r *postgresRepo) get(ctx context.Context, q string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
		return nil, domain.ErrNotFound
	}
	return o, err
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o          domain.Order
		customerID *string
		itemsJSON  []byte
		total      string
		status     string
	)
	if err := row.Scan(
		&o.ID,
		&customerID,
		&itemsJSON,
		&total,
		&status,
		&o.IdempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if customerID != nil {
		o.CustomerID = *customerID
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	t, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse order total %q: %w", total, err)
	}
	o.Total = t
	if o.Status, err = domain.ParseOrderStatus(status); err != nil {
		return nil, err
	}
	return &o, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
