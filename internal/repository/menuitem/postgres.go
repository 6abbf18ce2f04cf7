package menuitem

import (
	"context"
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
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "menuitem").Logger()}
}

// price is read as text so it round-trips into decimal without float loss.
const columns = `id::text, owner_id::text, name, description, price::text, image_url, created_at, updated_at`

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.MenuItem, error) {
	return r.list(ctx, `SELECT `+columns+` FROM menu_items ORDER BY created_at, id`)
}

func (r *postgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.MenuItem, error) {
	return r.list(ctx, `SELECT `+columns+` FROM menu_items WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM menu_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
		return nil, domain.ErrNotFound
	}
	return item, err
}

func (r *postgresRepo) Create(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	q := `
INSERT INTO menu_items (owner_id, name, description, price, image_url)
VALUES ($1, $2, $3, $4::numeric, $5)
RETURNING ` + columns
	out, err := scanItem(r.pool.QueryRow(ctx, q, item.OwnerID, item.Name, item.Description, item.Price.String(), item.ImageURL))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("owner_id", item.OwnerID).Msg("create menu item")
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	q := `
UPDATE menu_items
SET name = $2, description = $3, price = $4::numeric, image_url = $5, updated_at = now()
WHERE id = $1
RETURNING ` + columns
	out, err := scanItem(r.pool.QueryRow(ctx, q, item.ID, item.Name, item.Description, item.Price.String(), item.ImageURL))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
		return nil, domain.ErrNotFound
	}
	return out, err
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if db.IsInvalidTextRepresentation(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.MenuItem, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MenuItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func scanItem(row pgx.Row) (*domain.MenuItem, error) {
	var (
		item  domain.MenuItem
		price string
	)
	if err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Name,
		&item.Description,
		&price,
		&item.ImageURL,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	item.Price = p
	return &item, nil
}
