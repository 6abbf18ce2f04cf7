// Package seed loads a demo restaurant, customer and menu for manual testing.
package seed

import (
	"context"
	"fmt"

	"foodorder/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword signs in every seeded account.
const DemoPassword = "demo1234"

type accountSeed struct {
	Email string
	Role  domain.Role
}

type dishSeed struct {
	Name        string
	Description string
	Price       string
}

var (
	restaurantAccount = accountSeed{Email: "luigi@demo.foodorder", Role: domain.RoleRestaurant}
	customerAccount   = accountSeed{Email: "casey@demo.foodorder", Role: domain.RoleCustomer}

	dishes = []dishSeed{
		{Name: "Margherita", Description: "Tomato, mozzarella and basil", Price: "10.50"},
		{Name: "Lasagna", Description: "Layered beef ragu and bechamel", Price: "12.90"},
		{Name: "Tiramisu", Description: "Coffee soaked ladyfingers", Price: "6.00"},
		{Name: "Lemon Soda", Description: "Sparkling, 330ml", Price: "2.25"},
	}
)

// Apply inserts the demo data. It is idempotent: accounts keep their
// existing password and menu items are matched by name.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		ownerID, err := ensureAccount(ctx, tx, restaurantAccount, string(hash))
		if err != nil {
			return fmt.Errorf("ensure restaurant account: %w", err)
		}
		customerID, err := ensureAccount(ctx, tx, customerAccount, string(hash))
		if err != nil {
			return fmt.Errorf("ensure customer account: %w", err)
		}

		if err := upsertRestaurant(ctx, tx, ownerID); err != nil {
			return fmt.Errorf("upsert restaurant: %w", err)
		}
		if err := upsertCustomerProfile(ctx, tx, customerID); err != nil {
			return fmt.Errorf("upsert customer profile: %w", err)
		}
		for _, d := range dishes {
			if err := upsertDish(ctx, tx, ownerID, d); err != nil {
				return fmt.Errorf("upsert dish %s: %w", d.Name, err)
			}
		}
		return nil
	})
}

func ensureAccount(ctx context.Context, tx pgx.Tx, a accountSeed, hash string) (string, error) {
	const qAccount = `
INSERT INTO accounts (email, password_hash)
VALUES ($1, $2)
ON CONFLICT ((lower(email))) DO UPDATE SET updated_at = now()
RETURNING id::text
`
	var id string
	if err := tx.QueryRow(ctx, qAccount, a.Email, hash).Scan(&id); err != nil {
		return "", err
	}

	const qUser = `
INSERT INTO users (id, email, role)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role
`
	if _, err := tx.Exec(ctx, qUser, id, a.Email, string(a.Role)); err != nil {
		return "", err
	}
	return id, nil
}

func upsertRestaurant(ctx context.Context, tx pgx.Tx, ownerID string) error {
	const q = `
INSERT INTO restaurants (owner_id, restaurant_name, description, phone_number, address, cuisine, opening_hours, owner_name)
VALUES ($1, 'Luigi''s Trattoria', 'Family run since 1987', '+1 555 0100', '12 Harbour Rd', 'Italian', 'Tue-Sun 12:00-22:00', 'Luigi')
ON CONFLICT (owner_id) DO UPDATE
SET restaurant_name = EXCLUDED.restaurant_name,
    description = EXCLUDED.description,
    cuisine = EXCLUDED.cuisine,
    updated_at = now()
`
	_, err := tx.Exec(ctx, q, ownerID)
	return err
}

func upsertCustomerProfile(ctx context.Context, tx pgx.Tx, uid string) error {
	const q = `
INSERT INTO user_profiles (user_id, display_name, phone_number, address)
VALUES ($1, 'Casey', '+1 555 0199', '4 Elm St')
ON CONFLICT (user_id) DO NOTHING
`
	_, err := tx.Exec(ctx, q, uid)
	return err
}

func upsertDish(ctx context.Context, tx pgx.Tx, ownerID string, d dishSeed) error {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return err
	}

	const qUpdate = `
UPDATE menu_items
SET description = $3, price = $4, updated_at = now()
WHERE owner_id = $1 AND name = $2
`
	tag, err := tx.Exec(ctx, qUpdate, ownerID, d.Name, d.Description, price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	const qInsert = `
INSERT INTO menu_items (owner_id, name, description, price, image_url)
VALUES ($1, $2, $3, $4, $5)
`
	_, err = tx.Exec(ctx, qInsert, ownerID, d.Name, d.Description, price, domain.PlaceholderImageURL)
	return err
}
