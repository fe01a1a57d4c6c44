package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Tables are created with portable column types; only the surrogate key
// syntax differs between the two dialects.
func tableStatements(driver string) []string {
	pk := "BIGSERIAL PRIMARY KEY"
	if driver == DriverSQLite {
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS products (
			id ` + pk + `,
			name TEXT NOT NULL,
			price NUMERIC(12,2) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL CHECK (quantity >= 0),
			image1 TEXT,
			image2 TEXT,
			coordinates TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS content (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payment_settings (
			currency_code TEXT PRIMARY KEY,
			address TEXT NOT NULL,
			blockchain TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS discount_codes (
			id ` + pk + `,
			code TEXT UNIQUE NOT NULL,
			discount_percentage NUMERIC(5,2) NOT NULL,
			expiry_date DATE,
			max_uses INTEGER NOT NULL DEFAULT -1,
			used_count INTEGER NOT NULL DEFAULT 0,
			is_general BOOLEAN NOT NULL DEFAULT TRUE,
			client_id BIGINT,
			client_username TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id ` + pk + `,
			order_id TEXT NOT NULL,
			user_id BIGINT NOT NULL,
			user_name TEXT NOT NULL DEFAULT '',
			product_id BIGINT NOT NULL,
			product_name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price NUMERIC(12,2) NOT NULL,
			total_price NUMERIC(12,2) NOT NULL,
			payment_currency TEXT NOT NULL,
			payment_source_address TEXT NOT NULL,
			discount_code TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS orders_order_id_idx ON orders (order_id)`,
		`CREATE TABLE IF NOT EXISTS cart (
			user_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			added_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, product_id)
		)`,
	}
}

// DefaultContent seeds the static pages buyers can open from the main menu.
var DefaultContent = map[string]string{
	"welcome_message": "Hello! I am your store bot.\n\nChoose from the options below:",
	"about_us":        "This is our store. We sell quality products with crypto payments.",
	"contact":         "Contact us: @admin",
	"website":         "https://example.com",
	"rules":           "Store rules:\n1. Be respectful\n2. No refunds",
	"faq":             "Frequently Asked Questions:\nQ: How to pay?\nA: Use crypto payments.",
	"success_message": "Thank you for your purchase! Admin will contact you soon.",
}

// Migrate creates missing tables and seeds default content without
// overwriting edited values.
func Migrate(ctx context.Context, conn *sql.DB, driver string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range tableStatements(driver) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	seed := `INSERT INTO content (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP) ON CONFLICT (key) DO NOTHING`
	for key, value := range DefaultContent {
		if _, err := tx.ExecContext(ctx, seed, key, value); err != nil {
			return fmt.Errorf("seed content %s: %w", key, err)
		}
	}

	return tx.Commit()
}
