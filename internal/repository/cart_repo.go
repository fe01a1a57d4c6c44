package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
)

type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

// Lines returns the user's cart joined with live, active products.
func (r *CartRepo) Lines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	query := `
		SELECT c.product_id, c.quantity, p.name, p.price
		FROM cart c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1 AND p.active = TRUE
		ORDER BY p.name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("cart lines: %w", err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.Name, &l.Price); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// AddOne puts one more unit of the product into the user's cart. It returns
// ErrNotFound when the product is missing or inactive and ErrConflict when
// the cart would exceed the current stock.
func (r *CartRepo) AddOne(ctx context.Context, userID, productID int64) (int, error) {
	var newQty int
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT quantity FROM products WHERE id = $1 AND active = TRUE`, productID,
		).Scan(&stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("read stock: %w", err)
		}

		var current int
		err = tx.QueryRowContext(ctx,
			`SELECT quantity FROM cart WHERE user_id = $1 AND product_id = $2`, userID, productID,
		).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read cart: %w", err)
		}

		if current+1 > stock {
			return ErrConflict
		}

		upsert := `
			INSERT INTO cart (user_id, product_id, quantity, added_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart.quantity + 1
		`
		if _, err := tx.ExecContext(ctx, upsert, userID, productID, time.Now().UTC()); err != nil {
			return fmt.Errorf("upsert cart: %w", err)
		}
		newQty = current + 1
		return nil
	})
	return newQty, err
}

// Clear empties the user's cart, inside q when it is a transaction or
// directly when q is nil.
func (r *CartRepo) Clear(ctx context.Context, q DBTX, userID int64) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM cart WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

