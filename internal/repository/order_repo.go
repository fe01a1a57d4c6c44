package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
)

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

const orderColumns = `id, order_id, user_id, user_name, product_id, product_name, quantity,
		       unit_price, total_price, payment_currency, payment_source_address,
		       discount_code, status, created_at`

func scanOrderLine(row rowScanner) (models.OrderLine, error) {
	var l models.OrderLine
	var discount sql.NullString
	var status string
	err := row.Scan(
		&l.ID,
		&l.OrderID,
		&l.UserID,
		&l.UserName,
		&l.ProductID,
		&l.ProductName,
		&l.Quantity,
		&l.UnitPrice,
		&l.TotalPrice,
		&l.Currency,
		&l.SourceAddress,
		&discount,
		&status,
		&l.CreatedAt,
	)
	l.DiscountCode = discount.String
	l.Status = models.OrderStatus(status)
	return l, err
}

// InsertLines writes every line of one order inside the caller's
// transaction.
func (r *OrderRepo) InsertLines(ctx context.Context, q DBTX, lines []models.OrderLine) error {
	stmt := `
		INSERT INTO orders
		(order_id, user_id, user_name, product_id, product_name, quantity, unit_price,
		 total_price, payment_currency, payment_source_address, discount_code, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`
	for _, l := range lines {
		_, err := q.ExecContext(ctx, stmt,
			l.OrderID,
			l.UserID,
			l.UserName,
			l.ProductID,
			l.ProductName,
			l.Quantity,
			l.UnitPrice,
			l.TotalPrice,
			l.Currency,
			l.SourceAddress,
			nullString(l.DiscountCode),
			string(l.Status),
			l.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

// Exists reports whether any line already carries orderID.
func (r *OrderRepo) Exists(ctx context.Context, q DBTX, orderID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE order_id = $1`, orderID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check order id %s: %w", orderID, err)
	}
	return n > 0, nil
}

// Owner returns the buyer of an existing order id.
func (r *OrderRepo) Owner(ctx context.Context, q DBTX, orderID string) (int64, bool, error) {
	var userID int64
	err := q.QueryRowContext(ctx, `SELECT user_id FROM orders WHERE order_id = $1 LIMIT 1`, orderID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("order owner %s: %w", orderID, err)
	}
	return userID, true, nil
}

func (r *OrderRepo) queryLines(ctx context.Context, query string, args ...any) ([]models.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		l, err := scanOrderLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Get returns the order folded from its lines, or nil, nil when no line
// carries the id.
func (r *OrderRepo) Get(ctx context.Context, orderID string) (*models.Order, error) {
	lines, err := r.queryLines(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	return models.OrderFromLines(lines), nil
}

// List returns orders, newest first, optionally filtered by status.
func (r *OrderRepo) List(ctx context.Context, status models.OrderStatus) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, order_id, id`
	var args []any
	if status != "" {
		query = `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC, order_id, id`
		args = append(args, string(status))
	}

	lines, err := r.queryLines(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var orders []*models.Order
	index := make(map[string]int)
	grouped := make([][]models.OrderLine, 0)
	for _, l := range lines {
		i, ok := index[l.OrderID]
		if !ok {
			i = len(grouped)
			index[l.OrderID] = i
			grouped = append(grouped, nil)
		}
		grouped[i] = append(grouped[i], l)
	}
	for _, g := range grouped {
		orders = append(orders, models.OrderFromLines(g))
	}
	return orders, nil
}

// Transition moves every line of the order from one status to another in a
// single statement. It returns ErrConflict when no line was in the from
// status, which covers repeated confirms and confirm/reject races.
func (r *OrderRepo) Transition(ctx context.Context, orderID string, from, to models.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1
		WHERE order_id = $2 AND status = $3
	`
	res, err := r.db.ExecContext(ctx, query, string(to), orderID, string(from))
	if err != nil {
		return fmt.Errorf("transition order %s: %w", orderID, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
