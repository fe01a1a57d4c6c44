package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
)

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = `id, name, price, description, quantity, image1, image2, coordinates, active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var image1, image2, coords sql.NullString
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.Quantity,
		&image1,
		&image2,
		&coords,
		&p.Active,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Image1 = image1.String
	p.Image2 = image2.String
	p.Coordinates = coords.String
	return &p, nil
}

func (r *ProductRepo) list(ctx context.Context, query string) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// ListAvailable returns what buyers may browse: active and in stock.
func (r *ProductRepo) ListAvailable(ctx context.Context) ([]models.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE active = TRUE AND quantity > 0 ORDER BY name`)
}

// ListAll includes inactive products for the admin.
func (r *ProductRepo) ListAll(ctx context.Context) ([]models.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
}

// Get returns nil, nil when the product does not exist.
func (r *ProductRepo) Get(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *ProductRepo) Create(ctx context.Context, p models.Product) (int64, error) {
	query := `
		INSERT INTO products
		(name, price, description, quantity, image1, image2, coordinates, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.Name,
		p.Price,
		p.Description,
		p.Quantity,
		nullString(p.Image1),
		nullString(p.Image2),
		nullString(p.Coordinates),
		p.Active,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of patch and returns ErrNotFound for an
// unknown id. Only the patched columns are written, so a concurrent stock
// decrement is never overwritten by an edit that does not touch quantity.
func (r *ProductRepo) Update(ctx context.Context, id int64, patch models.ProductPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Quantity != nil {
		set("quantity", *patch.Quantity)
	}
	if patch.Image1 != nil {
		set("image1", nullString(*patch.Image1))
	}
	if patch.Image2 != nil {
		set("image2", nullString(*patch.Image2))
	}
	if patch.Coordinates != nil {
		set("coordinates", nullString(*patch.Coordinates))
	}
	if patch.Active != nil {
		set("active", *patch.Active)
	}

	if len(sets) == 0 {
		current, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete removes the product and any cart rows pointing at it. Existing
// order rows keep their product id and name snapshot.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart WHERE product_id = $1`, id); err != nil {
			return fmt.Errorf("delete cart rows: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete product %d: %w", id, err)
		}
		ok, err := affected(res)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
}

// DecrementStock removes qty units only if that many are in stock, so
// concurrent checkouts can never drive quantity below zero. It returns
// ErrConflict when the floor check fails.
func (r *ProductRepo) DecrementStock(ctx context.Context, q DBTX, id int64, qty int) error {
	query := `
		UPDATE products
		SET quantity = quantity - $1
		WHERE id = $2 AND quantity >= $3
	`
	res, err := q.ExecContext(ctx, query, qty, id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock %d: %w", id, err)
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
