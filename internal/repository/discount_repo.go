package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
)

type DiscountRepo struct {
	db *sql.DB
}

func NewDiscountRepo(db *sql.DB) *DiscountRepo {
	return &DiscountRepo{db: db}
}

const discountColumns = `id, code, discount_percentage, expiry_date, max_uses, used_count,
		       is_general, client_id, client_username, active, created_at`

func scanDiscount(row rowScanner) (*models.DiscountCode, error) {
	var d models.DiscountCode
	var expiry sql.NullTime
	var clientID sql.NullInt64
	var clientUsername sql.NullString

	err := row.Scan(
		&d.ID,
		&d.Code,
		&d.Percentage,
		&expiry,
		&d.MaxUses,
		&d.UsedCount,
		&d.IsGeneral,
		&clientID,
		&clientUsername,
		&d.Active,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time
		d.ExpiryDate = &t
	}
	if clientID.Valid {
		id := clientID.Int64
		d.ClientID = &id
	}
	d.ClientUsername = clientUsername.String
	return &d, nil
}

// GetByCode looks a code up in its normalized form. Inactive codes are
// returned too; nil, nil means no such code.
func (r *DiscountRepo) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	query := `SELECT ` + discountColumns + ` FROM discount_codes WHERE code = $1`
	d, err := scanDiscount(r.db.QueryRowContext(ctx, query, models.NormalizeCode(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get discount code: %w", err)
	}
	return d, nil
}

func (r *DiscountRepo) List(ctx context.Context) ([]models.DiscountCode, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+discountColumns+` FROM discount_codes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list discount codes: %w", err)
	}
	defer rows.Close()

	var codes []models.DiscountCode
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, *d)
	}
	return codes, rows.Err()
}

func (r *DiscountRepo) Create(ctx context.Context, d models.DiscountCode) (int64, error) {
	query := `
		INSERT INTO discount_codes
		(code, discount_percentage, expiry_date, max_uses, used_count, is_general,
		 client_id, client_username, active, created_at)
		VALUES ($1,$2,$3,$4,0,$5,$6,$7,$8,$9)
		RETURNING id
	`
	var expiry sql.NullTime
	if d.ExpiryDate != nil {
		expiry = sql.NullTime{Time: *d.ExpiryDate, Valid: true}
	}
	var clientID sql.NullInt64
	if d.ClientID != nil {
		clientID = sql.NullInt64{Int64: *d.ClientID, Valid: true}
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		models.NormalizeCode(d.Code),
		d.Percentage,
		expiry,
		d.MaxUses,
		d.IsGeneral,
		clientID,
		nullString(models.NormalizeUsername(d.ClientUsername)),
		d.Active,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create discount code: %w", err)
	}
	return id, nil
}

func (r *DiscountRepo) SetActive(ctx context.Context, code string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE discount_codes SET active = $1 WHERE code = $2`, active, models.NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("set discount active: %w", err)
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

// Consume counts one use of the code. The ceiling is re-checked in the same
// statement, so two checkouts racing for the last use cannot both win; the
// loser gets ErrConflict.
func (r *DiscountRepo) Consume(ctx context.Context, q DBTX, code string) error {
	query := `
		UPDATE discount_codes
		SET used_count = used_count + 1
		WHERE code = $1 AND active = TRUE AND (max_uses = -1 OR used_count < max_uses)
	`
	res, err := q.ExecContext(ctx, query, models.NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("consume discount code: %w", err)
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
