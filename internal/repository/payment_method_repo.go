package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
)

type PaymentMethodRepo struct {
	db *sql.DB
}

func NewPaymentMethodRepo(db *sql.DB) *PaymentMethodRepo {
	return &PaymentMethodRepo{db: db}
}

func (r *PaymentMethodRepo) List(ctx context.Context) ([]models.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT currency_code, address, blockchain FROM payment_settings ORDER BY currency_code`)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []models.PaymentMethod
	for rows.Next() {
		var m models.PaymentMethod
		if err := rows.Scan(&m.CurrencyCode, &m.Address, &m.Blockchain); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// Get returns nil, nil for an unknown currency.
func (r *PaymentMethodRepo) Get(ctx context.Context, currency string) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	err := r.db.QueryRowContext(ctx,
		`SELECT currency_code, address, blockchain FROM payment_settings WHERE currency_code = $1`,
		models.NormalizeCurrency(currency),
	).Scan(&m.CurrencyCode, &m.Address, &m.Blockchain)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment method: %w", err)
	}
	return &m, nil
}

func (r *PaymentMethodRepo) Upsert(ctx context.Context, m models.PaymentMethod) error {
	query := `
		INSERT INTO payment_settings (currency_code, address, blockchain)
		VALUES ($1, $2, $3)
		ON CONFLICT (currency_code) DO UPDATE SET address = excluded.address, blockchain = excluded.blockchain
	`
	if _, err := r.db.ExecContext(ctx, query, models.NormalizeCurrency(m.CurrencyCode), m.Address, m.Blockchain); err != nil {
		return fmt.Errorf("upsert payment method: %w", err)
	}
	return nil
}

func (r *PaymentMethodRepo) Delete(ctx context.Context, currency string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payment_settings WHERE currency_code = $1`, models.NormalizeCurrency(currency))
	if err != nil {
		return fmt.Errorf("delete payment method: %w", err)
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
