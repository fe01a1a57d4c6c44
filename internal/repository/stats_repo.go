package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
)

type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) Collect(ctx context.Context) (models.Stats, error) {
	var s models.Stats
	counters := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM products`, &s.Products},
		{`SELECT COUNT(*) FROM products WHERE active = TRUE`, &s.ActiveProducts},
		{`SELECT COUNT(DISTINCT order_id) FROM orders`, &s.Orders},
		{`SELECT COUNT(DISTINCT order_id) FROM orders WHERE status = 'completed'`, &s.CompletedOrders},
		{`SELECT COUNT(DISTINCT order_id) FROM orders WHERE status = 'pending'`, &s.PendingOrders},
		{`SELECT COUNT(*) FROM cart`, &s.CartRows},
		{`SELECT COUNT(*) FROM discount_codes`, &s.DiscountCodes},
		{`SELECT COUNT(*) FROM discount_codes WHERE active = TRUE`, &s.ActiveCodes},
	}
	for _, c := range counters {
		if err := r.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return models.Stats{}, fmt.Errorf("stats: %w", err)
		}
	}
	return s, nil
}
