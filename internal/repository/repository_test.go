package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
)

func TestProductRepo_DecrementStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepo(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WithArgs(2, int64(7), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DecrementStock(ctx, db, 7, 2))

	// floor check failed: nothing updated
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $2 AND quantity >= $3")).
		WithArgs(5, int64(7), 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DecrementStock(ctx, db, 7, 5), ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_UpdateWritesOnlyPatchedColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepo(db)
	ctx := context.Background()

	// toggling visibility must not write quantity back over a concurrent decrement
	inactive := false
	mock.ExpectExec(`^UPDATE products SET active = \$1 WHERE id = \$2$`).
		WithArgs(false, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Update(ctx, 7, models.ProductPatch{Active: &inactive}))

	name, qty := "Lamp", 4
	mock.ExpectExec(`^UPDATE products SET name = \$1, quantity = \$2 WHERE id = \$3$`).
		WithArgs("Lamp", 4, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Update(ctx, 7, models.ProductPatch{Name: &name, Quantity: &qty}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET active = $1")).
		WithArgs(false, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(ctx, 99, models.ProductPatch{Active: &inactive}), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_GetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := NewProductRepo(db).Get(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestDiscountRepo_Consume(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDiscountRepo(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("(max_uses = -1 OR used_count < max_uses)")).
		WithArgs("SAVE10").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Consume(ctx, db, "save10"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE discount_codes")).
		WithArgs("SAVE10").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Consume(ctx, db, "SAVE10"), ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiscountRepo_GetByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDiscountRepo(db)
	ctx := context.Background()
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	cols := []string{"id", "code", "discount_percentage", "expiry_date", "max_uses", "used_count",
		"is_general", "client_id", "client_username", "active", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM discount_codes WHERE code = $1")).
		WithArgs("VIP").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "VIP", "15", expiry, 1, 0, false, 42, nil, true, time.Now()))

	d, err := repo.GetByCode(ctx, " vip ")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, decimal.NewFromInt(15).Equal(d.Percentage))
	require.NotNil(t, d.ClientID)
	assert.Equal(t, int64(42), *d.ClientID)
	assert.Equal(t, expiry, *d.ExpiryDate)
	assert.False(t, d.IsGeneral)

	mock.ExpectQuery(regexp.QuoteMeta("FROM discount_codes WHERE code = $1")).
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows(cols))
	d, err = repo.GetByCode(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestOrderRepo_Transition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepo(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs("completed", "ABCD1234", "pending").
		WillReturnResult(sqlmock.NewResult(0, 2))
	assert.NoError(t, repo.Transition(ctx, "ABCD1234", models.OrderStatusPending, models.OrderStatusCompleted))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs("completed", "ABCD1234", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Transition(ctx, "ABCD1234", models.OrderStatusPending, models.OrderStatusCompleted), ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_Owner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM orders WHERE order_id = $1")).
		WithArgs("ABCD1234").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(42)))
	owner, found, err := repo.Owner(ctx, db, "ABCD1234")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(42), owner)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM orders")).
		WithArgs("FFFF0000").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	_, found, err = repo.Owner(ctx, db, "FFFF0000")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepo_AddOne(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCartRepo(db)
	ctx := context.Background()

	// first unit fits
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT quantity FROM products")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT quantity FROM cart")).
		WithArgs(int64(10), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart")).
		WithArgs(int64(10), int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	qty, err := repo.AddOne(ctx, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	// stock exhausted by the cart itself
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT quantity FROM products")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT quantity FROM cart")).
		WithArgs(int64(10), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(2))
	mock.ExpectRollback()

	_, err = repo.AddOne(ctx, 10, 3)
	assert.ErrorIs(t, err, ErrConflict)

	// inactive or deleted product
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT quantity FROM products")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))
	mock.ExpectRollback()

	_, err = repo.AddOne(ctx, 10, 4)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentMethodRepo_DeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM payment_settings")).
		WithArgs("doge").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPaymentMethodRepo(db).Delete(context.Background(), " DOGE ")
	assert.ErrorIs(t, err, ErrNotFound)
}
