package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/chat"
	"github.com/Cheertaboi/chat-storefront-service/internal/models"
	"github.com/Cheertaboi/chat-storefront-service/internal/repository"
	"github.com/Cheertaboi/chat-storefront-service/internal/transport"
	"github.com/Cheertaboi/chat-storefront-service/pkg/db"
)

const testAdminID int64 = 1000

type sentMessage struct {
	To      int64
	Text    string
	Photo   string
	Buttons transport.Keyboard
}

// recordingMessenger keeps everything sent and can be told to fail.
type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (m *recordingMessenger) SendText(_ context.Context, to int64, text string, kb transport.Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("chat platform unavailable")
	}
	m.sent = append(m.sent, sentMessage{To: to, Text: text, Buttons: kb})
	return nil
}

func (m *recordingMessenger) SendPhoto(_ context.Context, to int64, ref, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("chat platform unavailable")
	}
	m.sent = append(m.sent, sentMessage{To: to, Text: caption, Photo: ref})
	return nil
}

func (m *recordingMessenger) AnswerEvent(context.Context, string, string) error { return nil }

func (m *recordingMessenger) to(recipient int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.sent {
		if s.To == recipient {
			out = append(out, s)
		}
	}
	return out
}

type fixture struct {
	db        *sql.DB
	products  *repository.ProductRepo
	carts     *repository.CartRepo
	codes     *repository.DiscountRepo
	orders    *repository.OrderRepo
	methods   *repository.PaymentMethodRepo
	messenger *recordingMessenger

	catalog   *CatalogService
	discounts *DiscountService
	checkout  *CheckoutService
	payments  *PaymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.NewConnection(db.Config{Driver: db.DriverSQLite, Path: filepath.Join(t.TempDir(), "store.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))

	logger := zap.NewNop()
	f := &fixture{
		db:        conn,
		products:  repository.NewProductRepo(conn),
		carts:     repository.NewCartRepo(conn),
		codes:     repository.NewDiscountRepo(conn),
		orders:    repository.NewOrderRepo(conn),
		methods:   repository.NewPaymentMethodRepo(conn),
		messenger: &recordingMessenger{},
	}
	f.catalog = NewCatalogService(f.products, f.carts, repository.NewContentRepo(conn), f.methods, repository.NewStatsRepo(conn), logger)
	f.discounts = NewDiscountService(f.codes, logger)
	f.payments = NewPaymentService(f.orders, f.products, f.messenger, chat.NewRenderer(decimal.RequireFromString("1.16")), testAdminID, logger)
	f.checkout = NewCheckoutService(conn, f.products, f.carts, f.orders, f.methods, f.discounts, f.payments, logger)

	require.NoError(t, f.methods.Upsert(context.Background(), models.PaymentMethod{CurrencyCode: "btc", Address: "bc1qstore", Blockchain: "Bitcoin"}))
	return f
}

func (f *fixture) addProduct(t *testing.T, name, price string, qty int) int64 {
	t.Helper()
	id, err := f.products.Create(context.Background(), models.Product{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Quantity:    qty,
		Image1:      "img-" + name,
		Coordinates: "52.52, 13.40",
		Active:      true,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) addCode(t *testing.T, d models.DiscountCode) {
	t.Helper()
	d.Active = true
	_, err := f.codes.Create(context.Background(), d)
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func (f *fixture) usedCount(t *testing.T, code string) int {
	t.Helper()
	d, err := f.codes.GetByCode(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, d)
	return d.UsedCount
}

// placeOrder runs a single-product checkout to completion.
func (f *fixture) placeOrder(t *testing.T, buyer Buyer, productID int64) *models.Order {
	t.Helper()
	ctx := context.Background()
	co, err := f.checkout.BeginSingle(ctx, productID)
	require.NoError(t, err)
	_, err = f.checkout.SelectPayment(ctx, co, "btc")
	require.NoError(t, err)
	order, err := f.checkout.Finalize(ctx, buyer, co, "bc1qbuyer")
	require.NoError(t, err)
	return order
}
