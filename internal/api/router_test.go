package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/api/handlers"
	"github.com/Cheertaboi/chat-storefront-service/internal/chat"
	"github.com/Cheertaboi/chat-storefront-service/internal/repository"
	"github.com/Cheertaboi/chat-storefront-service/internal/service"
	"github.com/Cheertaboi/chat-storefront-service/internal/transport"
	"github.com/Cheertaboi/chat-storefront-service/pkg/db"
)

const (
	adminID       = int64(1000)
	secret        = "test-secret"
	gatewaySecret = "gateway-secret"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []chat.Event
}

func (r *recordedEvents) Handle(_ context.Context, ev chat.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type nopMessenger struct{}

func (nopMessenger) SendText(context.Context, int64, string, transport.Keyboard) error { return nil }
func (nopMessenger) SendPhoto(context.Context, int64, string, string) error { return nil }
func (nopMessenger) AnswerEvent(context.Context, string, string) error { return nil }

func newTestServer(t *testing.T) (http.Handler, *recordedEvents) {
	t.Helper()
	conn, err := db.NewConnection(db.Config{Driver: db.DriverSQLite, Path: filepath.Join(t.TempDir(), "store.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))

	logger := zap.NewNop()
	products := repository.NewProductRepo(conn)
	orders := repository.NewOrderRepo(conn)
	catalog := service.NewCatalogService(products, repository.NewCartRepo(conn), repository.NewContentRepo(conn),
		repository.NewPaymentMethodRepo(conn), repository.NewStatsRepo(conn), logger)
	discounts := service.NewDiscountService(repository.NewDiscountRepo(conn), logger)
	payments := service.NewPaymentService(orders, products, nopMessenger{}, chat.NewRenderer(decimal.Zero), adminID, logger)

	events := &recordedEvents{}
	cfg := RouterConfig{AdminID: adminID, AdminJWTSecret: secret, GatewaySecret: gatewaySecret, EventRate: 100, EventBurst: 100}
	h := NewRouter(cfg, handlers.NewEventsHandler(events, logger), handlers.NewAdminHandler(catalog, discounts, payments, logger), logger)
	return h, events
}

func adminToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(adminID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_Events(t *testing.T) {
	h, events := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/events", map[string]any{
		"id":     "cb-1",
		"type":   "action",
		"actor":  map[string]any{"id": 42, "username": "@alice"},
		"action": "product:7",
	}, gatewaySecret)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, events.events, 1)
	ev := events.events[0]
	assert.Equal(t, chat.EventAction, ev.Kind)
	assert.Equal(t, chat.ActionViewProduct, ev.Action.Kind)
	assert.Equal(t, int64(7), ev.Action.ProductID)
	assert.Equal(t, "alice", ev.Actor.Username)

	rec = do(t, h, http.MethodPost, "/events", map[string]any{"type": "command", "actor": map[string]any{"id": 42}, "command": "/START"}, gatewaySecret)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "start", events.events[1].Command)

	for _, bad := range []map[string]any{
		{"type": "action", "actor": map[string]any{"id": 42}, "action": "product:x"},
		{"type": "text", "actor": map[string]any{}},
		{"type": "media", "actor": map[string]any{"id": 42}},
		{"type": "carrier-pigeon", "actor": map[string]any{"id": 42}},
	} {
		rec := do(t, h, http.MethodPost, "/events", bad, gatewaySecret)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
	assert.Len(t, events.events, 2)
}

func TestRouter_EventsRequireGatewayToken(t *testing.T) {
	h, events := newTestServer(t)
	forged := map[string]any{
		"id":     "cb-2",
		"type":   "action",
		"actor":  map[string]any{"id": adminID},
		"action": "admin_confirm_yes:ABCD1234",
	}

	rec := do(t, h, http.MethodPost, "/events", forged, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/events", forged, "guess")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// an admin API token is not a gateway credential
	rec = do(t, h, http.MethodPost, "/events", forged, adminToken(t))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, events.events, "refused events never reach the conversation")
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/admin/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_AdminProductsAndCodes(t *testing.T) {
	h, _ := newTestServer(t)
	token := adminToken(t)

	rec := do(t, h, http.MethodPost, "/admin/products", map[string]any{
		"name": "Widget", "price": "12.50", "quantity": 3, "coordinates": "10.5, 20.25",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created handlers.ProductResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.True(t, created.Active)

	rec = do(t, h, http.MethodPatch, "/admin/products/"+strconv.FormatInt(created.ID, 10), map[string]any{"quantity": -1}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, "/admin/products/"+strconv.FormatInt(created.ID, 10), map[string]any{"active": false}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/admin/products/999", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/admin/discount-codes", map[string]any{"code": "save10", "percentage": 10, "max_uses": -1, "is_general": true}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/admin/discount-codes", map[string]any{"code": "SAVE10", "percentage": 5, "max_uses": -1, "is_general": true}, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/admin/discount-codes", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var codes []handlers.DiscountCodeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&codes))
	require.Len(t, codes, 1)
	assert.Equal(t, "SAVE10", codes[0].Code)

	rec = do(t, h, http.MethodPost, "/admin/orders/DEADBEEF/confirm", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/admin/orders?status=bogus", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/admin/payment-methods/ETH", map[string]any{"address": "0xabc", "blockchain": "ERC20"}, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/admin/stats", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 1, stats["products"])
	assert.Equal(t, 0, stats["active_products"])
	assert.Equal(t, 1, stats["discount_codes"])
}
