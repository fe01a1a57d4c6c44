package chat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
	"github.com/Cheertaboi/chat-storefront-service/internal/session"
)

func TestParseAction_RoundTrip(t *testing.T) {
	samples := []Action{
		Simple(ActionMainMenu),
		ForProduct(ActionViewProduct, 12),
		ForProduct(ActionAdminConfirmDelete, 3),
		ForOrder(ActionAdminConfirmYes, "AB12CD34"),
		ForCurrency("btc"),
		ForContent("faq"),
	}
	for _, a := range samples {
		got, err := ParseAction(a.Encode())
		require.NoError(t, err, a.Encode())
		assert.Equal(t, a, got)
	}
}

func TestParseAction_PrefixesDoNotCollide(t *testing.T) {
	a, err := ParseAction("admin_confirm_yes:AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, ActionAdminConfirmYes, a.Kind)

	a, err = ParseAction("admin_confirm:AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, ActionAdminConfirm, a.Kind)
	assert.True(t, a.AdminOnly())
}

func TestParseAction_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"nonsense",
		"product",
		"product:abc",
		"product:-1",
		"main_menu:1",
		"admin_confirm:SHORT",
		"content:secrets",
	} {
		_, err := ParseAction(raw)
		assert.Error(t, err, raw)
	}

	a, err := ParseAction("payment: BTC ")
	require.NoError(t, err)
	assert.Equal(t, "btc", a.Currency)

	a, err = ParseAction("admin_reject:ab12cd34")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD34", a.OrderID)
}

func TestRenderer_Prices(t *testing.T) {
	r := NewRenderer(decimal.RequireFromString("1.16"))
	assert.Equal(t, "45.00€ (~$52.20)", r.Price(decimal.NewFromInt(45)))
	assert.Equal(t, "45.00€", NewRenderer(decimal.Zero).Price(decimal.NewFromInt(45)))
}

func TestRenderer_MainMenuAdminButton(t *testing.T) {
	r := NewRenderer(decimal.Zero)
	buyer := r.MainMenu("hi", false)
	admin := r.MainMenu("hi", true)
	assert.Len(t, admin.Keyboard, len(buyer.Keyboard)+1)
	assert.Equal(t, "admin_panel", admin.Keyboard[len(admin.Keyboard)-1][0].Action)
}

func TestRenderer_ScreensCarryParsableActions(t *testing.T) {
	r := NewRenderer(decimal.RequireFromString("1.16"))
	p := &models.Product{ID: 4, Name: "Widget", Price: decimal.NewFromInt(10), Quantity: 2, Active: true}
	co := &session.Checkout{Total: decimal.NewFromInt(10), Items: []session.LineItem{{ProductID: 4, Name: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 1}}}
	order := &models.Order{ID: "AB12CD34", Status: models.OrderStatusPending, Lines: []models.OrderLine{{ProductName: "Widget", Quantity: 1}}}

	screens := []Screen{
		r.MainMenu("hi", true),
		r.ProductList([]models.Product{*p}),
		r.ProductDetail(p),
		r.Cart([]models.CartLine{{ProductID: 4, Name: "Widget", Price: p.Price, Quantity: 1}}),
		r.CheckoutSummary(co),
		r.PaymentMethods(co, []models.PaymentMethod{{CurrencyCode: "btc", Address: "x"}}),
		r.PaymentDetails(co, models.PaymentMethod{CurrencyCode: "btc", Address: "x"}),
		r.AdminNewOrder(order),
		r.AdminConfirmPrompt(order),
		r.AdminProducts([]models.Product{*p}),
		r.AdminProduct(p),
		r.AdminDeleteConfirm(p),
	}
	for _, s := range screens {
		for _, row := range s.Keyboard {
			for _, b := range row {
				_, err := ParseAction(b.Action)
				assert.NoError(t, err, b.Action)
			}
		}
	}
}
