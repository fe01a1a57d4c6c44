package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
)

func TestCatalog_BrowseAndCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.addProduct(t, "Widget", "10.00", 1)
	f.addProduct(t, "Empty", "10.00", 0)

	list, err := f.catalog.Browse(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Widget", list[0].Name)

	qty, err := f.catalog.AddToCart(ctx, 1, widget)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	_, err = f.catalog.AddToCart(ctx, 1, widget)
	assert.Equal(t, ReasonInsufficientStock, ReasonOf(err))

	_, err = f.catalog.AddToCart(ctx, 1, 999)
	assert.Equal(t, ReasonProductNotFound, ReasonOf(err))

	require.NoError(t, f.catalog.ClearCart(ctx, 1))
	lines, err := f.catalog.Cart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCatalog_AdminProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateProduct(ctx, models.Product{Name: " ", Price: decimal.NewFromInt(1)})
	assert.True(t, IsKind(err, KindValidation))
	_, err = f.catalog.CreateProduct(ctx, models.Product{Name: "Map", Price: decimal.NewFromInt(1), Coordinates: "200, 1"})
	assert.True(t, IsKind(err, KindValidation))

	p, err := f.catalog.CreateProduct(ctx, models.Product{Name: " Map ", Price: decimal.NewFromInt(3), Quantity: 2, Active: true})
	require.NoError(t, err)
	assert.Equal(t, "Map", p.Name)

	toggled, err := f.catalog.ToggleActive(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	_, err = f.catalog.Product(ctx, p.ID)
	assert.Equal(t, ReasonProductNotFound, ReasonOf(err), "inactive products are hidden from buyers")

	qty := -1
	_, err = f.catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{Quantity: &qty})
	assert.True(t, IsKind(err, KindValidation))

	require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))
	err = f.catalog.DeleteProduct(ctx, p.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCatalog_ContentAndPaymentMethods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	faq, err := f.catalog.Content(ctx, "faq")
	require.NoError(t, err)
	assert.NotEmpty(t, faq)

	require.NoError(t, f.catalog.SetContent(ctx, "faq", "Ask us anything"))
	faq, err = f.catalog.Content(ctx, "faq")
	require.NoError(t, err)
	assert.Equal(t, "Ask us anything", faq)

	_, err = f.catalog.Content(ctx, "missing")
	assert.True(t, IsKind(err, KindNotFound))

	require.NoError(t, f.catalog.SavePaymentMethod(ctx, models.PaymentMethod{CurrencyCode: " ETH ", Address: "0xabc", Blockchain: "ERC20"}))
	m, err := f.catalog.PaymentMethod(ctx, "eth")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", m.Address)

	assert.True(t, IsKind(f.catalog.SavePaymentMethod(ctx, models.PaymentMethod{CurrencyCode: "sol"}), KindValidation))
	require.NoError(t, f.catalog.DeletePaymentMethod(ctx, "eth"))
	assert.Equal(t, ReasonPaymentMethodNotFound, ReasonOf(f.catalog.DeletePaymentMethod(ctx, "eth")))
}

func TestParseCoordinatesAndPrice(t *testing.T) {
	c, err := ParseCoordinates(" 52.52 ,13.40")
	require.NoError(t, err)
	assert.Equal(t, "52.52, 13.40", c)

	for _, bad := range []string{"52.52", "a, b", "91, 0", "0, 181"} {
		_, err := ParseCoordinates(bad)
		assert.Error(t, err, bad)
	}

	p, err := ParsePrice("25,5")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("25.50")))

	_, err = ParsePrice("-3")
	assert.Error(t, err)
}
