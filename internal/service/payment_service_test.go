package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
)

func TestPaymentService_ConfirmDeliversOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.addProduct(t, "Widget", "10.00", 3)
	buyer := Buyer{ID: 55, DisplayName: "@erin"}
	order := f.placeOrder(t, buyer, widget)

	out, err := f.payments.Confirm(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Zero(t, out.Undelivered)
	assert.Equal(t, models.OrderStatusCompleted, out.Order.Status)

	delivered := f.messenger.to(buyer.ID)
	require.Len(t, delivered, 2, "one text and one photo")
	assert.Contains(t, delivered[0].Text, "Widget x1")
	assert.Contains(t, delivered[0].Text, "52.52, 13.40")
	assert.Equal(t, "img-Widget", delivered[1].Photo)

	out, err = f.payments.Confirm(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Len(t, f.messenger.to(buyer.ID), 2, "second confirm must not resend")
}

func TestPaymentService_RejectAfterConfirmStaysCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.addProduct(t, "Widget", "10.00", 3)
	order := f.placeOrder(t, Buyer{ID: 8}, widget)

	_, err := f.payments.Confirm(ctx, order.ID)
	require.NoError(t, err)

	out, err := f.payments.Reject(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, out.Changed)

	stored, err := f.payments.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)
}

func TestPaymentService_Reject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.addProduct(t, "Widget", "10.00", 3)
	order := f.placeOrder(t, Buyer{ID: 9}, widget)

	out, err := f.payments.Reject(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, models.OrderStatusRejected, out.Order.Status)

	notices := f.messenger.to(9)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].Text, order.ID)

	// stock is not restored on rejection
	assert.Equal(t, 2, f.stock(t, widget))

	_, err = f.payments.Confirm(ctx, order.ID)
	assert.Equal(t, ReasonOrderClosed, ReasonOf(err))
	assert.Len(t, f.messenger.to(9), 1)
}

func TestPaymentService_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.payments.Confirm(ctx, "DEADBEEF")
	assert.Equal(t, ReasonOrderNotFound, ReasonOf(err))
	_, err = f.payments.Reject(ctx, "DEADBEEF")
	assert.Equal(t, ReasonOrderNotFound, ReasonOf(err))
	_, err = f.payments.RequestConfirmation(ctx, "DEADBEEF")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestPaymentService_DeliveryFailureIsCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.addProduct(t, "Widget", "10.00", 3)
	order := f.placeOrder(t, Buyer{ID: 10}, widget)

	f.messenger.fail = true
	out, err := f.payments.Confirm(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, 2, out.Undelivered)
}
