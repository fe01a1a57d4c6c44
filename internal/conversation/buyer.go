package conversation

import (
	"context"

	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/chat"
	"github.com/Cheertaboi/chat-storefront-service/internal/service"
	"github.com/Cheertaboi/chat-storefront-service/internal/session"
)

func (m *Machine) onBuyerAction(ctx context.Context, t *turn) error {
	a := t.ev.Action
	switch a.Kind {
	case chat.ActionMainMenu:
		t.conv.Reset()
		return m.showMainMenu(ctx, t)

	case chat.ActionBrowse:
		t.conv.Reset()
		products, err := m.catalog.Browse(ctx)
		if err != nil {
			return err
		}
		t.conv.State = session.StateBrowsingCatalog
		t.show(m.render.ProductList(products))

	case chat.ActionViewProduct:
		p, err := m.catalog.Product(ctx, a.ProductID)
		if err != nil {
			return m.expected(t, err)
		}
		t.conv.Reset()
		t.conv.State = session.StateViewingProduct
		t.conv.ProductID = p.ID
		t.show(m.render.ProductDetail(p))

	case chat.ActionAddToCart:
		p, err := m.catalog.Product(ctx, a.ProductID)
		if err != nil {
			return m.expected(t, err)
		}
		qty, err := m.catalog.AddToCart(ctx, t.ev.Actor.ID, p.ID)
		if err != nil {
			return m.expected(t, err)
		}
		t.show(m.render.AddedToCart(p.Name, qty))

	case chat.ActionViewCart:
		return m.showCart(ctx, t)

	case chat.ActionClearCart:
		if err := m.catalog.ClearCart(ctx, t.ev.Actor.ID); err != nil {
			return err
		}
		return m.showCart(ctx, t)

	case chat.ActionBuyNow:
		co, err := m.checkout.BeginSingle(ctx, a.ProductID)
		if err != nil {
			return m.expected(t, err)
		}
		m.startCheckout(t, co)

	case chat.ActionCheckoutCart:
		co, err := m.checkout.BeginCart(ctx, t.ev.Actor.ID)
		if err != nil {
			return m.expected(t, err)
		}
		m.startCheckout(t, co)

	case chat.ActionSkipDiscount:
		if !m.inCheckout(t, session.StateAwaitingDiscountInput, session.StateCheckoutPending) {
			return nil
		}
		t.conv.Checkout.ClearDiscount()
		return m.showPaymentMethods(ctx, t)

	case chat.ActionContinueToPayment, chat.ActionBackToPaymentMethods:
		if !m.inCheckout(t, session.StateCheckoutPending, session.StateAwaitingPaymentMethod, session.StateShowingPaymentDetails) {
			return nil
		}
		return m.showPaymentMethods(ctx, t)

	case chat.ActionChooseCurrency:
		if !m.inCheckout(t, session.StateAwaitingPaymentMethod, session.StateShowingPaymentDetails) {
			return nil
		}
		method, err := m.checkout.SelectPayment(ctx, t.conv.Checkout, a.Currency)
		if err != nil {
			if service.IsKind(err, service.KindNotFound) {
				t.show(m.render.Notice(service.MessageOf(err, "Payment method not available.")))
				return m.showPaymentMethods(ctx, t)
			}
			return err
		}
		t.conv.State = session.StateShowingPaymentDetails
		t.show(m.render.PaymentDetails(t.conv.Checkout, *method))

	case chat.ActionPaymentMade:
		if !m.inCheckout(t, session.StateShowingPaymentDetails) {
			return nil
		}
		if err := m.checkout.ReserveOrderID(ctx, t.conv.Checkout); err != nil {
			return err
		}
		t.conv.State = session.StateAwaitingSourceAddress
		t.show(m.render.SourceAddressPrompt())

	case chat.ActionCancel:
		t.conv.Reset()
		t.show(m.render.Cancelled())

	case chat.ActionContent:
		text, err := m.catalog.Content(ctx, a.ContentKey)
		if err != nil {
			return m.expected(t, err)
		}
		t.show(m.render.Content(text))
	}
	return nil
}

func (m *Machine) showCart(ctx context.Context, t *turn) error {
	lines, err := m.catalog.Cart(ctx, t.ev.Actor.ID)
	if err != nil {
		return err
	}
	t.conv.Reset()
	t.conv.State = session.StateCartView
	t.show(m.render.Cart(lines))
	return nil
}

func (m *Machine) startCheckout(t *turn, co *session.Checkout) {
	t.conv.Reset()
	t.conv.Checkout = co
	t.conv.State = session.StateAwaitingDiscountInput
	t.show(m.render.CheckoutSummary(co))
}

// inCheckout checks that a checkout button still matches the session. A
// stale button, e.g. after the session expired, resets the user to Idle.
func (m *Machine) inCheckout(t *turn, states ...session.State) bool {
	if t.conv.Checkout != nil {
		for _, s := range states {
			if t.conv.State == s {
				return true
			}
		}
	}
	t.conv.Reset()
	t.show(m.render.Notice("This checkout is no longer active. Please start again."))
	return false
}

func (m *Machine) showPaymentMethods(ctx context.Context, t *turn) error {
	methods, err := m.catalog.PaymentMethods(ctx)
	if err != nil {
		return err
	}
	t.conv.State = session.StateAwaitingPaymentMethod
	t.show(m.render.PaymentMethods(t.conv.Checkout, methods))
	return nil
}

func (m *Machine) onDiscountCode(ctx context.Context, t *turn) error {
	if t.conv.Checkout == nil {
		t.conv.Reset()
		return m.showMainMenu(ctx, t)
	}
	err := m.checkout.ApplyDiscount(ctx, t.conv.Checkout, t.buyer(), t.ev.Text)
	if err != nil {
		if service.IsKind(err, service.KindDiscount) {
			t.show(m.render.DiscountRejected(service.MessageOf(err, "Invalid discount code.")))
			return nil
		}
		return err
	}
	t.conv.State = session.StateCheckoutPending
	t.show(m.render.DiscountApplied(t.conv.Checkout))
	return nil
}

func (m *Machine) onSourceAddress(ctx context.Context, t *turn) error {
	co := t.conv.Checkout
	if co == nil {
		t.conv.Reset()
		return m.showMainMenu(ctx, t)
	}

	order, err := m.checkout.Finalize(ctx, t.buyer(), co, t.ev.Text)
	switch {
	case err == nil:
	case service.IsKind(err, service.KindValidation):
		t.show(m.render.Notice(service.MessageOf(err, "Please send the address you paid from.")))
		return nil
	case service.IsKind(err, service.KindDiscount):
		// the code ran out between validation and payment; ask again
		co.ClearDiscount()
		t.conv.State = session.StateAwaitingDiscountInput
		t.show(m.render.DiscountRejected(service.MessageOf(err, "This discount code can no longer be used.")))
		return nil
	case service.IsKind(err, service.KindConflict):
		t.conv.Reset()
		t.show(m.render.Notice(service.MessageOf(err, "Not enough quantity available.")))
		return nil
	default:
		return err
	}

	t.conv.Reset()
	t.show(m.render.OrderPlaced(order))
	if thanks, err := m.catalog.Content(ctx, "success_message"); err == nil && thanks != "" {
		t.show(m.render.Notice(thanks))
	} else if err != nil {
		m.logger.Warn("load success message", zap.Error(err))
	}
	return nil
}
