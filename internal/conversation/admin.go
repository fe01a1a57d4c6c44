package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Cheertaboi/chat-storefront-service/internal/chat"
	"github.com/Cheertaboi/chat-storefront-service/internal/models"
	"github.com/Cheertaboi/chat-storefront-service/internal/service"
	"github.com/Cheertaboi/chat-storefront-service/internal/session"
)

func (m *Machine) showAdminPanel(t *turn) error {
	t.conv.Reset()
	t.conv.State = session.StateAdminPanel
	t.show(m.render.AdminPanel())
	return nil
}

func (m *Machine) onAdminAction(ctx context.Context, t *turn) error {
	a := t.ev.Action
	switch a.Kind {
	case chat.ActionAdminPanel:
		return m.showAdminPanel(t)

	case chat.ActionAdminProducts:
		return m.showAdminProducts(ctx, t)

	case chat.ActionAdminEditProduct, chat.ActionAdminCancelDelete:
		p, err := m.catalog.AnyProduct(ctx, a.ProductID)
		if err != nil {
			return m.expected(t, err)
		}
		t.show(m.render.AdminProduct(p))

	case chat.ActionAdminToggleActive:
		p, err := m.catalog.ToggleActive(ctx, a.ProductID)
		if err != nil {
			return m.expected(t, err)
		}
		t.show(m.render.AdminProduct(p))

	case chat.ActionAdminDeleteProduct:
		p, err := m.catalog.AnyProduct(ctx, a.ProductID)
		if err != nil {
			return m.expected(t, err)
		}
		t.show(m.render.AdminDeleteConfirm(p))

	case chat.ActionAdminConfirmDelete:
		if err := m.catalog.DeleteProduct(ctx, a.ProductID); err != nil {
			return m.expected(t, err)
		}
		t.show(m.render.AdminNotice("Product deleted."))
		return m.showAdminProducts(ctx, t)

	case chat.ActionAdminAddProduct:
		t.conv.Reset()
		t.conv.State = session.StateAdminProductWizard
		t.conv.Draft = &session.ProductDraft{Step: session.StepName}
		t.show(m.render.WizardPrompt(session.StepName))

	case chat.ActionAdminStats:
		stats, err := m.catalog.Stats(ctx)
		if err != nil {
			return err
		}
		t.show(m.render.AdminStats(stats))

	case chat.ActionAdminReview, chat.ActionAdminConfirmNo:
		order, err := m.payments.Order(ctx, a.OrderID)
		if err != nil {
			return m.expected(t, err)
		}
		m.review(t, order, session.StateAwaitingAdminReview)
		t.show(m.render.AdminReview(order))

	case chat.ActionAdminConfirm:
		order, err := m.payments.RequestConfirmation(ctx, a.OrderID)
		if err != nil {
			return m.expected(t, err)
		}
		if order.Status.Terminal() {
			t.show(m.render.AdminOrderStatus(order))
			return nil
		}
		m.review(t, order, session.StateAwaitingAdminYesNo)
		t.show(m.render.AdminConfirmPrompt(order))

	case chat.ActionAdminConfirmYes:
		out, err := m.payments.Confirm(ctx, a.OrderID)
		if err != nil && out.Order == nil {
			return m.expected(t, err)
		}
		m.afterDecision(t, out, "confirmed, products delivered to the buyer")

	case chat.ActionAdminReject:
		out, err := m.payments.Reject(ctx, a.OrderID)
		if err != nil && out.Order == nil {
			return m.expected(t, err)
		}
		m.afterDecision(t, out, "rejected, the buyer has been notified")
	}
	return nil
}

func (m *Machine) showAdminProducts(ctx context.Context, t *turn) error {
	products, err := m.catalog.AllProducts(ctx)
	if err != nil {
		return err
	}
	t.conv.State = session.StateAdminPanel
	t.show(m.render.AdminProducts(products))
	return nil
}

func (m *Machine) review(t *turn, order *models.Order, state session.State) {
	t.conv.Reset()
	t.conv.State = state
	t.conv.ReviewOrderID = order.ID
}

func (m *Machine) afterDecision(t *turn, out service.Outcome, done string) {
	t.conv.Reset()
	t.conv.State = session.StateAdminPanel
	if !out.Changed {
		t.show(m.render.AdminOrderStatus(out.Order))
		return
	}
	text := fmt.Sprintf("Order %s %s.", out.Order.ID, done)
	if out.Undelivered > 0 {
		text += fmt.Sprintf("\n⚠️ %d message(s) to the buyer could not be sent.", out.Undelivered)
	}
	t.show(m.render.AdminNotice(text))
}

func (m *Machine) wizardRetry(t *turn, problem string) error {
	prompt := m.render.WizardPrompt(t.conv.Draft.Step)
	prompt.Text = problem + "\n" + prompt.Text
	t.show(prompt)
	return nil
}

func (m *Machine) wizardNext(t *turn, step session.WizardStep) error {
	t.conv.Draft.Step = step
	t.show(m.render.WizardPrompt(step))
	return nil
}

func (m *Machine) onWizardText(ctx context.Context, t *turn) error {
	d := t.conv.Draft
	if d == nil {
		return m.showAdminPanel(t)
	}
	text := strings.TrimSpace(t.ev.Text)

	switch d.Step {
	case session.StepName:
		if text == "" {
			return m.wizardRetry(t, "The name cannot be empty.")
		}
		d.Name = text
		return m.wizardNext(t, session.StepPrice)

	case session.StepPrice:
		price, err := service.ParsePrice(text)
		if err != nil {
			return m.wizardRetry(t, service.MessageOf(err, "Invalid price."))
		}
		d.Price = price
		return m.wizardNext(t, session.StepDescription)

	case session.StepDescription:
		d.Description = text
		return m.wizardNext(t, session.StepQuantity)

	case session.StepQuantity:
		qty, err := strconv.Atoi(text)
		if err != nil || qty < 0 {
			return m.wizardRetry(t, "The quantity must be a whole number, 0 or more.")
		}
		d.Quantity = qty
		return m.wizardNext(t, session.StepImage1)

	case session.StepImage2Option:
		switch strings.ToLower(text) {
		case "yes", "y":
			return m.wizardNext(t, session.StepImage2)
		case "no", "n":
			return m.wizardNext(t, session.StepCoordinates)
		}
		return m.wizardRetry(t, "Please reply yes or no.")

	case session.StepCoordinates:
		if !strings.EqualFold(text, "skip") {
			coords, err := service.ParseCoordinates(text)
			if err != nil {
				return m.wizardRetry(t, service.MessageOf(err, "Invalid coordinates."))
			}
			d.Coordinates = coords
		}
		return m.finishWizard(ctx, t)

	case session.StepImage1, session.StepImage2:
		return m.wizardRetry(t, "Please send an image.")
	}
	return nil
}

func (m *Machine) onWizardMedia(ctx context.Context, t *turn) error {
	d := t.conv.Draft
	if d == nil {
		return m.showAdminPanel(t)
	}
	switch d.Step {
	case session.StepImage1:
		d.Image1 = t.ev.AssetRef
		return m.wizardNext(t, session.StepImage2Option)
	case session.StepImage2:
		d.Image2 = t.ev.AssetRef
		return m.wizardNext(t, session.StepCoordinates)
	}
	return m.wizardRetry(t, "An image is not expected at this step.")
}

func (m *Machine) finishWizard(ctx context.Context, t *turn) error {
	d := t.conv.Draft
	p, err := m.catalog.CreateProduct(ctx, models.Product{
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Quantity:    d.Quantity,
		Image1:      d.Image1,
		Image2:      d.Image2,
		Coordinates: d.Coordinates,
		Active:      true,
	})
	if err != nil {
		if service.IsKind(err, service.KindValidation) {
			// restart rather than leave a half-valid draft behind
			t.conv.Draft = &session.ProductDraft{Step: session.StepName}
			return m.wizardRetry(t, service.MessageOf(err, "The product is invalid."))
		}
		return err
	}
	t.conv.Reset()
	t.conv.State = session.StateAdminPanel
	t.show(m.render.AdminNotice(fmt.Sprintf("Product %s created.", p.Name)))
	t.show(m.render.AdminProduct(p))
	return nil
}
