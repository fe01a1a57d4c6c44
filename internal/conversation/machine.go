// Package conversation drives each user's chat dialogue: it loads the
// user's session, applies one inbound event, saves the session and sends
// the resulting screens. Events for the same user are handled one at a time.
package conversation

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/chat"
	"github.com/Cheertaboi/chat-storefront-service/internal/concurrency"
	"github.com/Cheertaboi/chat-storefront-service/internal/service"
	"github.com/Cheertaboi/chat-storefront-service/internal/session"
	"github.com/Cheertaboi/chat-storefront-service/internal/transport"
)

const fallbackWelcome = "Welcome! Choose from the options below:"

type Machine struct {
	catalog   *service.CatalogService
	checkout  *service.CheckoutService
	payments  *service.PaymentService
	sessions  session.Store
	queue     *concurrency.UserQueue
	messenger transport.Messenger
	render    *chat.Renderer
	adminID   int64
	now       func() time.Time
	logger    *zap.Logger
}

type Deps struct {
	Catalog   *service.CatalogService
	Checkout  *service.CheckoutService
	Payments  *service.PaymentService
	Sessions  session.Store
	Queue     *concurrency.UserQueue
	Messenger transport.Messenger
	Render    *chat.Renderer
	AdminID   int64
	Logger    *zap.Logger
}

func NewMachine(d Deps) *Machine {
	return &Machine{
		catalog:   d.Catalog,
		checkout:  d.Checkout,
		payments:  d.Payments,
		sessions:  d.Sessions,
		queue:     d.Queue,
		messenger: d.Messenger,
		render:    d.Render,
		adminID:   d.AdminID,
		now:       time.Now,
		logger:    d.Logger,
	}
}

// turn collects what one event produces for its sender.
type turn struct {
	ev      chat.Event
	conv    *session.Conversation
	screens []chat.Screen
}

func (t *turn) show(s chat.Screen) {
	t.screens = append(t.screens, s)
}

func (t *turn) buyer() service.Buyer {
	return service.Buyer{ID: t.ev.Actor.ID, Username: t.ev.Actor.Username, DisplayName: t.ev.Actor.DisplayName()}
}

// Handle processes ev after any earlier events from the same user.
func (m *Machine) Handle(ctx context.Context, ev chat.Event) error {
	return m.queue.Do(ctx, ev.Actor.ID, func(ctx context.Context) error {
		return m.handle(ctx, ev)
	})
}

func (m *Machine) handle(ctx context.Context, ev chat.Event) error {
	conv, err := m.sessions.Load(ctx, ev.Actor.ID)
	if err != nil {
		return err
	}

	if ev.Kind == chat.EventAction && ev.ID != "" {
		if err := m.messenger.AnswerEvent(ctx, ev.ID, ""); err != nil {
			m.logger.Warn("answer event failed", zap.String("event_id", ev.ID), zap.Error(err))
		}
	}

	t := &turn{ev: ev, conv: conv}
	if err := m.dispatch(ctx, t); err != nil {
		m.logger.Error("event handling failed",
			zap.Int64("user_id", ev.Actor.ID),
			zap.String("event", ev.Kind.String()),
			zap.String("state", string(conv.State)),
			zap.Error(err),
		)
		m.send(ctx, ev.Actor.ID, m.render.Notice("Something went wrong. Please try again."))
		return err
	}

	conv.UpdatedAt = m.now().UTC()
	if err := m.sessions.Save(ctx, conv); err != nil {
		// the stored checkout keeps its reserved order id, so replaying the
		// address cannot place the order twice
		m.logger.Error("session not saved",
			zap.Int64("user_id", ev.Actor.ID),
			zap.String("state", string(conv.State)),
			zap.Error(err),
		)
		return err
	}
	for _, s := range t.screens {
		m.send(ctx, ev.Actor.ID, s)
	}
	return nil
}

func (m *Machine) send(ctx context.Context, to int64, s chat.Screen) {
	if err := m.messenger.SendText(ctx, to, s.Text, s.Keyboard); err != nil {
		m.logger.Error("transport failure", zap.Int64("user_id", to), zap.Error(err))
	}
}

func (m *Machine) isAdmin(t *turn) bool {
	return t.ev.Actor.ID == m.adminID
}

// awaitingActions are the buttons still honoured while a state waits for
// typed input. Everything else in such a state gets the state's prompt again.
var awaitingActions = map[session.State][]chat.ActionKind{
	session.StateAwaitingDiscountInput: {chat.ActionSkipDiscount, chat.ActionCancel, chat.ActionMainMenu},
	session.StateAwaitingSourceAddress: {chat.ActionCancel, chat.ActionMainMenu},
	session.StateAdminProductWizard:    {chat.ActionAdminPanel, chat.ActionMainMenu},
}

// acceptsWhileAwaiting reports whether ev may interrupt a state that is
// waiting for typed input.
func acceptsWhileAwaiting(state session.State, ev chat.Event) bool {
	switch ev.Kind {
	case chat.EventText:
		return true
	case chat.EventMedia:
		return state == session.StateAdminProductWizard
	case chat.EventAction:
		for _, k := range awaitingActions[state] {
			if ev.Action.Kind == k {
				return true
			}
		}
	}
	return false
}

// reprompt repeats what the current state is waiting for.
func (m *Machine) reprompt(ctx context.Context, t *turn) error {
	m.logger.Info("input refused while awaiting text",
		zap.Int64("user_id", t.ev.Actor.ID),
		zap.String("state", string(t.conv.State)),
		zap.String("event", t.ev.Kind.String()),
	)
	switch t.conv.State {
	case session.StateAwaitingDiscountInput:
		if t.conv.Checkout != nil {
			t.show(m.render.CheckoutSummary(t.conv.Checkout))
			return nil
		}
	case session.StateAwaitingSourceAddress:
		if t.conv.Checkout != nil {
			t.show(m.render.SourceAddressPrompt())
			return nil
		}
	case session.StateAdminProductWizard:
		if t.conv.Draft != nil {
			t.show(m.render.WizardPrompt(t.conv.Draft.Step))
			return nil
		}
	}
	t.conv.Reset()
	return m.showMainMenu(ctx, t)
}

func (m *Machine) dispatch(ctx context.Context, t *turn) error {
	if t.conv.State.ExpectsText() && !acceptsWhileAwaiting(t.conv.State, t.ev) {
		return m.reprompt(ctx, t)
	}

	switch t.ev.Kind {
	case chat.EventCommand:
		return m.onCommand(ctx, t)
	case chat.EventAction:
		if t.ev.Action.AdminOnly() {
			if !m.isAdmin(t) {
				m.logger.Warn("admin action refused",
					zap.Int64("user_id", t.ev.Actor.ID),
					zap.String("action", t.ev.Action.Kind.String()),
				)
				t.show(m.render.Notice("This action is only available to the admin."))
				return nil
			}
			return m.onAdminAction(ctx, t)
		}
		return m.onBuyerAction(ctx, t)
	case chat.EventText:
		return m.onText(ctx, t)
	case chat.EventMedia:
		return m.onMedia(ctx, t)
	}
	return nil
}

func (m *Machine) onCommand(ctx context.Context, t *turn) error {
	if t.ev.Command == "admin" && m.isAdmin(t) {
		return m.showAdminPanel(t)
	}
	t.conv.Reset()
	return m.showMainMenu(ctx, t)
}

func (m *Machine) showMainMenu(ctx context.Context, t *turn) error {
	welcome, err := m.catalog.Content(ctx, "welcome_message")
	if err != nil {
		if !service.IsKind(err, service.KindNotFound) {
			return err
		}
		welcome = fallbackWelcome
	}
	t.show(m.render.MainMenu(welcome, m.isAdmin(t)))
	return nil
}

func (m *Machine) onText(ctx context.Context, t *turn) error {
	if !t.conv.State.ExpectsText() {
		t.show(m.render.Notice("Please use the menu buttons."))
		return nil
	}
	switch t.conv.State {
	case session.StateAwaitingDiscountInput:
		return m.onDiscountCode(ctx, t)
	case session.StateAwaitingSourceAddress:
		return m.onSourceAddress(ctx, t)
	}
	if !m.isAdmin(t) {
		t.conv.Reset()
		return m.showMainMenu(ctx, t)
	}
	return m.onWizardText(ctx, t)
}

func (m *Machine) onMedia(ctx context.Context, t *turn) error {
	if t.conv.State == session.StateAdminProductWizard && m.isAdmin(t) {
		return m.onWizardMedia(ctx, t)
	}
	t.show(m.render.Notice("Please use the menu buttons."))
	return nil
}

// expected turns a service error into a notice for the user. Anything that
// is not a service error is returned for the caller to fail the turn.
func (m *Machine) expected(t *turn, err error) error {
	var serr *service.Error
	if !errors.As(err, &serr) {
		return err
	}
	if serr.Kind == service.KindNotFound || serr.Kind == service.KindConflict {
		m.logger.Info("request refused",
			zap.Int64("user_id", t.ev.Actor.ID),
			zap.String("reason", string(serr.Reason)),
		)
	}
	t.show(m.render.Notice(serr.Message))
	return nil
}
