package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/chat"
	"github.com/Cheertaboi/chat-storefront-service/internal/models"
	"github.com/Cheertaboi/chat-storefront-service/internal/repository"
	"github.com/Cheertaboi/chat-storefront-service/internal/transport"
)

type OrderLedger interface {
	Get(ctx context.Context, orderID string) (*models.Order, error)
	List(ctx context.Context, status models.OrderStatus) ([]*models.Order, error)
	Transition(ctx context.Context, orderID string, from, to models.OrderStatus) error
}

type ProductLookup interface {
	Get(ctx context.Context, id int64) (*models.Product, error)
}

// Outcome reports what a confirm or reject did. Changed is false when the
// order was already in a final status; Undelivered counts buyer messages
// that could not be sent.
type Outcome struct {
	Order       *models.Order
	Changed     bool
	Undelivered int
}

// PaymentService runs the admin side of payment verification: notifying
// the admin of new orders and confirming or rejecting them.
type PaymentService struct {
	orders    OrderLedger
	products  ProductLookup
	messenger transport.Messenger
	render    *chat.Renderer
	adminID   int64
	logger    *zap.Logger
}

func NewPaymentService(orders OrderLedger, products ProductLookup, messenger transport.Messenger, render *chat.Renderer, adminID int64, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		orders:    orders,
		products:  products,
		messenger: messenger,
		render:    render,
		adminID:   adminID,
		logger:    logger,
	}
}

// NotifyNewOrder sends the review message for a freshly placed order.
func (s *PaymentService) NotifyNewOrder(ctx context.Context, order *models.Order) error {
	screen := s.render.AdminNewOrder(order)
	if err := s.messenger.SendText(ctx, s.adminID, screen.Text, screen.Keyboard); err != nil {
		return transportError(err, "could not notify admin about order %s", order.ID)
	}
	return nil
}

func (s *PaymentService) Order(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, newError(KindNotFound, ReasonOrderNotFound, "Order %s not found.", orderID)
	}
	return o, nil
}

func (s *PaymentService) Orders(ctx context.Context, status models.OrderStatus) ([]*models.Order, error) {
	return s.orders.List(ctx, status)
}

// RequestConfirmation loads the order the admin is about to confirm. A
// terminal order is returned as is so the caller can show its status.
func (s *PaymentService) RequestConfirmation(ctx context.Context, orderID string) (*models.Order, error) {
	return s.Order(ctx, orderID)
}

func orderClosed(o *models.Order) *Error {
	return newError(KindConflict, ReasonOrderClosed, "Order %s is already %s.", o.ID, o.Status)
}

// Confirm completes a pending order and delivers the products to the buyer.
// Confirming a completed order is a no-op; a rejected order stays rejected.
func (s *PaymentService) Confirm(ctx context.Context, orderID string) (Outcome, error) {
	order, err := s.Order(ctx, orderID)
	if err != nil {
		return Outcome{}, err
	}
	if order.Status.Terminal() {
		return s.settled(order, models.OrderStatusCompleted)
	}

	err = s.orders.Transition(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCompleted)
	if errors.Is(err, repository.ErrConflict) {
		if order, err = s.Order(ctx, orderID); err != nil {
			return Outcome{}, err
		}
		return s.settled(order, models.OrderStatusCompleted)
	}
	if err != nil {
		return Outcome{}, err
	}

	setStatus(order, models.OrderStatusCompleted)
	s.logger.Info("order confirmed", zap.String("order_id", order.ID), zap.Int64("user_id", order.UserID))
	return Outcome{Order: order, Changed: true, Undelivered: s.deliver(ctx, order)}, nil
}

// Reject closes a pending order and tells the buyer. Stock is not restored.
// Rejecting an order that is already completed or rejected changes nothing.
func (s *PaymentService) Reject(ctx context.Context, orderID string) (Outcome, error) {
	order, err := s.Order(ctx, orderID)
	if err != nil {
		return Outcome{}, err
	}
	if order.Status.Terminal() {
		return Outcome{Order: order}, nil
	}

	err = s.orders.Transition(ctx, order.ID, models.OrderStatusPending, models.OrderStatusRejected)
	if errors.Is(err, repository.ErrConflict) {
		order, err = s.Order(ctx, orderID)
		return Outcome{Order: order}, err
	}
	if err != nil {
		return Outcome{}, err
	}

	setStatus(order, models.OrderStatusRejected)
	s.logger.Info("order rejected", zap.String("order_id", order.ID), zap.Int64("user_id", order.UserID))

	out := Outcome{Order: order, Changed: true}
	if err := s.messenger.SendText(ctx, order.UserID, s.render.BuyerRejected(order), nil); err != nil {
		s.reportTransport(err, order, "rejection notice")
		out.Undelivered++
	}
	return out, nil
}

// settled answers a confirm on an order that is already final.
func (s *PaymentService) settled(order *models.Order, want models.OrderStatus) (Outcome, error) {
	if order.Status == want {
		return Outcome{Order: order}, nil
	}
	return Outcome{Order: order}, orderClosed(order)
}

func setStatus(o *models.Order, status models.OrderStatus) {
	o.Status = status
	for i := range o.Lines {
		o.Lines[i].Status = status
	}
}

// deliver sends each line's text and images to the buyer. Failures are
// logged and counted, never retried.
func (s *PaymentService) deliver(ctx context.Context, order *models.Order) int {
	failed := 0
	for _, line := range order.Lines {
		var coordinates string
		var images []string
		p, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			s.logger.Warn("load product for delivery", zap.Int64("product_id", line.ProductID), zap.Error(err))
		}
		if p != nil {
			coordinates = p.Coordinates
			images = p.Images()
		}

		if err := s.messenger.SendText(ctx, order.UserID, s.render.Delivery(order.ID, line, coordinates), nil); err != nil {
			s.reportTransport(err, order, "delivery text")
			failed++
		}
		for _, ref := range images {
			if err := s.messenger.SendPhoto(ctx, order.UserID, ref, line.ProductName); err != nil {
				s.reportTransport(err, order, "delivery photo")
				failed++
			}
		}
	}
	return failed
}

func (s *PaymentService) reportTransport(err error, order *models.Order, what string) {
	terr := transportError(err, "%s for order %s not delivered", what, order.ID)
	s.logger.Error("transport failure",
		zap.String("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.String("kind", terr.Kind.String()),
		zap.Error(terr),
	)
}
