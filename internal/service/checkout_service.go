package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
	"github.com/Cheertaboi/chat-storefront-service/internal/repository"
	"github.com/Cheertaboi/chat-storefront-service/internal/session"
)

type OrderStore interface {
	InsertLines(ctx context.Context, q repository.DBTX, lines []models.OrderLine) error
	Exists(ctx context.Context, q repository.DBTX, orderID string) (bool, error)
	Owner(ctx context.Context, q repository.DBTX, orderID string) (int64, bool, error)
}

// OrderNotifier is told about every order once it has been committed.
type OrderNotifier interface {
	NotifyNewOrder(ctx context.Context, order *models.Order) error
}

// Buyer is who is checking out.
type Buyer struct {
	ID          int64
	Username    string
	DisplayName string
}

const orderIDAttempts = 5

type CheckoutService struct {
	db         *sql.DB // used for transactions
	products   ProductStore
	carts      CartStore
	orders     OrderStore
	methods    PaymentMethodStore
	discounts  *DiscountService
	notifier   OrderNotifier
	newOrderID func() string
	now        func() time.Time
	logger     *zap.Logger
}

func NewCheckoutService(
	db *sql.DB,
	products ProductStore,
	carts CartStore,
	orders OrderStore,
	methods PaymentMethodStore,
	discounts *DiscountService,
	notifier OrderNotifier,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		db:         db,
		products:   products,
		carts:      carts,
		orders:     orders,
		methods:    methods,
		discounts:  discounts,
		notifier:   notifier,
		newOrderID: models.NewOrderID,
		now:        time.Now,
		logger:     logger,
	}
}

// BeginSingle snapshots one unit of a product for an immediate purchase.
func (s *CheckoutService) BeginSingle(ctx context.Context, productID int64) (*session.Checkout, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Active {
		return nil, productNotFound(productID)
	}
	if p.Quantity < 1 {
		return nil, newError(KindConflict, ReasonInsufficientStock, "%s is out of stock.", p.Name)
	}
	item := session.LineItem{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price, Quantity: 1}
	return &session.Checkout{
		Kind:     session.KindSingle,
		Items:    []session.LineItem{item},
		Subtotal: item.Total(),
		Total:    item.Total(),
	}, nil
}

// BeginCart snapshots the buyer's whole cart. Prices are frozen here; stock
// is only checked when the order is finalized.
func (s *CheckoutService) BeginCart(ctx context.Context, userID int64) (*session.Checkout, error) {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, newError(KindValidation, ReasonEmptyCheckout, "Your cart is empty.")
	}
	items := make([]session.LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, session.LineItem{ProductID: l.ProductID, Name: l.Name, UnitPrice: l.Price, Quantity: l.Quantity})
	}
	total := models.CartTotal(lines)
	return &session.Checkout{Kind: session.KindCart, Items: items, Subtotal: total, Total: total}, nil
}

// ApplyDiscount validates code against the checkout subtotal and records it.
// A rejected code leaves the checkout untouched.
func (s *CheckoutService) ApplyDiscount(ctx context.Context, co *session.Checkout, buyer Buyer, code string) error {
	quote, err := s.discounts.Redeem(ctx, code, buyer.ID, buyer.Username, co.Subtotal)
	if err != nil {
		return err
	}
	co.ApplyDiscount(quote.Code, quote.Percentage, quote.NewTotal)
	return nil
}

// SelectPayment records the chosen currency and its receiving address.
func (s *CheckoutService) SelectPayment(ctx context.Context, co *session.Checkout, currency string) (*models.PaymentMethod, error) {
	m, err := s.methods.Get(ctx, models.NormalizeCurrency(currency))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, newError(KindNotFound, ReasonPaymentMethodNotFound, "Payment method not available.")
	}
	co.ChoosePayment(m.CurrencyCode, m.Address, m.Blockchain)
	return m, nil
}

// ReserveOrderID picks the id the checkout's order will be stored under. It
// is kept across retries, so a checkout resubmitted after a successful
// finalize is recognised instead of placed twice.
func (s *CheckoutService) ReserveOrderID(ctx context.Context, co *session.Checkout) error {
	if co.OrderID != "" {
		return nil
	}
	id, err := s.allocateOrderID(ctx, s.db)
	if err != nil {
		return err
	}
	co.OrderID = id
	return nil
}

// Finalize turns the checkout into a pending order. Order rows, stock
// decrements, cart clearing and the discount use are committed together or
// not at all. The caller must drop the checkout after a successful call.
func (s *CheckoutService) Finalize(ctx context.Context, buyer Buyer, co *session.Checkout, sourceAddress string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	if co == nil || len(co.Items) == 0 {
		return nil, newError(KindValidation, ReasonEmptyCheckout, "There is nothing to check out.")
	}
	if co.Currency == "" {
		return nil, validationError("Choose a payment method first.")
	}
	source := strings.TrimSpace(sourceAddress)
	if source == "" {
		return nil, validationError("Please send the address you paid from.")
	}

	now := s.now().UTC()
	var order *models.Order
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		orderID, err := s.orderIDFor(ctx, tx, buyer, co)
		if err != nil {
			return err
		}

		lines := make([]models.OrderLine, 0, len(co.Items))
		for _, it := range co.Items {
			lines = append(lines, models.OrderLine{
				OrderID:       orderID,
				UserID:        buyer.ID,
				UserName:      buyer.DisplayName,
				ProductID:     it.ProductID,
				ProductName:   it.Name,
				Quantity:      it.Quantity,
				UnitPrice:     it.UnitPrice,
				TotalPrice:    co.Total,
				Currency:      co.Currency,
				SourceAddress: source,
				DiscountCode:  co.DiscountCode,
				Status:        models.OrderStatusPending,
				CreatedAt:     now,
			})
		}
		if err := s.orders.InsertLines(ctx, tx, lines); err != nil {
			return err
		}

		for _, it := range co.Items {
			if err := s.products.DecrementStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return newError(KindConflict, ReasonInsufficientStock, "Not enough quantity of %s available.", it.Name)
				}
				return err
			}
		}

		if co.Kind == session.KindCart {
			if err := s.carts.Clear(ctx, tx, buyer.ID); err != nil {
				return err
			}
		}

		if co.DiscountCode != "" {
			if err := s.discounts.Consume(ctx, tx, co.DiscountCode); err != nil {
				return err
			}
		}

		order = models.OrderFromLines(lines)
		return nil
	})
	if err != nil {
		s.logger.Info("checkout failed",
			zap.Int64("user_id", buyer.ID),
			zap.String("reason", string(ReasonOf(err))),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int64("user_id", buyer.ID),
		zap.Int("lines", len(order.Lines)),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("currency", order.Currency),
		zap.String("discount_code", order.DiscountCode),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyNewOrder(ctx, order); err != nil {
			s.logger.Warn("admin notification failed", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	return order, nil
}

// orderIDFor returns the checkout's reserved id, or a fresh one when none
// was reserved or another buyer's order took it first.
func (s *CheckoutService) orderIDFor(ctx context.Context, q repository.DBTX, buyer Buyer, co *session.Checkout) (string, error) {
	if co.OrderID == "" {
		return s.allocateOrderID(ctx, q)
	}
	owner, found, err := s.orders.Owner(ctx, q, co.OrderID)
	if err != nil {
		return "", err
	}
	switch {
	case !found:
		return co.OrderID, nil
	case owner == buyer.ID:
		return "", newError(KindConflict, ReasonOrderAlreadyPlaced, "Order %s has already been placed.", co.OrderID)
	}
	return s.allocateOrderID(ctx, q)
}

func (s *CheckoutService) allocateOrderID(ctx context.Context, q repository.DBTX) (string, error) {
	for i := 0; i < orderIDAttempts; i++ {
		id := s.newOrderID()
		taken, err := s.orders.Exists(ctx, q, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free order id after %d attempts", orderIDAttempts)
}
