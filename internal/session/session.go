// Package session holds the volatile per-user conversation state, including
// the in-progress checkout, and the stores that keep it with a TTL.
package session

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type State string

// Buyer states.
const (
	StateIdle                  State = "idle"
	StateBrowsingCatalog       State = "browsing_catalog"
	StateViewingProduct        State = "viewing_product"
	StateCartView              State = "cart_view"
	StateCheckoutPending       State = "checkout_pending"
	StateAwaitingDiscountInput State = "awaiting_discount_input"
	StateAwaitingPaymentMethod State = "awaiting_payment_method"
	StateShowingPaymentDetails State = "showing_payment_details"
	StateAwaitingSourceAddress State = "awaiting_payment_source_address"
)

// Admin states. Review states refer to Conversation.ReviewOrderID.
const (
	StateAdminPanel          State = "admin_panel"
	StateAdminProductWizard  State = "admin_product_wizard"
	StateAwaitingAdminReview State = "awaiting_admin_review"
	StateAwaitingAdminYesNo  State = "awaiting_admin_confirmation_yes_no"
)

// ExpectsText reports whether free text is meaningful input in this state.
func (s State) ExpectsText() bool {
	switch s {
	case StateAwaitingDiscountInput, StateAwaitingSourceAddress, StateAdminProductWizard:
		return true
	}
	return false
}

type OrderKind string

const (
	KindSingle OrderKind = "single"
	KindCart   OrderKind = "cart"
)

// LineItem is a point-in-time snapshot of a product taken when checkout began.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Checkout is the in-progress order. It is consumed exactly once by
// finalization and may be dropped at any point before that.
type Checkout struct {
	Kind               OrderKind       `json:"kind"`
	Items              []LineItem      `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Total              decimal.Decimal `json:"total"`
	DiscountCode       string          `json:"discount_code,omitempty"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Currency           string          `json:"currency,omitempty"`
	PaymentAddress     string          `json:"payment_address,omitempty"`
	Blockchain         string          `json:"blockchain,omitempty"`

	// OrderID is reserved once payment is reported and reused by every
	// finalize attempt of this checkout.
	OrderID string `json:"order_id,omitempty"`
}

func (c *Checkout) ApplyDiscount(code string, pct, newTotal decimal.Decimal) {
	c.DiscountCode = code
	c.DiscountPercentage = pct
	c.Total = newTotal
}

// ClearDiscount restores the undiscounted total.
func (c *Checkout) ClearDiscount() {
	c.DiscountCode = ""
	c.DiscountPercentage = decimal.Zero
	c.Total = c.Subtotal
}

func (c *Checkout) ChoosePayment(currency, address, blockchain string) {
	c.Currency = currency
	c.PaymentAddress = address
	c.Blockchain = blockchain
}

// WizardStep tracks the admin product-creation dialogue.
type WizardStep string

const (
	StepName         WizardStep = "name"
	StepPrice        WizardStep = "price"
	StepDescription  WizardStep = "description"
	StepQuantity     WizardStep = "quantity"
	StepImage1       WizardStep = "image1"
	StepImage2Option WizardStep = "image2_option"
	StepImage2       WizardStep = "image2"
	StepCoordinates  WizardStep = "coordinates"
)

type ProductDraft struct {
	Step        WizardStep      `json:"step"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Image1      string          `json:"image1"`
	Image2      string          `json:"image2"`
	Coordinates string          `json:"coordinates"`
}

type Conversation struct {
	UserID        int64         `json:"user_id"`
	State         State         `json:"state"`
	ProductID     int64         `json:"product_id,omitempty"`
	Checkout      *Checkout     `json:"checkout,omitempty"`
	ReviewOrderID string        `json:"review_order_id,omitempty"`
	Draft         *ProductDraft `json:"draft,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func New(userID int64) *Conversation {
	return &Conversation{UserID: userID, State: StateIdle}
}

// Reset drops any in-progress checkout or wizard and returns to Idle.
func (c *Conversation) Reset() {
	c.State = StateIdle
	c.ProductID = 0
	c.Checkout = nil
	c.ReviewOrderID = ""
	c.Draft = nil
}

func (c *Conversation) clone() *Conversation {
	out := *c
	if c.Checkout != nil {
		co := *c.Checkout
		co.Items = append([]LineItem(nil), c.Checkout.Items...)
		out.Checkout = &co
	}
	if c.Draft != nil {
		d := *c.Draft
		out.Draft = &d
	}
	return &out
}

// Store keeps conversations keyed by user. Load never fails for an unknown
// or expired user; it returns a fresh Idle conversation instead.
type Store interface {
	Load(ctx context.Context, userID int64) (*Conversation, error)
	Save(ctx context.Context, c *Conversation) error
	Delete(ctx context.Context, userID int64) error
}
