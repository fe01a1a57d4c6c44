// Package chat defines what crosses the chat boundary: typed actions decoded
// from button payloads, inbound events, and the rendered screens sent back.
package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
)

type ActionKind int

const (
	ActionUnknown ActionKind = iota

	ActionMainMenu
	ActionBrowse
	ActionViewProduct
	ActionAddToCart
	ActionViewCart
	ActionClearCart
	ActionBuyNow
	ActionCheckoutCart
	ActionSkipDiscount
	ActionContinueToPayment
	ActionChooseCurrency
	ActionPaymentMade
	ActionBackToPaymentMethods
	ActionCancel
	ActionContent

	ActionAdminPanel
	ActionAdminProducts
	ActionAdminEditProduct
	ActionAdminToggleActive
	ActionAdminDeleteProduct
	ActionAdminConfirmDelete
	ActionAdminCancelDelete
	ActionAdminAddProduct
	ActionAdminStats
	ActionAdminReview
	ActionAdminConfirm
	ActionAdminConfirmYes
	ActionAdminConfirmNo
	ActionAdminReject
)

type argKind int

const (
	argNone argKind = iota
	argProduct
	argOrder
	argCurrency
	argContent
)

type actionDef struct {
	name  string
	arg   argKind
	admin bool
}

var actionDefs = map[ActionKind]actionDef{
	ActionMainMenu:             {name: "main_menu"},
	ActionBrowse:               {name: "browse_products"},
	ActionViewProduct:          {name: "product", arg: argProduct},
	ActionAddToCart:            {name: "add_to_cart", arg: argProduct},
	ActionViewCart:             {name: "view_cart"},
	ActionClearCart:            {name: "clear_cart"},
	ActionBuyNow:               {name: "buy_now", arg: argProduct},
	ActionCheckoutCart:         {name: "checkout_all"},
	ActionSkipDiscount:         {name: "no_discount"},
	ActionContinueToPayment:    {name: "continue_to_payment"},
	ActionChooseCurrency:       {name: "payment", arg: argCurrency},
	ActionPaymentMade:          {name: "payment_made"},
	ActionBackToPaymentMethods: {name: "back_to_payment_methods"},
	ActionCancel:               {name: "cancel"},
	ActionContent:              {name: "content", arg: argContent},

	ActionAdminPanel:         {name: "admin_panel", admin: true},
	ActionAdminProducts:      {name: "product_management", admin: true},
	ActionAdminEditProduct:   {name: "edit_product", arg: argProduct, admin: true},
	ActionAdminToggleActive:  {name: "toggle_active", arg: argProduct, admin: true},
	ActionAdminDeleteProduct: {name: "delete_product", arg: argProduct, admin: true},
	ActionAdminConfirmDelete: {name: "confirm_delete", arg: argProduct, admin: true},
	ActionAdminCancelDelete:  {name: "cancel_delete", arg: argProduct, admin: true},
	ActionAdminAddProduct:    {name: "add_new_product", admin: true},
	ActionAdminStats:         {name: "statistics", admin: true},
	ActionAdminReview:        {name: "admin_review", arg: argOrder, admin: true},
	ActionAdminConfirm:       {name: "admin_confirm", arg: argOrder, admin: true},
	ActionAdminConfirmYes:    {name: "admin_confirm_yes", arg: argOrder, admin: true},
	ActionAdminConfirmNo:     {name: "admin_confirm_no", arg: argOrder, admin: true},
	ActionAdminReject:        {name: "admin_reject", arg: argOrder, admin: true},
}

var actionsByName = func() map[string]ActionKind {
	m := make(map[string]ActionKind, len(actionDefs))
	for k, s := range actionDefs {
		m[s.name] = k
	}
	return m
}()

// ContentKeys are the static pages a buyer may open.
var ContentKeys = []string{"about_us", "contact", "website", "rules", "faq"}

func isContentKey(key string) bool {
	for _, k := range ContentKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Action is a decoded button press. Only the field matching Kind's argument
// is set.
type Action struct {
	Kind       ActionKind
	ProductID  int64
	OrderID    string
	Currency   string
	ContentKey string
}

func (k ActionKind) String() string {
	if s, ok := actionDefs[k]; ok {
		return s.name
	}
	return "unknown"
}

// AdminOnly reports whether the action requires the admin identity.
func (a Action) AdminOnly() bool {
	return actionDefs[a.Kind].admin
}

// Encode renders the action as a button payload; ParseAction reverses it.
func (a Action) Encode() string {
	s, ok := actionDefs[a.Kind]
	if !ok {
		return ""
	}
	switch s.arg {
	case argProduct:
		return s.name + ":" + strconv.FormatInt(a.ProductID, 10)
	case argOrder:
		return s.name + ":" + a.OrderID
	case argCurrency:
		return s.name + ":" + a.Currency
	case argContent:
		return s.name + ":" + a.ContentKey
	}
	return s.name
}

// ParseAction decodes a button payload of the form name[:argument].
func ParseAction(raw string) (Action, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(raw), ":")
	kind, ok := actionsByName[name]
	if !ok {
		return Action{}, fmt.Errorf("unknown action %q", name)
	}
	def := actionDefs[kind]
	a := Action{Kind: kind}

	if def.arg == argNone {
		if hasArg {
			return Action{}, fmt.Errorf("action %s takes no argument", name)
		}
		return a, nil
	}
	if !hasArg || arg == "" {
		return Action{}, fmt.Errorf("action %s requires an argument", name)
	}

	switch def.arg {
	case argProduct:
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return Action{}, fmt.Errorf("action %s: invalid product id %q", name, arg)
		}
		a.ProductID = id
	case argOrder:
		id := strings.ToUpper(arg)
		if len(id) != models.OrderIDLength {
			return Action{}, fmt.Errorf("action %s: invalid order id %q", name, arg)
		}
		a.OrderID = id
	case argCurrency:
		a.Currency = models.NormalizeCurrency(arg)
	case argContent:
		if !isContentKey(arg) {
			return Action{}, fmt.Errorf("action %s: unknown page %q", name, arg)
		}
		a.ContentKey = arg
	}
	return a, nil
}

// Constructors used when building keyboards.

func Simple(kind ActionKind) Action { return Action{Kind: kind} }
func ForProduct(kind ActionKind, id int64) Action { return Action{Kind: kind, ProductID: id} }
func ForOrder(kind ActionKind, id string) Action { return Action{Kind: kind, OrderID: id} }
func ForCurrency(code string) Action { return Action{Kind: ActionChooseCurrency, Currency: code} }
func ForContent(key string) Action { return Action{Kind: ActionContent, ContentKey: key} }
