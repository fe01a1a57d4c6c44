package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
	"github.com/Cheertaboi/chat-storefront-service/internal/session"
	"github.com/Cheertaboi/chat-storefront-service/internal/transport"
)

// Screen is one outbound message with its buttons.
type Screen struct {
	Text     string
	Keyboard transport.Keyboard
}

// Renderer builds the user-visible texts. Prices are stored in EUR and shown
// with a USD estimate at ExchangeRate.
type Renderer struct {
	ExchangeRate decimal.Decimal
}

func NewRenderer(rate decimal.Decimal) *Renderer {
	return &Renderer{ExchangeRate: rate}
}

func button(text string, a Action) transport.Button {
	return transport.Button{Text: text, Action: a.Encode()}
}

func row(buttons ...transport.Button) []transport.Button {
	return buttons
}

func EUR(d decimal.Decimal) string {
	return d.StringFixed(2) + "€"
}

func (r *Renderer) Price(d decimal.Decimal) string {
	if r.ExchangeRate.IsPositive() {
		return fmt.Sprintf("%s (~$%s)", EUR(d), d.Mul(r.ExchangeRate).StringFixed(2))
	}
	return EUR(d)
}

var mainMenuRow = row(button("🏠 Main Menu", Simple(ActionMainMenu)))

func (r *Renderer) MainMenu(welcome string, isAdmin bool) Screen {
	kb := transport.Keyboard{
		row(button("🛍 Products", Simple(ActionBrowse)), button("🛒 Cart", Simple(ActionViewCart))),
		row(button("ℹ️ About us", ForContent("about_us")), button("📞 Contact", ForContent("contact"))),
		row(button("🌐 Website", ForContent("website")), button("📜 Rules", ForContent("rules"))),
		row(button("❓ FAQ", ForContent("faq"))),
	}
	if isAdmin {
		kb = append(kb, row(button("🔧 Admin Panel", Simple(ActionAdminPanel))))
	}
	return Screen{Text: welcome, Keyboard: kb}
}

func (r *Renderer) Content(text string) Screen {
	return Screen{Text: text, Keyboard: transport.Keyboard{mainMenuRow}}
}

func (r *Renderer) ProductList(products []models.Product) Screen {
	if len(products) == 0 {
		return Screen{Text: "No products are available right now.", Keyboard: transport.Keyboard{mainMenuRow}}
	}
	kb := make(transport.Keyboard, 0, len(products)+1)
	for _, p := range products {
		kb = append(kb, row(button(p.Name+" - "+EUR(p.Price), ForProduct(ActionViewProduct, p.ID))))
	}
	kb = append(kb, mainMenuRow)
	return Screen{Text: "🛍 Available products:", Keyboard: kb}
}

func (r *Renderer) ProductDetail(p *models.Product) Screen {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", p.Name)
	if p.Description != "" {
		b.WriteString(p.Description + "\n\n")
	}
	fmt.Fprintf(&b, "Price: %s\nIn stock: %d", r.Price(p.Price), p.Quantity)
	return Screen{Text: b.String(), Keyboard: transport.Keyboard{
		row(button("🛒 Add to cart", ForProduct(ActionAddToCart, p.ID)), button("⚡ Buy now", ForProduct(ActionBuyNow, p.ID))),
		row(button("⬅️ Back", Simple(ActionBrowse))),
		mainMenuRow,
	}}
}

func (r *Renderer) AddedToCart(name string, quantity int) Screen {
	return Screen{Text: fmt.Sprintf("Added %s to your cart (%d in cart).", name, quantity), Keyboard: transport.Keyboard{
		row(button("🛒 View cart", Simple(ActionViewCart)), button("🛍 Continue shopping", Simple(ActionBrowse))),
	}}
}

func (r *Renderer) Cart(lines []models.CartLine) Screen {
	if len(lines) == 0 {
		return Screen{Text: "🛒 Your cart is empty.", Keyboard: transport.Keyboard{
			row(button("🛍 Products", Simple(ActionBrowse))),
			mainMenuRow,
		}}
	}
	var b strings.Builder
	b.WriteString("🛒 Your cart:\n\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "%s x%d = %s\n", l.Name, l.Quantity, EUR(l.Total()))
	}
	fmt.Fprintf(&b, "\nTotal: %s", r.Price(models.CartTotal(lines)))
	return Screen{Text: b.String(), Keyboard: transport.Keyboard{
		row(button("✅ Checkout", Simple(ActionCheckoutCart)), button("🗑 Clear cart", Simple(ActionClearCart))),
		mainMenuRow,
	}}
}

func (r *Renderer) CheckoutSummary(co *session.Checkout) Screen {
	var b strings.Builder
	b.WriteString("🧾 Order summary:\n\n")
	for _, it := range co.Items {
		fmt.Fprintf(&b, "%s x%d = %s\n", it.Name, it.Quantity, EUR(it.Total()))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n\nSend a discount code now, or continue without one.", r.Price(co.Total))
	return Screen{Text: b.String(), Keyboard: transport.Keyboard{
		row(button("➡️ No code", Simple(ActionSkipDiscount))),
		row(button("❌ Cancel", Simple(ActionCancel))),
	}}
}

func (r *Renderer) DiscountApplied(co *session.Checkout) Screen {
	text := fmt.Sprintf("✅ Code %s applied: -%s%%\nNew total: %s",
		co.DiscountCode, co.DiscountPercentage.String(), r.Price(co.Total))
	return Screen{Text: text, Keyboard: transport.Keyboard{
		row(button("➡️ Continue to payment", Simple(ActionContinueToPayment))),
		row(button("❌ Cancel", Simple(ActionCancel))),
	}}
}

// DiscountRejected re-prompts after a code was refused.
func (r *Renderer) DiscountRejected(reason string) Screen {
	return Screen{Text: reason + "\nTry another code or continue without one.", Keyboard: transport.Keyboard{
		row(button("➡️ No code", Simple(ActionSkipDiscount))),
		row(button("❌ Cancel", Simple(ActionCancel))),
	}}
}

func (r *Renderer) PaymentMethods(co *session.Checkout, methods []models.PaymentMethod) Screen {
	if len(methods) == 0 {
		return Screen{Text: "No payment methods are configured. Please contact support.", Keyboard: transport.Keyboard{mainMenuRow}}
	}
	kb := make(transport.Keyboard, 0, len(methods)+1)
	for _, m := range methods {
		kb = append(kb, row(button(m.DisplayName(), ForCurrency(m.CurrencyCode))))
	}
	kb = append(kb, row(button("❌ Cancel", Simple(ActionCancel))))
	return Screen{Text: "💳 Total to pay: " + r.Price(co.Total) + "\nChoose a payment method:", Keyboard: kb}
}

func (r *Renderer) PaymentDetails(co *session.Checkout, m models.PaymentMethod) Screen {
	var b strings.Builder
	fmt.Fprintf(&b, "Send %s in %s to:\n\n`%s`\n", r.Price(co.Total), m.DisplayName(), co.PaymentAddress)
	if co.Blockchain != "" {
		fmt.Fprintf(&b, "Network: %s\n", co.Blockchain)
	}
	b.WriteString("\nPress the button below once the payment is made.")
	return Screen{Text: b.String(), Keyboard: transport.Keyboard{
		row(button("✅ I have paid", Simple(ActionPaymentMade))),
		row(button("⬅️ Other method", Simple(ActionBackToPaymentMethods))),
		row(button("❌ Cancel", Simple(ActionCancel))),
	}}
}

func (r *Renderer) SourceAddressPrompt() Screen {
	return Screen{Text: "Please send the address you paid from so we can verify the payment.", Keyboard: transport.Keyboard{
		row(button("❌ Cancel", Simple(ActionCancel))),
	}}
}

func (r *Renderer) OrderPlaced(o *models.Order) Screen {
	text := fmt.Sprintf("🧾 Order %s received.\nTotal: %s\nWe will notify you once the payment is verified.",
		o.ID, r.Price(o.Total))
	return Screen{Text: text, Keyboard: transport.Keyboard{mainMenuRow}}
}

func (r *Renderer) Cancelled() Screen {
	return Screen{Text: "Checkout cancelled.", Keyboard: transport.Keyboard{mainMenuRow}}
}

func orderLines(b *strings.Builder, o *models.Order) {
	for _, l := range o.Lines {
		fmt.Fprintf(b, "• %s x%d\n", l.ProductName, l.Quantity)
	}
}

// AdminNewOrder is sent to the admin when a buyer submits payment.
func (r *Renderer) AdminNewOrder(o *models.Order) Screen {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 New order %s\nFrom: %s (%d)\n", o.ID, o.UserName, o.UserID)
	orderLines(&b, o)
	fmt.Fprintf(&b, "Total: %s\nCurrency: %s\nPaid from: `%s`\n", EUR(o.Total), strings.ToUpper(o.Currency), o.SourceAddress)
	if o.DiscountCode != "" {
		fmt.Fprintf(&b, "Discount code: %s\n", o.DiscountCode)
	}
	fmt.Fprintf(&b, "Placed: %s", o.CreatedAt.UTC().Format(time.DateTime))
	return Screen{Text: b.String(), Keyboard: r.reviewKeyboard(o.ID)}
}

func (r *Renderer) reviewKeyboard(orderID string) transport.Keyboard {
	return transport.Keyboard{
		row(button("✅ Confirm", ForOrder(ActionAdminConfirm, orderID)), button("❌ Reject", ForOrder(ActionAdminReject, orderID))),
	}
}

func (r *Renderer) AdminReview(o *models.Order) Screen {
	if o.Status.Terminal() {
		return r.AdminOrderStatus(o)
	}
	s := r.AdminNewOrder(o)
	s.Text = strings.Replace(s.Text, "🆕 New order", "🔎 Order", 1)
	return s
}

func (r *Renderer) AdminConfirmPrompt(o *models.Order) Screen {
	text := fmt.Sprintf("Confirm payment of %s for order %s? The products will be delivered to the buyer.", EUR(o.Total), o.ID)
	return Screen{Text: text, Keyboard: transport.Keyboard{
		row(button("Yes", ForOrder(ActionAdminConfirmYes, o.ID)), button("No", ForOrder(ActionAdminConfirmNo, o.ID))),
	}}
}

func (r *Renderer) AdminOrderStatus(o *models.Order) Screen {
	return r.AdminNotice(fmt.Sprintf("Order %s is %s.", o.ID, o.Status))
}

// Delivery is the text sent to the buyer for one confirmed line, followed by
// the product's images.
func (r *Renderer) Delivery(orderID string, l models.OrderLine, coordinates string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Payment for order %s confirmed.\n\n%s x%d", orderID, l.ProductName, l.Quantity)
	if coordinates != "" {
		fmt.Fprintf(&b, "\n📍 %s", coordinates)
	}
	return b.String()
}

func (r *Renderer) BuyerRejected(o *models.Order) string {
	return fmt.Sprintf("❌ Your payment for order %s could not be verified and the order was rejected. Contact support if you think this is a mistake.", o.ID)
}

func (r *Renderer) AdminPanel() Screen {
	return Screen{Text: "🔧 Admin panel", Keyboard: transport.Keyboard{
		row(button("📦 Products", Simple(ActionAdminProducts)), button("➕ Add product", Simple(ActionAdminAddProduct))),
		row(button("📊 Statistics", Simple(ActionAdminStats))),
		mainMenuRow,
	}}
}

func (r *Renderer) AdminProducts(products []models.Product) Screen {
	kb := make(transport.Keyboard, 0, len(products)+1)
	for _, p := range products {
		mark := "🟢"
		if !p.Active {
			mark = "🔴"
		}
		kb = append(kb, row(button(fmt.Sprintf("%s %s (%d pcs)", mark, p.Name, p.Quantity), ForProduct(ActionAdminEditProduct, p.ID))))
	}
	kb = append(kb, row(button("⬅️ Back", Simple(ActionAdminPanel))))
	text := "📦 Products:"
	if len(products) == 0 {
		text = "No products yet."
	}
	return Screen{Text: text, Keyboard: kb}
}

func (r *Renderer) AdminProduct(p *models.Product) Screen {
	toggle := "🔴 Deactivate"
	if !p.Active {
		toggle = "🟢 Activate"
	}
	text := fmt.Sprintf("*%s*\nPrice: %s\nQuantity: %d\nActive: %t\nImages: %d\nCoordinates: %s",
		p.Name, EUR(p.Price), p.Quantity, p.Active, len(p.Images()), p.Coordinates)
	return Screen{Text: text, Keyboard: transport.Keyboard{
		row(button(toggle, ForProduct(ActionAdminToggleActive, p.ID)), button("🗑 Delete", ForProduct(ActionAdminDeleteProduct, p.ID))),
		row(button("⬅️ Back", Simple(ActionAdminProducts))),
	}}
}

func (r *Renderer) AdminDeleteConfirm(p *models.Product) Screen {
	return Screen{Text: fmt.Sprintf("Delete %s? This cannot be undone.", p.Name), Keyboard: transport.Keyboard{
		row(button("Yes, delete", ForProduct(ActionAdminConfirmDelete, p.ID)), button("No", ForProduct(ActionAdminCancelDelete, p.ID))),
	}}
}

func (r *Renderer) AdminStats(s models.Stats) Screen {
	text := fmt.Sprintf("📊 Statistics\n\nProducts: %d (%d active)\nOrders: %d (%d completed, %d pending)\nCart rows: %d\nDiscount codes: %d (%d active)",
		s.Products, s.ActiveProducts, s.Orders, s.CompletedOrders, s.PendingOrders, s.CartRows, s.DiscountCodes, s.ActiveCodes)
	return Screen{Text: text, Keyboard: transport.Keyboard{row(button("⬅️ Back", Simple(ActionAdminPanel)))}}
}

var wizardPrompts = map[session.WizardStep]string{
	session.StepName:         "Send the product name.",
	session.StepPrice:        "Send the price in EUR, e.g. 25.50.",
	session.StepDescription:  "Send the description.",
	session.StepQuantity:     "Send the quantity in stock.",
	session.StepImage1:       "Send the first image.",
	session.StepImage2Option: "Add a second image? Reply yes or no.",
	session.StepImage2:       "Send the second image.",
	session.StepCoordinates:  "Send coordinates as \"lat, lon\", or skip.",
}

func (r *Renderer) WizardPrompt(step session.WizardStep) Screen {
	return Screen{Text: wizardPrompts[step], Keyboard: transport.Keyboard{
		row(button("❌ Cancel", Simple(ActionAdminPanel))),
	}}
}

func (r *Renderer) Notice(text string) Screen {
	return Screen{Text: text, Keyboard: transport.Keyboard{mainMenuRow}}
}

// AdminNotice is a result message with a way back to the admin panel.
func (r *Renderer) AdminNotice(text string) Screen {
	return Screen{Text: text, Keyboard: transport.Keyboard{
		row(button("🔧 Admin Panel", Simple(ActionAdminPanel))),
	}}
}
