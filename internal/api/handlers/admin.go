package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
	"github.com/Cheertaboi/chat-storefront-service/internal/service"
)

// --- Request / Response DTOs ---

type ProductRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Image1      string          `json:"image1,omitempty"`
	Image2      string          `json:"image2,omitempty"`
	Coordinates string          `json:"coordinates,omitempty"`
	Active      *bool           `json:"active,omitempty"`
}

type ProductPatchRequest struct {
	Name        *string          `json:"name,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Description *string          `json:"description,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Image1      *string          `json:"image1,omitempty"`
	Image2      *string          `json:"image2,omitempty"`
	Coordinates *string          `json:"coordinates,omitempty"`
	Active      *bool            `json:"active,omitempty"`
}

type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Images      []string        `json:"images"`
	Coordinates string          `json:"coordinates,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

func productResponse(p models.Product) ProductResponse {
	images := p.Images()
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Quantity:    p.Quantity,
		Images:      images,
		Coordinates: p.Coordinates,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
	}
}

type DiscountCodeResponse struct {
	Code           string          `json:"code"`
	Percentage     decimal.Decimal `json:"percentage"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	MaxUses        int             `json:"max_uses"`
	UsedCount      int             `json:"used_count"`
	IsGeneral      bool            `json:"is_general"`
	ClientID       *int64          `json:"client_id,omitempty"`
	ClientUsername string          `json:"client_username,omitempty"`
	Active         bool            `json:"active"`
}

func discountResponse(d models.DiscountCode) DiscountCodeResponse {
	return DiscountCodeResponse{
		Code:           d.Code,
		Percentage:     d.Percentage,
		ExpiryDate:     d.ExpiryDate,
		MaxUses:        d.MaxUses,
		UsedCount:      d.UsedCount,
		IsGeneral:      d.IsGeneral,
		ClientID:       d.ClientID,
		ClientUsername: d.ClientUsername,
		Active:         d.Active,
	}
}

type PaymentMethodBody struct {
	CurrencyCode string `json:"currency_code"`
	Address      string `json:"address"`
	Blockchain   string `json:"blockchain"`
}

type OrderLineResponse struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type OrderResponse struct {
	ID            string              `json:"order_id"`
	UserID        int64               `json:"user_id"`
	UserName      string              `json:"user_name"`
	Lines         []OrderLineResponse `json:"lines"`
	Total         decimal.Decimal     `json:"total"`
	Currency      string              `json:"currency"`
	SourceAddress string              `json:"source_address"`
	DiscountCode  string              `json:"discount_code,omitempty"`
	Status        models.OrderStatus  `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
}

func orderResponse(o *models.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineResponse{ProductID: l.ProductID, ProductName: l.ProductName, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return OrderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		UserName:      o.UserName,
		Lines:         lines,
		Total:         o.Total,
		Currency:      o.Currency,
		SourceAddress: o.SourceAddress,
		DiscountCode:  o.DiscountCode,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
}

type OutcomeResponse struct {
	Order       OrderResponse `json:"order"`
	Changed     bool          `json:"changed"`
	Undelivered int           `json:"undelivered"`
}

// --- Handler struct & constructor ---

type AdminHandler struct {
	catalog   *service.CatalogService
	discounts *service.DiscountService
	payments  *service.PaymentService
	logger    *zap.Logger
}

func NewAdminHandler(catalog *service.CatalogService, discounts *service.DiscountService, payments *service.PaymentService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{catalog: catalog, discounts: discounts, payments: payments, logger: logger}
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_id"})
		return 0, false
	}
	return id, true
}

// --- Products ---

// ListProducts handles GET /admin/products
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.AllProducts(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateProduct handles POST /admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decode(w, r, &req) {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p, err := h.catalog.CreateProduct(r.Context(), models.Product{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Quantity:    req.Quantity,
		Image1:      req.Image1,
		Image2:      req.Image2,
		Coordinates: req.Coordinates,
		Active:      active,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, productResponse(*p))
}

// UpdateProduct handles PATCH /admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req ProductPatchRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.catalog.UpdateProduct(r.Context(), id, models.ProductPatch{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Quantity:    req.Quantity,
		Image1:      req.Image1,
		Image2:      req.Image2,
		Coordinates: req.Coordinates,
		Active:      req.Active,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse(*p))
}

// DeleteProduct handles DELETE /admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Discount codes ---

// ListDiscountCodes handles GET /admin/discount-codes
func (h *AdminHandler) ListDiscountCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.discounts.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]DiscountCodeResponse, 0, len(codes))
	for _, d := range codes {
		out = append(out, discountResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateDiscountCode handles POST /admin/discount-codes
func (h *AdminHandler) CreateDiscountCode(w http.ResponseWriter, r *http.Request) {
	var req service.NewDiscountCode
	if !decode(w, r, &req) {
		return
	}
	d, err := h.discounts.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, discountResponse(*d))
}

// DeactivateDiscountCode handles DELETE /admin/discount-codes/{code}
func (h *AdminHandler) DeactivateDiscountCode(w http.ResponseWriter, r *http.Request) {
	if err := h.discounts.Deactivate(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Payment methods & content ---

// ListPaymentMethods handles GET /admin/payment-methods
func (h *AdminHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.catalog.PaymentMethods(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]PaymentMethodBody, 0, len(methods))
	for _, m := range methods {
		out = append(out, PaymentMethodBody{CurrencyCode: m.CurrencyCode, Address: m.Address, Blockchain: m.Blockchain})
	}
	writeJSON(w, http.StatusOK, out)
}

// PutPaymentMethod handles PUT /admin/payment-methods/{currency}
func (h *AdminHandler) PutPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req PaymentMethodBody
	if !decode(w, r, &req) {
		return
	}
	m := models.PaymentMethod{CurrencyCode: chi.URLParam(r, "currency"), Address: req.Address, Blockchain: req.Blockchain}
	if err := h.catalog.SavePaymentMethod(r.Context(), m); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePaymentMethod handles DELETE /admin/payment-methods/{currency}
func (h *AdminHandler) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeletePaymentMethod(r.Context(), chi.URLParam(r, "currency")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListContent handles GET /admin/content
func (h *AdminHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.catalog.AllContent(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// PutContent handles PUT /admin/content/{key}
func (h *AdminHandler) PutContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.catalog.SetContent(r.Context(), chi.URLParam(r, "key"), req.Value); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Orders ---

// ListOrders handles GET /admin/orders?status=pending
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.OrderStatusPending, models.OrderStatusCompleted, models.OrderStatusRejected:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_status"})
		return
	}
	orders, err := h.payments.Orders(r.Context(), status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOrder handles GET /admin/orders/{id}
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.payments.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(o))
}

// ConfirmOrder handles POST /admin/orders/{id}/confirm
func (h *AdminHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	out, err := h.payments.Confirm(r.Context(), chi.URLParam(r, "id"))
	h.writeOutcome(w, out, err)
}

// RejectOrder handles POST /admin/orders/{id}/reject
func (h *AdminHandler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	out, err := h.payments.Reject(r.Context(), chi.URLParam(r, "id"))
	h.writeOutcome(w, out, err)
}

func (h *AdminHandler) writeOutcome(w http.ResponseWriter, out service.Outcome, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OutcomeResponse{Order: orderResponse(out.Order), Changed: out.Changed, Undelivered: out.Undelivered})
}

// Stats handles GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.catalog.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"products":         s.Products,
		"active_products":  s.ActiveProducts,
		"orders":           s.Orders,
		"completed_orders": s.CompletedOrders,
		"pending_orders":   s.PendingOrders,
		"cart_rows":        s.CartRows,
		"discount_codes":   s.DiscountCodes,
		"active_codes":     s.ActiveCodes,
	})
}
