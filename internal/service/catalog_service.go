package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
	"github.com/Cheertaboi/chat-storefront-service/internal/repository"
)

type ProductStore interface {
	ListAvailable(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, p models.Product) (int64, error)
	Update(ctx context.Context, id int64, patch models.ProductPatch) error
	Delete(ctx context.Context, id int64) error
	DecrementStock(ctx context.Context, q repository.DBTX, id int64, qty int) error
}

type CartStore interface {
	Lines(ctx context.Context, userID int64) ([]models.CartLine, error)
	AddOne(ctx context.Context, userID, productID int64) (int, error)
	Clear(ctx context.Context, q repository.DBTX, userID int64) error
}

type ContentStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

type PaymentMethodStore interface {
	List(ctx context.Context) ([]models.PaymentMethod, error)
	Get(ctx context.Context, currency string) (*models.PaymentMethod, error)
	Upsert(ctx context.Context, m models.PaymentMethod) error
	Delete(ctx context.Context, currency string) error
}

type StatsStore interface {
	Collect(ctx context.Context) (models.Stats, error)
}

// CatalogService covers everything a buyer browses and everything the admin
// curates: products, carts, static pages and payment methods.
type CatalogService struct {
	products ProductStore
	carts    CartStore
	content  ContentStore
	methods  PaymentMethodStore
	stats    StatsStore
	logger   *zap.Logger
}

func NewCatalogService(products ProductStore, carts CartStore, content ContentStore, methods PaymentMethodStore, stats StatsStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		carts:    carts,
		content:  content,
		methods:  methods,
		stats:    stats,
		logger:   logger,
	}
}

func productNotFound(id int64) *Error {
	return newError(KindNotFound, ReasonProductNotFound, "Product not found or no longer available.")
}

// Browse lists active products that are in stock.
func (s *CatalogService) Browse(ctx context.Context) ([]models.Product, error) {
	return s.products.ListAvailable(ctx)
}

// Product returns an active product for buyers.
func (s *CatalogService) Product(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Active {
		return nil, productNotFound(id)
	}
	return p, nil
}

// AddToCart adds one unit and returns the new quantity in the cart.
func (s *CatalogService) AddToCart(ctx context.Context, userID, productID int64) (int, error) {
	qty, err := s.carts.AddOne(ctx, userID, productID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return 0, productNotFound(productID)
	case errors.Is(err, repository.ErrConflict):
		return 0, newError(KindConflict, ReasonInsufficientStock, "Not enough quantity available.")
	case err != nil:
		return 0, err
	}
	return qty, nil
}

func (s *CatalogService) Cart(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return s.carts.Lines(ctx, userID)
}

func (s *CatalogService) ClearCart(ctx context.Context, userID int64) error {
	return s.carts.Clear(ctx, nil, userID)
}

// Content returns a static page, falling back to the seeded default.
func (s *CatalogService) Content(ctx context.Context, key string) (string, error) {
	v, ok, err := s.content.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", newError(KindNotFound, ReasonInvalidInput, "page %s not found", key)
	}
	return v, nil
}

func (s *CatalogService) AllContent(ctx context.Context) (map[string]string, error) {
	return s.content.All(ctx)
}

func (s *CatalogService) SetContent(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return validationError("content key is required")
	}
	return s.content.Set(ctx, key, value)
}

func (s *CatalogService) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return s.methods.List(ctx)
}

func (s *CatalogService) PaymentMethod(ctx context.Context, currency string) (*models.PaymentMethod, error) {
	m, err := s.methods.Get(ctx, models.NormalizeCurrency(currency))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, newError(KindNotFound, ReasonPaymentMethodNotFound, "Payment method not available.")
	}
	return m, nil
}

func (s *CatalogService) SavePaymentMethod(ctx context.Context, m models.PaymentMethod) error {
	m.CurrencyCode = models.NormalizeCurrency(m.CurrencyCode)
	m.Address = strings.TrimSpace(m.Address)
	if m.CurrencyCode == "" || m.Address == "" {
		return validationError("currency code and address are required")
	}
	return s.methods.Upsert(ctx, m)
}

func (s *CatalogService) DeletePaymentMethod(ctx context.Context, currency string) error {
	err := s.methods.Delete(ctx, models.NormalizeCurrency(currency))
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindNotFound, ReasonPaymentMethodNotFound, "Payment method not found.")
	}
	return err
}

// Admin product management.

func (s *CatalogService) AllProducts(ctx context.Context) ([]models.Product, error) {
	return s.products.ListAll(ctx)
}

// AnyProduct returns a product regardless of its active flag.
func (s *CatalogService) AnyProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, productNotFound(id)
	}
	return p, nil
}

func validateProduct(p models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return validationError("product name is required")
	}
	if !p.Price.IsPositive() {
		return validationError("price must be positive")
	}
	if p.Quantity < 0 {
		return validationError("quantity cannot be negative")
	}
	if p.Coordinates != "" {
		if _, err := ParseCoordinates(p.Coordinates); err != nil {
			return err
		}
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	id, err := s.products.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	s.logger.Info("product created", zap.Int64("product_id", id), zap.String("name", p.Name), zap.Int("quantity", p.Quantity))
	return &p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	current, err := s.AnyProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := *current
	if patch.Name != nil {
		merged.Name = strings.TrimSpace(*patch.Name)
		patch.Name = &merged.Name
	}
	if patch.Price != nil {
		merged.Price = *patch.Price
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Quantity != nil {
		merged.Quantity = *patch.Quantity
	}
	if patch.Coordinates != nil {
		merged.Coordinates = *patch.Coordinates
	}
	if err := validateProduct(merged); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, productNotFound(id)
		}
		return nil, err
	}
	return s.AnyProduct(ctx, id)
}

// ToggleActive flips the product's visibility and returns the new state.
func (s *CatalogService) ToggleActive(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.AnyProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !p.Active
	return s.UpdateProduct(ctx, id, models.ProductPatch{Active: &active})
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return productNotFound(id)
	}
	if err == nil {
		s.logger.Info("product deleted", zap.Int64("product_id", id))
	}
	return err
}

func (s *CatalogService) Stats(ctx context.Context) (models.Stats, error) {
	return s.stats.Collect(ctx)
}

// ParseCoordinates accepts "lat, lon" and returns it normalized.
func ParseCoordinates(raw string) (string, error) {
	latRaw, lonRaw, ok := strings.Cut(raw, ",")
	if !ok {
		return "", validationError("coordinates must look like \"lat, lon\"")
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err1 != nil || err2 != nil {
		return "", validationError("coordinates must be numbers")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", validationError("coordinates out of range")
	}
	return fmt.Sprintf("%s, %s", strings.TrimSpace(latRaw), strings.TrimSpace(lonRaw)), nil
}

// ParsePrice accepts "25", "25.5" or "25,50".
func ParsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, validationError("price must be a positive number")
	}
	return d.Round(2), nil
}
