package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/api/handlers"
	"github.com/Cheertaboi/chat-storefront-service/internal/api/middleware"
)

type RouterConfig struct {
	AdminID        int64
	AdminJWTSecret string
	GatewaySecret  string
	EventRate      float64
	EventBurst     int
}

// NewRouter builds the HTTP router for the storefront service
func NewRouter(cfg RouterConfig, events *handlers.EventsHandler, admin *handlers.AdminHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(logger))

	// Chat gateway
	r.With(
		middleware.RateLimit(cfg.EventRate, cfg.EventBurst),
		middleware.GatewayAuth(cfg.GatewaySecret, logger),
	).Post("/events", events.Post)

	// Admin endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.AdminJWTSecret, cfg.AdminID, logger))

		r.Get("/products", admin.ListProducts)
		r.Post("/products", admin.CreateProduct)
		r.Patch("/products/{id}", admin.UpdateProduct)
		r.Delete("/products/{id}", admin.DeleteProduct)

		r.Get("/discount-codes", admin.ListDiscountCodes)
		r.Post("/discount-codes", admin.CreateDiscountCode)
		r.Delete("/discount-codes/{code}", admin.DeactivateDiscountCode)

		r.Get("/payment-methods", admin.ListPaymentMethods)
		r.Put("/payment-methods/{currency}", admin.PutPaymentMethod)
		r.Delete("/payment-methods/{currency}", admin.DeletePaymentMethod)

		r.Get("/content", admin.ListContent)
		r.Put("/content/{key}", admin.PutContent)

		r.Get("/orders", admin.ListOrders)
		r.Get("/orders/{id}", admin.GetOrder)
		r.Post("/orders/{id}/confirm", admin.ConfirmOrder)
		r.Post("/orders/{id}/reject", admin.RejectOrder)

		r.Get("/stats", admin.Stats)
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
