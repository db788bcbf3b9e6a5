package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wellnexa/cart-service/pkg/health"
	"github.com/wellnexa/cart-service/pkg/middleware"

	"github.com/wellnexa/cart-service/internal/service"
)

// NewRouter creates a chi router with all cart service routes registered.
func NewRouter(
	carts *service.CartService,
	payments *service.PaymentService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(CORS)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cart"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Cart API endpoints
	cartHandler := NewCartHandler(carts, payments, logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(UserIDFromHeader)

		r.Get("/", cartHandler.ListItems)
		r.Get("/wishlist", cartHandler.ListWaitlist)

		r.Post("/items", cartHandler.AddItem)
		r.Delete("/items/{productId}", cartHandler.RemoveItem)
		r.Delete("/wishlist/{productId}", cartHandler.RemoveWishlistItem)

		r.Post("/checkout", cartHandler.Checkout)

		r.Get("/{cartId}", cartHandler.GetCartByID)
		r.Delete("/{cartId}", cartHandler.ClearCart)
	})

	return r
}
