package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxRequestBodySize = 1 << 20 // 1MB

// NewRouter wires the cart routes. The whole router is wrapped in otelhttp
// so every request gets a server span.
func NewRouter(cart *CartHandler, requestTimeout time.Duration, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(MaxBodySize(maxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Get("/stock-report", cart.StockReport)
			r.Post("/items", cart.AddProduct)
			r.Put("/items/{product_id}", cart.UpdateProductAmount)
			r.Delete("/items/{product_id}", cart.RemoveProduct)
		})
	})

	return otelhttp.NewHandler(r, "cart-service")
}
