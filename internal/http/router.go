package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Cart     *CartHandler
	Catalog  *CatalogHandler
	Orders   *OrdersHandler
	Purchase *PurchaseHandler
	Auth     *AuthHandler
}

// NewRouter mounts every endpoint behind the shared middleware stack and
// wraps the result for tracing. Handlers bound their own request deadline.
func NewRouter(h Handlers, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(AccessLog(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Post("/cart", h.Cart.Handle)
	r.Post("/catalog", h.Catalog.Handle)
	r.Post("/orders", h.Orders.Handle)
	r.Post("/purchase", h.Purchase.CreatePayment)
	r.Post("/webhooks/stripe", h.Purchase.Webhook)
	r.Post("/auth", h.Auth.Handle)

	return otelhttp.NewHandler(r, "api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
