package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orderdesk/orderdesk/internal/inventory"
	"github.com/orderdesk/orderdesk/internal/masterdata/customers"
	"github.com/orderdesk/orderdesk/internal/masterdata/products"
	"github.com/orderdesk/orderdesk/internal/masterdata/suppliers"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/internal/replenish"
	"github.com/orderdesk/orderdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	ProductHandler   *products.Handler
	SupplierHandler  *suppliers.Handler
	CustomerHandler  *customers.Handler
	InventoryHandler *inventory.Handler
	OrderHandler     *orders.Handler
	ReplenishHandler *replenish.Handler
	JobsHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with Orderdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/masterdata", func(r chi.Router) {
			params.ProductHandler.MountRoutes(r)
			params.SupplierHandler.MountRoutes(r)
			params.CustomerHandler.MountRoutes(r)
		})
		params.InventoryHandler.MountRoutes(r)
		params.OrderHandler.MountRoutes(r)
		params.ReplenishHandler.MountRoutes(r)
		if params.JobsHandler != nil {
			params.JobsHandler.MountRoutes(r)
		}
	})

	return r
}
