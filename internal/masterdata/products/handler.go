package products

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orderdesk/orderdesk/internal/masterdata/shared"
	"github.com/orderdesk/orderdesk/internal/platform/httpx"
)

// StockCreator creates the stock entry for a newly registered product. It is
// satisfied by the inventory service.
type StockCreator interface {
	CreateEntry(ctx context.Context, productID int64, quantity, threshold int, supplierID int64) error
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	stock    StockCreator
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, stock StockCreator) *Handler {
	return &Handler{logger: logger, service: service, stock: stock, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Show)
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	filters := shared.ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}

	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"products": items,
		"total":    total,
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), Product{Name: req.Name, Price: req.Price})
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	// Initial stock is best-effort after the product row exists; a failed
	// entry leaves the product without stock, matching the registration flow.
	var stockWarning string
	if req.InitialStock != nil && h.stock != nil {
		err := h.stock.CreateEntry(r.Context(), created.ID,
			req.InitialStock.Quantity, req.InitialStock.ReorderThreshold, req.InitialStock.SupplierID)
		if err != nil {
			h.logger.Warn("product created without stock entry", "product_id", created.ID, "error", err)
			stockWarning = "product created without stock entry: " + err.Error()
		}
	}

	resp := map[string]any{"product": created}
	if stockWarning != "" {
		resp["warning"] = stockWarning
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.Update(r.Context(), id, Product{Name: req.Name, Price: req.Price}); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapErr(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return httpx.ErrNotFound
	}
	return err
}
