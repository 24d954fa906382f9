package orders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/orderdesk/orderdesk/internal/inventory"
	"github.com/orderdesk/orderdesk/internal/invoice"
	"github.com/orderdesk/orderdesk/internal/masterdata/customers"
	"github.com/orderdesk/orderdesk/internal/masterdata/products"
	"github.com/orderdesk/orderdesk/internal/masterdata/shared"
	"github.com/orderdesk/orderdesk/internal/platform/httpx"
)

// ProductCatalog supplies catalog data for invoicing. Satisfied by
// products.Service.
type ProductCatalog interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

type Handler struct {
	logger    *slog.Logger
	service   *Service
	catalog   ProductCatalog
	customers CustomerDirectory
	validate  *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, catalog ProductCatalog, customerDir CustomerDirectory) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		catalog:   catalog,
		customers: customerDir,
		validate:  validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Get("/orders/{orderID}", h.Show)
	r.Get("/orders/{orderID}/invoice", h.Invoice)
	r.Post("/orders/{orderID}/lines", h.AddLine)
	r.Put("/orders/{orderID}/pricing", h.SetPricing)
	r.Post("/orders/{orderID}/advance", h.Advance)
	r.Put("/lines/{lineID}", h.UpdateLine)
	r.Delete("/lines/{lineID}", h.RemoveLine)
	r.Get("/customers/{customerID}/orders", h.History)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	orderDate := time.Now().UTC()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	order, err := h.service.CreateOrder(r.Context(), req.CustomerID, orderDate)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}

	h.logger.Info("order created", slog.Int64("order_id", order.ID), slog.Int64("customer_id", order.CustomerID))
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	order, err := h.service.Get(r.Context(), orderID)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// Invoice renders the priced view of an order. Totals are computed on the
// fly from the current catalog prices and never stored.
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	order, err := h.service.Get(r.Context(), orderID)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}

	catalog, err := h.loadCatalog(r.Context(), order)
	if err != nil {
		h.logger.Error("invoice product lookup failed", slog.Int64("order_id", orderID), "error", err)
		httpx.RespondError(w, mapErr(err))
		return
	}

	in := invoice.Input{
		OrderID:     order.ID,
		OrderDate:   order.OrderDate,
		Status:      string(order.Status),
		DiscountPct: order.DiscountPct,
		TaxPct:      order.TaxPct,
		Lines:       make([]invoice.LineInput, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		in.Lines = append(in.Lines, invoice.LineInput{
			LineID:    line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	inv, err := invoice.Compute(in, catalog)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	customer, err := h.customers.Get(r.Context(), order.CustomerID)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"customer": customer,
		"invoice":  inv.Rounded(),
	})
}

// loadCatalog resolves name and price for every distinct product on the
// order, fetching in parallel.
func (h *Handler) loadCatalog(ctx context.Context, order Order) (map[int64]invoice.ProductInfo, error) {
	ids := make([]int64, 0, len(order.Lines))
	seen := make(map[int64]struct{}, len(order.Lines))
	for _, line := range order.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	var mu sync.Mutex
	catalog := make(map[int64]invoice.ProductInfo, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			product, err := h.catalog.Get(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			catalog[id] = invoice.ProductInfo{Name: product.Name, Price: product.Price}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	var req addLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	line, err := h.service.AddLine(r.Context(), orderID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondMutationError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, line)
}

func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := pathID(w, r, "lineID")
	if !ok {
		return
	}

	var req updateLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.UpdateLineQuantity(r.Context(), lineID, req.Quantity); err != nil {
		h.respondMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := pathID(w, r, "lineID")
	if !ok {
		return
	}

	if err := h.service.RemoveLine(r.Context(), lineID); err != nil {
		h.respondMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetPricing(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	var req pricingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.SetDiscountAndTax(r.Context(), orderID, req.DiscountPct, req.TaxPct); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	var req advanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.Advance(r.Context(), orderID, Status(req.Status))
	if err != nil {
		var transition *InvalidTransitionError
		if errors.As(err, &transition) {
			httpx.JSON(w, http.StatusConflict, map[string]any{
				"title":  "Invalid Status Transition",
				"status": http.StatusConflict,
				"from":   transition.From,
				"to":     transition.To,
			})
			return
		}
		httpx.RespondError(w, mapErr(err))
		return
	}

	if result.NoOp {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"status":  result.Status,
			"changed": false,
			"notice":  "order already in requested status",
		})
		return
	}

	h.logger.Info("order status advanced", slog.Int64("order_id", orderID), slog.String("status", string(result.Status)))
	httpx.JSON(w, http.StatusOK, map[string]any{"status": result.Status, "changed": true})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "customerID")
	if !ok {
		return
	}

	history, err := h.service.History(r.Context(), customerID)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": history})
}

// respondMutationError handles line mutations, where an insufficient-stock
// outcome carries a structured payload the client acts on.
func (h *Handler) respondMutationError(w http.ResponseWriter, err error) {
	var shortage *inventory.InsufficientStockError
	if errors.As(err, &shortage) {
		httpx.JSON(w, http.StatusConflict, map[string]any{
			"title":      "Insufficient Stock",
			"status":     http.StatusConflict,
			"product_id": shortage.ProductID,
			"requested":  shortage.Requested,
			"available":  shortage.Available,
			"shortfall":  shortage.Shortfall(),
		})
		return
	}
	httpx.RespondError(w, mapErr(err))
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", name+" must be numeric")
		return 0, false
	}
	return id, true
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrLineNotFound),
		errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, inventory.ErrStockNotFound),
		errors.Is(err, shared.ErrNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrPercentOutOfRange),
		errors.Is(err, ErrUnknownStatus):
		return httpx.ErrValidation
	}
	return err
}

var _ CustomerDirectory = (*customers.Service)(nil)
