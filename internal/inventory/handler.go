package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orderdesk/orderdesk/internal/platform/httpx"
)

type createEntryRequest struct {
	ProductID        int64 `json:"product_id" validate:"required,gt=0"`
	Quantity         int   `json:"quantity" validate:"gte=0"`
	ReorderThreshold int   `json:"reorder_threshold" validate:"gte=0"`
	SupplierID       int64 `json:"supplier_id" validate:"required,gt=0"`
}

type setAbsoluteRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/inventory", h.List)
	r.Get("/inventory/{productID}", h.Show)
	r.Post("/inventory", h.CreateEntry)
	r.Put("/inventory/{productID}/quantity", h.SetAbsolute)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListEntries(r.Context())
	if err != nil {
		h.logger.Error("list stock entries failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	entry, err := h.service.GetEntry(r.Context(), productID)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	err := h.service.CreateEntry(r.Context(), req.ProductID, req.Quantity, req.ReorderThreshold, req.SupplierID)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// SetAbsolute serves the physical-count correction workflow. The read/confirm
// loop lives in the caller; only the final overwrite lands here.
func (h *Handler) SetAbsolute(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	var req setAbsoluteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.SetAbsolute(r.Context(), productID, req.Quantity); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}

	h.logger.Info("stock corrected",
		slog.Int64("product_id", productID),
		slog.Int("new_quantity", req.Quantity),
	)
	w.WriteHeader(http.StatusNoContent)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrStockNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, ErrEntryExists):
		return httpx.ErrDuplicate
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidThreshold):
		return httpx.ErrValidation
	}
	return err
}
