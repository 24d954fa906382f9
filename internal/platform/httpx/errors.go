// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/orderdesk/orderdesk/internal/platform/db"
)

// Sentinel errors shared across handler layers.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflicting state")
)

// RespondError maps boundary errors to HTTP responses using RFC7807.
// Domain-specific typed errors are mapped by their handlers before falling
// back here.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, db.ErrBusy):
		w.Header().Set("Retry-After", "1")
		Problem(w, http.StatusServiceUnavailable, "Storage Busy", "transient contention, retry after a short delay")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
