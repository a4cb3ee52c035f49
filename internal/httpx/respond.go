package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coffeeco/order-engine/internal/orders"
)

var errInvalidSubject = errors.New("invalid token subject")

func isInsufficientStock(err error) bool {
	var e *orders.InsufficientStockError
	return errors.As(err, &e)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders domain errors as specific client responses and hides
// everything else behind an opaque 500. Callers of a failed checkout can
// safely retry from scratch because nothing partial was committed.
func writeError(w http.ResponseWriter, err error) {
	var (
		stockErr      *orders.InsufficientStockError
		transitionErr *orders.InvalidTransitionError
	)
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "insufficient stock",
			"variant_id": stockErr.VariantID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
	case errors.As(err, &transitionErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "invalid transition",
			"from":  transitionErr.From,
			"to":    transitionErr.To,
		})
	case errors.Is(err, orders.ErrInsufficientPoints):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "insufficient points"})
	case errors.Is(err, orders.ErrEmptyOrder), errors.Is(err, orders.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrVariantNotFound),
		errors.Is(err, orders.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
