package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dogu-dev/commerce-core/internal/basket"
	"github.com/dogu-dev/commerce-core/internal/checkout"
	"github.com/dogu-dev/commerce-core/internal/ledger"
	"github.com/dogu-dev/commerce-core/internal/orders"
	"github.com/dogu-dev/commerce-core/internal/wishlist"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto 4xx responses. Everything
// here is recoverable and user-facing; only unknown errors become a 500.
func writeError(w http.ResponseWriter, err error) {
	var ise *ledger.InsufficientStockError
	if errors.As(err, &ise) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "insufficient stock",
			"product_id": ise.ProductID,
			"requested":  ise.Requested,
			"available":  ise.Available,
		})
		return
	}
	var ite *orders.InvalidTransitionError
	if errors.As(err, &ite) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "invalid status transition",
			"from":  ite.From,
			"to":    ite.To,
		})
		return
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrProductNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, basket.ErrLineNotFound),
		errors.Is(err, wishlist.ErrNotInWishlist):
		code = http.StatusNotFound
	case errors.Is(err, checkout.ErrEmptyBasket),
		errors.Is(err, basket.ErrInvalidQuantity),
		errors.Is(err, orders.ErrUnknownStatus):
		code = http.StatusBadRequest
	case errors.Is(err, orders.ErrOrderNotCancellable),
		errors.Is(err, wishlist.ErrAlreadyInWishlist):
		code = http.StatusConflict
	}
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}
