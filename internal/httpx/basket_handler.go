package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dogu-dev/commerce-core/internal/auth"
	"github.com/dogu-dev/commerce-core/internal/basket"
	"github.com/dogu-dev/commerce-core/internal/checkout"
)

type BasketHandler struct {
	Basket   *basket.Store
	Checkout *checkout.Service
}

func (h *BasketHandler) Register(r chi.Router) {
	r.Get("/basket-items", h.list)
	r.Post("/basket-items", h.add)
	r.Put("/basket-items/{productID}", h.update)
	r.Delete("/basket-items/{productID}", h.remove)
	r.Post("/checkout", h.checkout)
}

type basketLineReq struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

func (h *BasketHandler) list(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, h.Basket.Snapshot(id.UserID))
}

func (h *BasketHandler) add(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var req basketLineReq
	if !decode(w, r, &req) {
		return
	}
	ln, err := h.Basket.Add(id.UserID, req.ProductID, req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ln)
}

func (h *BasketHandler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	pid, ok := productIDParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Qty int `json:"qty"`
	}
	if !decode(w, r, &req) {
		return
	}
	ln, err := h.Basket.Update(id.UserID, pid, req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ln)
}

func (h *BasketHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	pid, ok := productIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Basket.Remove(id.UserID, pid); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BasketHandler) checkout(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	o, err := h.Checkout.Checkout(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	pid, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return 0, false
	}
	return pid, true
}
