package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dogu-dev/commerce-core/internal/auth"
	"github.com/dogu-dev/commerce-core/internal/ledger"
	"github.com/dogu-dev/commerce-core/internal/wishlist"
)

type CatalogHandler struct {
	Ledger   *ledger.Ledger
	Wishlist *wishlist.Store
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/wishlist", h.listWishlist)
	r.Post("/wishlist", h.addWishlist)
	r.Delete("/wishlist/{productID}", h.removeWishlist)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.List())
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	pid, ok := productIDParam(w, r)
	if !ok {
		return
	}
	p, err := h.Ledger.Get(pid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) listWishlist(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, h.Wishlist.ListByUser(id.UserID))
}

func (h *CatalogHandler) addWishlist(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var req struct {
		ProductID int64 `json:"product_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	// wishlist entries only make sense for known products
	if _, err := h.Ledger.Get(req.ProductID); err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.Wishlist.Add(id.UserID, req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *CatalogHandler) removeWishlist(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	pid, ok := productIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Wishlist.Remove(id.UserID, pid); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
