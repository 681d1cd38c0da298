package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dogu-dev/commerce-core/internal/invoice"
	"github.com/dogu-dev/commerce-core/internal/ledger"
	"github.com/dogu-dev/commerce-core/internal/orders"
)

// AdminHandler serves the operations the gateway restricts to role ADMIN:
// inventory adjustment, cross-user order listing and statistics.
type AdminHandler struct {
	Ledger   *ledger.Ledger
	Orders   *orders.Store
	Invoices *invoice.Deriver
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Post("/products", h.upsertProduct)
	r.Put("/products/{productID}/reduce-stock", h.reduceStock)
	r.Put("/products/{productID}/restock", h.restock)
	r.Get("/low-stock", h.lowStock)
	r.Get("/orders", h.listOrders)
	r.Get("/stats", h.stats)
}

type upsertProductReq struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

func (h *AdminHandler) upsertProduct(w http.ResponseWriter, r *http.Request) {
	var req upsertProductReq
	if !decode(w, r, &req) {
		return
	}
	if req.ID <= 0 || req.PriceCents < 0 || req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product"})
		return
	}
	p := h.Ledger.Upsert(ledger.Product{
		ID:         req.ID,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Available:  req.Quantity,
	})
	writeJSON(w, http.StatusOK, p)
}

// reduceStock goes through the same atomic decrement as checkout
// reservation and fails rather than letting the counter go negative.
func (h *AdminHandler) reduceStock(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, -1)
}

func (h *AdminHandler) restock(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, 1)
}

func (h *AdminHandler) adjust(w http.ResponseWriter, r *http.Request, sign int) {
	pid, ok := productIDParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be positive"})
		return
	}
	p, err := h.Ledger.Adjust(pid, sign*req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold := 5
	if v := r.URL.Query().Get("threshold"); v != "" {
		t, err := strconv.Atoi(v)
		if err != nil || t < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid threshold"})
			return
		}
		threshold = t
	}
	writeJSON(w, http.StatusOK, h.Ledger.LowStock(threshold))
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	if s := r.URL.Query().Get("status"); s != "" {
		status := orders.Status(s)
		if !orders.ValidStatus(status) {
			writeError(w, orders.ErrUnknownStatus)
			return
		}
		writeJSON(w, http.StatusOK, h.Orders.ListByStatus(status))
		return
	}
	writeJSON(w, http.StatusOK, h.Orders.ListAll())
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	invoiceCount, invoicedCents := h.Invoices.TotalInvoicedCents()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_products":       len(h.Ledger.List()),
		"low_stock_count":      len(h.Ledger.LowStock(5)),
		"total_orders":         len(h.Orders.ListAll()),
		"placed_orders":        h.Orders.CountByStatus(orders.StatusPlaced),
		"confirmed_orders":     h.Orders.CountByStatus(orders.StatusConfirmed),
		"shipped_orders":       h.Orders.CountByStatus(orders.StatusShipped),
		"delivered_orders":     h.Orders.CountByStatus(orders.StatusDelivered),
		"cancelled_orders":     h.Orders.CountByStatus(orders.StatusCancelled),
		"total_invoices":       invoiceCount,
		"total_invoiced_cents": invoicedCents,
	})
}
