package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dogu-dev/commerce-core/internal/auth"
	"github.com/dogu-dev/commerce-core/internal/events"
	"github.com/dogu-dev/commerce-core/internal/invoice"
	"github.com/dogu-dev/commerce-core/internal/ledger"
	"github.com/dogu-dev/commerce-core/internal/orders"
	"github.com/dogu-dev/commerce-core/internal/redisx"
)

// StatusArchive mirrors status transitions into durable storage,
// best effort.
type StatusArchive interface {
	AppendStatus(ctx context.Context, orderID string, to orders.Status, at time.Time) error
}

type OrdersHandler struct {
	Orders   *orders.Store
	Ledger   *ledger.Ledger
	Invoices *invoice.Deriver
	Redis    *redis.Client
	Events   *events.Publisher
	Archive  StatusArchive
	Log      *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOwn)
	r.Get("/orders/{orderID}", h.get)
	r.Get("/orders/{orderID}/status", h.getStatus)
	r.Put("/orders/{orderID}/status", h.updateStatus)
	r.Delete("/orders/{orderID}/cancel", h.cancel)
	r.Get("/invoices", h.listInvoices)
	r.Get("/invoices/order/{orderID}", h.getInvoice)
}

func (h *OrdersHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, h.Orders.ListByUser(id.UserID))
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// getStatus serves from the Redis cache when possible; the store is the
// fallback and refills the cache.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)

	if h.Redis != nil {
		if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Orders.Get(orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	body, _ := json.Marshal(map[string]any{"order_id": o.ID, "status": o.Status})
	if h.Redis != nil {
		_ = h.Redis.Set(r.Context(), key, body, redisx.TTLStatusCache).Err()
	}
	writeJSON(w, http.StatusOK, json.RawMessage(body))
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	before, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	to := orders.Status(req.Status)

	o, err := h.Orders.UpdateStatus(before.ID, to)
	if err != nil {
		writeError(w, err)
		return
	}
	if before.Status != o.Status {
		h.afterTransition(r, o, before.Status)
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	before, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	o, err := h.Orders.Cancel(before.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.afterTransition(r, o, before.Status)

	released := 0
	if h.Ledger != nil {
		for _, res := range h.Ledger.ReservationsByOrder(o.ID) {
			if res.State == ledger.ReservationReleased {
				released++
			}
		}
	}
	h.Events.OrderCancelled(middleware.GetReqID(r.Context()), events.OrderCancelledPayload{
		OrderID:          o.ID,
		UserID:           o.UserID,
		ReleasedHoldings: released,
	})
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listInvoices(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, h.Invoices.ForUser(id.UserID))
}

func (h *OrdersHandler) getInvoice(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	inv, err := h.Invoices.ForOrder(o.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// loadOwned fetches the order and enforces that only its owner or an admin
// may touch it.
func (h *OrdersHandler) loadOwned(w http.ResponseWriter, r *http.Request) (orders.Order, bool) {
	id, _ := auth.FromContext(r.Context())
	o, err := h.Orders.Get(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return orders.Order{}, false
	}
	if o.UserID != id.UserID && !id.IsAdmin() {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your order"})
		return orders.Order{}, false
	}
	return o, true
}

// afterTransition invalidates the status cache, mirrors the change into
// the archive and publishes the status event.
func (h *OrdersHandler) afterTransition(r *http.Request, o orders.Order, from orders.Status) {
	ctx := r.Context()
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, o.ID)).Err()
	}
	if h.Archive != nil {
		at := time.Now().UTC()
		if n := len(o.History); n > 0 {
			at = o.History[n-1].At
		}
		if err := h.Archive.AppendStatus(ctx, o.ID, o.Status, at); err != nil && h.Log != nil {
			h.Log.Warn("status archive write failed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	h.Events.OrderStatusChanged(middleware.GetReqID(ctx), events.OrderStatusChangedPayload{
		OrderID: o.ID,
		From:    string(from),
		To:      string(o.Status),
	})
}
