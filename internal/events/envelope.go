package events

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"
	EventCheckoutRejected   = "CheckoutRejected"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"` // RFC3339
	Producer      string          `json:"producer"`    // e.g. "commerce-core"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id where one exists
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload types per event ----

type LineQtyPrice struct {
	ProductID      int64 `json:"product_id"`
	Qty            int   `json:"qty"`
	UnitPriceCents int64 `json:"unit_price_cents"`
}

type OrderPlacedPayload struct {
	OrderID    string         `json:"order_id"`
	UserID     string         `json:"user_id"`
	Lines      []LineQtyPrice `json:"lines"`
	TotalCents int64          `json:"total_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type OrderCancelledPayload struct {
	OrderID          string `json:"order_id"`
	UserID           string `json:"user_id"`
	ReleasedHoldings int    `json:"released_holdings"`
}

type RejectedDetail struct {
	ProductID int64 `json:"product_id"`
	Required  int   `json:"required"`
	Available int   `json:"available"`
}

type CheckoutRejectedPayload struct {
	UserID  string           `json:"user_id"`
	Reason  string           `json:"reason"` // e.g. OUT_OF_STOCK
	Details []RejectedDetail `json:"details,omitempty"`
}
