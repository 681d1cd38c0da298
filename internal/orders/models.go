package orders

import "time"

// Line is immutable once the order exists; the unit price is the one
// snapshotted at checkout, never recomputed from the current catalog.
type Line struct {
	ProductID      int64 `json:"product_id"`
	Qty            int   `json:"qty"`
	UnitPriceCents int64 `json:"unit_price_cents"`
}

type StatusChange struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

type Order struct {
	ID         string         `json:"order_id"`
	UserID     string         `json:"user_id"`
	Lines      []Line         `json:"lines"`
	Status     Status         `json:"status"`
	TotalCents int64          `json:"total_cents"`
	CreatedAt  time.Time      `json:"created_at"`
	History    []StatusChange `json:"status_history"` // append-only
}
