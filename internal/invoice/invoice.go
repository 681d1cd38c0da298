// Package invoice derives invoice data from committed orders. An invoice
// is a projection, never stored apart from its order, so deriving it twice
// gives byte-identical results. Document rendering lives elsewhere.
package invoice

import (
	"github.com/dogu-dev/commerce-core/internal/orders"
)

type Line struct {
	ProductID      int64 `json:"product_id"`
	Qty            int   `json:"qty"`
	UnitPriceCents int64 `json:"unit_price_cents"`
	LineTotalCents int64 `json:"line_total_cents"`
}

type Invoice struct {
	OrderID       string `json:"order_id"`
	UserID        string `json:"user_id"`
	Lines         []Line `json:"lines"`
	SubtotalCents int64  `json:"subtotal_cents"`
	TotalCents    int64  `json:"total_cents"`
}

// Derive is a pure function of the order's snapshotted line prices.
func Derive(o orders.Order) Invoice {
	inv := Invoice{
		OrderID: o.ID,
		UserID:  o.UserID,
		Lines:   make([]Line, 0, len(o.Lines)),
	}
	for _, ln := range o.Lines {
		lineTotal := ln.UnitPriceCents * int64(ln.Qty)
		inv.Lines = append(inv.Lines, Line{
			ProductID:      ln.ProductID,
			Qty:            ln.Qty,
			UnitPriceCents: ln.UnitPriceCents,
			LineTotalCents: lineTotal,
		})
		inv.SubtotalCents += lineTotal
	}
	// tax and shipping are out of scope, subtotal carries through
	inv.TotalCents = inv.SubtotalCents
	return inv
}

// Deriver resolves orders before projecting them.
type Deriver struct {
	Orders *orders.Store
}

func (d *Deriver) ForOrder(orderID string) (Invoice, error) {
	o, err := d.Orders.Get(orderID)
	if err != nil {
		return Invoice{}, err
	}
	return Derive(o), nil
}

func (d *Deriver) ForUser(userID string) []Invoice {
	os := d.Orders.ListByUser(userID)
	out := make([]Invoice, 0, len(os))
	for _, o := range os {
		out = append(out, Derive(o))
	}
	return out
}

// TotalInvoicedCents sums every order's invoice total for admin stats.
func (d *Deriver) TotalInvoicedCents() (count int, total int64) {
	for _, o := range d.Orders.ListAll() {
		total += Derive(o).TotalCents
		count++
	}
	return count, total
}
