// Package checkout converts a user's basket into a durable order. The
// reservation pass is all-or-nothing: either every line gets a hold and the
// order materializes, or everything acquired so far is released and an
// error names the product that failed.
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dogu-dev/commerce-core/internal/basket"
	"github.com/dogu-dev/commerce-core/internal/events"
	"github.com/dogu-dev/commerce-core/internal/ledger"
	"github.com/dogu-dev/commerce-core/internal/orders"
)

var ErrEmptyBasket = errors.New("basket is empty")

// Archive persists placed orders outside process memory. Failures are
// logged, never surfaced: the in-memory stores stay authoritative.
type Archive interface {
	InsertOrder(ctx context.Context, o orders.Order) error
}

type Service struct {
	Basket  *basket.Store
	Ledger  *ledger.Ledger
	Orders  *orders.Store
	Archive Archive
	Events  *events.Publisher
	Log     *zap.Logger
}

// Checkout snapshots the basket, reserves every line in ascending
// product-id order (holds across concurrent checkouts are then acquired in
// one global order, so overlapping baskets cannot deadlock), creates the
// order as PLACED, commits the holds and clears the basket.
func (s *Service) Checkout(ctx context.Context, userID string) (orders.Order, error) {
	lines := s.Basket.Snapshot(userID) // sorted ascending by product id
	if len(lines) == 0 {
		return orders.Order{}, ErrEmptyBasket
	}

	orderID := uuid.NewString()
	held := make([]ledger.Reservation, 0, len(lines))
	for _, ln := range lines {
		res, err := s.Ledger.Reserve(orderID, ln.ProductID, ln.Qty)
		if err != nil {
			s.rollback(held)
			s.reportRejected(userID, ln.ProductID, err)
			return orders.Order{}, err
		}
		held = append(held, res)
	}

	now := time.Now().UTC()
	o := orders.Order{
		ID:        orderID,
		UserID:    userID,
		Status:    orders.StatusPlaced,
		CreatedAt: now,
		History:   []orders.StatusChange{{Status: orders.StatusPlaced, At: now}},
	}
	for _, h := range held {
		o.Lines = append(o.Lines, orders.Line{
			ProductID:      h.ProductID,
			Qty:            h.Qty,
			UnitPriceCents: h.UnitPriceCents,
		})
		o.TotalCents += h.UnitPriceCents * int64(h.Qty)
	}

	if err := s.Orders.Put(o); err != nil {
		s.rollback(held)
		return orders.Order{}, err
	}
	for _, h := range held {
		_ = s.Ledger.Commit(h.Token)
	}
	s.Basket.Clear(userID)

	if s.Archive != nil {
		if err := s.Archive.InsertOrder(ctx, o); err != nil {
			s.log().Warn("order archive write failed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	s.publishPlaced(o)

	s.log().Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Int("lines", len(o.Lines)),
		zap.Int64("total_cents", o.TotalCents))
	return o, nil
}

func (s *Service) rollback(held []ledger.Reservation) {
	for _, h := range held {
		if err := s.Ledger.Release(h.Token); err != nil {
			s.log().Error("rollback release failed",
				zap.String("token", h.Token), zap.Error(err))
		}
	}
}

func (s *Service) publishPlaced(o orders.Order) {
	pl := events.OrderPlacedPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
	}
	for _, ln := range o.Lines {
		pl.Lines = append(pl.Lines, events.LineQtyPrice{
			ProductID:      ln.ProductID,
			Qty:            ln.Qty,
			UnitPriceCents: ln.UnitPriceCents,
		})
	}
	s.Events.OrderPlaced("", pl)
}

func (s *Service) reportRejected(userID string, productID int64, err error) {
	pl := events.CheckoutRejectedPayload{UserID: userID, Reason: "OUT_OF_STOCK"}
	var ise *ledger.InsufficientStockError
	switch {
	case errors.As(err, &ise):
		pl.Details = []events.RejectedDetail{{
			ProductID: ise.ProductID,
			Required:  ise.Requested,
			Available: ise.Available,
		}}
	case errors.Is(err, ledger.ErrProductNotFound):
		pl.Reason = "PRODUCT_NOT_FOUND"
		pl.Details = []events.RejectedDetail{{ProductID: productID}}
	}
	s.Events.CheckoutRejected("", pl)

	s.log().Info("checkout rejected",
		zap.String("user_id", userID),
		zap.Int64("product_id", productID),
		zap.String("reason", pl.Reason))
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
