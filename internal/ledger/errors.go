package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrReservationReleased is returned by Commit on a token whose hold was
	// already given back; the counter no longer carries this reservation.
	ErrReservationReleased = errors.New("reservation already released")
)

// InsufficientStockError names the product that could not cover a decrement.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
