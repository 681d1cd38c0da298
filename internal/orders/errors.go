package orders

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotCancellable: the order shipped, was delivered, or is
	// already cancelled; its stock release must not run (again).
	ErrOrderNotCancellable = errors.New("order is not cancellable")
	ErrUnknownStatus       = errors.New("unknown status")
)

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}
