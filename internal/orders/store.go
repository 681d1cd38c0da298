// Package orders owns committed orders and the legality of their status
// transitions. Transitions on one order are serialized; different orders
// move independently.
package orders

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// StockReleaser gives the cancelled-order path its one side effect:
// crediting the order's reservations back to the inventory ledger.
type StockReleaser interface {
	ReleaseByOrder(orderID string) int
}

type orderEntry struct {
	mu sync.Mutex
	o  Order
}

type Store struct {
	mu     sync.RWMutex
	orders map[string]*orderEntry
	stock  StockReleaser
}

func NewStore(stock StockReleaser) *Store {
	return &Store{
		orders: make(map[string]*orderEntry),
		stock:  stock,
	}
}

// Put materializes a freshly checked-out order. Zero-line orders are
// rejected at creation so downstream projections never see one.
func (s *Store) Put(o Order) error {
	if len(o.Lines) == 0 {
		return errors.New("order must have at least one line")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return errors.New("order id already exists")
	}
	s.orders[o.ID] = &orderEntry{o: copyOrder(o)}
	return nil
}

func (s *Store) Get(orderID string) (Order, error) {
	e, ok := s.entry(orderID)
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyOrder(e.o), nil
}

func (s *Store) Exists(orderID string) bool {
	_, ok := s.entry(orderID)
	return ok
}

// UpdateStatus applies one edge of the state machine. Re-applying a
// transition whose target the order already reached is a no-op success, so
// at-least-once delivery of status updates stays safe. Entering CANCELLED
// through here carries the same stock release as Cancel.
func (s *Store) UpdateStatus(orderID string, to Status) (Order, error) {
	if !ValidStatus(to) {
		return Order{}, ErrUnknownStatus
	}
	e, ok := s.entry(orderID)
	if !ok {
		return Order{}, ErrOrderNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.o.Status == to {
		return copyOrder(e.o), nil
	}
	if !CanTransition(e.o.Status, to) {
		return Order{}, &InvalidTransitionError{From: e.o.Status, To: to}
	}
	s.applyLocked(e, to)
	return copyOrder(e.o), nil
}

// Cancel moves the order to CANCELLED and releases its reservations.
// Shipped, delivered and already-cancelled orders are not cancellable; in
// particular a repeated cancel is rejected rather than silently re-run,
// its stock release already happened.
func (s *Store) Cancel(orderID string) (Order, error) {
	e, ok := s.entry(orderID)
	if !ok {
		return Order{}, ErrOrderNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !CanTransition(e.o.Status, StatusCancelled) {
		return Order{}, ErrOrderNotCancellable
	}
	s.applyLocked(e, StatusCancelled)
	return copyOrder(e.o), nil
}

func (s *Store) ListByUser(userID string) []Order {
	return s.list(func(o Order) bool { return o.UserID == userID })
}

func (s *Store) ListByStatus(status Status) []Order {
	return s.list(func(o Order) bool { return o.Status == status })
}

func (s *Store) ListAll() []Order {
	return s.list(func(Order) bool { return true })
}

func (s *Store) CountByStatus(status Status) int {
	return len(s.ListByStatus(status))
}

// applyLocked records the transition and runs its side effect. Caller holds
// e.mu and has already validated the edge.
func (s *Store) applyLocked(e *orderEntry, to Status) {
	e.o.Status = to
	e.o.History = append(e.o.History, StatusChange{Status: to, At: time.Now().UTC()})
	if to == StatusCancelled && s.stock != nil {
		s.stock.ReleaseByOrder(e.o.ID)
	}
}

func (s *Store) entry(orderID string) (*orderEntry, bool) {
	s.mu.RLock()
	e, ok := s.orders[orderID]
	s.mu.RUnlock()
	return e, ok
}

func (s *Store) list(keep func(Order) bool) []Order {
	s.mu.RLock()
	entries := make([]*orderEntry, 0, len(s.orders))
	for _, e := range s.orders {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]Order, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if keep(e.o) {
			out = append(out, copyOrder(e.o))
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func copyOrder(o Order) Order {
	c := o
	c.Lines = append([]Line(nil), o.Lines...)
	c.History = append([]StatusChange(nil), o.History...)
	return c
}
