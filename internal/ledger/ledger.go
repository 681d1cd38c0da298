// Package ledger holds the authoritative available-quantity counter per
// product and the reservation records that decrement it. Stock is taken at
// reserve time, so a hold that later commits never touches the counter
// again and a hold that is released credits it back exactly once.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ReservationState string

const (
	ReservationHeld      ReservationState = "HELD"
	ReservationCommitted ReservationState = "COMMITTED"
	ReservationReleased  ReservationState = "RELEASED"
)

type Product struct {
	ID         int64
	Name       string
	PriceCents int64
	Available  int
}

// Reservation links an order to a ledger decrement. UnitPriceCents is the
// catalog price captured inside the reserve critical section, so checkout
// snapshots exactly the price it reserved at.
type Reservation struct {
	Token          string
	OrderID        string
	ProductID      int64
	Qty            int
	UnitPriceCents int64
	State          ReservationState
	CreatedAt      time.Time
}

type entry struct {
	mu sync.Mutex
	p  Product
}

// Ledger serializes reserve/commit/release per product; operations on
// different products run in parallel. The outer lock only guards map shape,
// product counters and reservation state are guarded by the owning
// product's lock.
type Ledger struct {
	mu       sync.RWMutex
	products map[int64]*entry
	tokens   map[string]*Reservation
}

func New() *Ledger {
	return &Ledger{
		products: make(map[int64]*entry),
		tokens:   make(map[string]*Reservation),
	}
}

// Upsert registers a product or refreshes its catalog-owned fields. The
// available counter is only seeded on first sight; afterwards it moves
// through Reserve/Release/Adjust alone.
func (l *Ledger) Upsert(p Product) Product {
	l.mu.Lock()
	e, ok := l.products[p.ID]
	if !ok {
		e = &entry{p: p}
		l.products[p.ID] = e
		l.mu.Unlock()
		return p
	}
	l.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.p.Name = p.Name
	e.p.PriceCents = p.PriceCents
	return e.p
}

func (l *Ledger) Get(productID int64) (Product, error) {
	e, ok := l.entry(productID)
	if !ok {
		return Product{}, ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.p, nil
}

func (l *Ledger) List() []Product {
	return l.filter(func(Product) bool { return true })
}

func (l *Ledger) LowStock(threshold int) []Product {
	return l.filter(func(p Product) bool { return p.Available <= threshold })
}

// Reserve decrements available stock and records a HELD reservation for the
// order. Two concurrent reservations summing beyond the available quantity
// cannot both succeed: the check and decrement share the product lock.
func (l *Ledger) Reserve(orderID string, productID int64, qty int) (Reservation, error) {
	e, ok := l.entry(productID)
	if !ok {
		return Reservation{}, ErrProductNotFound
	}

	e.mu.Lock()
	if e.p.Available < qty {
		avail := e.p.Available
		e.mu.Unlock()
		return Reservation{}, &InsufficientStockError{ProductID: productID, Requested: qty, Available: avail}
	}
	e.p.Available -= qty
	res := &Reservation{
		Token:          uuid.NewString(),
		OrderID:        orderID,
		ProductID:      productID,
		Qty:            qty,
		UnitPriceCents: e.p.PriceCents,
		State:          ReservationHeld,
		CreatedAt:      time.Now().UTC(),
	}
	e.mu.Unlock()

	l.mu.Lock()
	l.tokens[res.Token] = res
	l.mu.Unlock()
	return *res, nil
}

// Commit turns a HELD reservation into COMMITTED. The counter was already
// decremented at reserve time, so nothing moves here. Committing twice is a
// no-op; committing a released token is an error.
func (l *Ledger) Commit(token string) error {
	res, e, err := l.lookup(token)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	switch res.State {
	case ReservationReleased:
		return ErrReservationReleased
	case ReservationCommitted:
		return nil
	}
	res.State = ReservationCommitted
	return nil
}

// Release credits the reserved quantity back and marks the reservation
// RELEASED. A second release of the same token is a no-op and must not
// double-credit stock.
func (l *Ledger) Release(token string) error {
	res, e, err := l.lookup(token)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	l.releaseLocked(res, e)
	return nil
}

// ReleaseByOrder releases every non-RELEASED reservation tied to the order
// and reports how many were credited back. Used by order cancellation.
func (l *Ledger) ReleaseByOrder(orderID string) int {
	type pair struct {
		res *Reservation
		e   *entry
	}
	l.mu.RLock()
	var pairs []pair
	for _, res := range l.tokens {
		if res.OrderID == orderID {
			if e, ok := l.products[res.ProductID]; ok {
				pairs = append(pairs, pair{res, e})
			}
		}
	}
	l.mu.RUnlock()

	n := 0
	for _, pr := range pairs {
		pr.e.mu.Lock()
		if l.releaseLocked(pr.res, pr.e) {
			n++
		}
		pr.e.mu.Unlock()
	}
	return n
}

// Adjust applies an administrative stock delta through the same per-product
// critical section as checkout reservation. It fails rather than letting
// the counter go negative.
func (l *Ledger) Adjust(productID int64, delta int) (Product, error) {
	e, ok := l.entry(productID)
	if !ok {
		return Product{}, ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.p.Available+delta < 0 {
		return Product{}, &InsufficientStockError{ProductID: productID, Requested: -delta, Available: e.p.Available}
	}
	e.p.Available += delta
	return e.p, nil
}

// ReservationsByOrder returns copies of the order's reservations.
func (l *Ledger) ReservationsByOrder(orderID string) []Reservation {
	l.mu.RLock()
	var pairs []*Reservation
	for _, res := range l.tokens {
		if res.OrderID == orderID {
			pairs = append(pairs, res)
		}
	}
	l.mu.RUnlock()

	out := make([]Reservation, 0, len(pairs))
	for _, res := range pairs {
		e, ok := l.entry(res.ProductID)
		if !ok {
			continue
		}
		e.mu.Lock()
		out = append(out, *res)
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// SweepOrphans releases HELD reservations older than grace whose order was
// never created, the recovery path for a checkout that died between reserve
// and order persistence. Returns the reservations it released.
func (l *Ledger) SweepOrphans(grace time.Duration, orderExists func(orderID string) bool) []Reservation {
	cutoff := time.Now().UTC().Add(-grace)

	l.mu.RLock()
	var candidates []*Reservation
	for _, res := range l.tokens {
		candidates = append(candidates, res)
	}
	l.mu.RUnlock()

	var released []Reservation
	for _, res := range candidates {
		e, ok := l.entry(res.ProductID)
		if !ok {
			continue
		}
		e.mu.Lock()
		stale := res.State == ReservationHeld && res.CreatedAt.Before(cutoff)
		e.mu.Unlock()
		if !stale || orderExists(res.OrderID) {
			continue
		}
		e.mu.Lock()
		// Re-check under the lock; checkout may have committed meanwhile.
		if res.State == ReservationHeld && res.CreatedAt.Before(cutoff) {
			l.releaseLocked(res, e)
			released = append(released, *res)
		}
		e.mu.Unlock()
	}
	return released
}

// releaseLocked credits stock back unless the token was already released.
// Caller holds e.mu. Reports whether a credit happened.
func (l *Ledger) releaseLocked(res *Reservation, e *entry) bool {
	if res.State == ReservationReleased {
		return false
	}
	e.p.Available += res.Qty
	res.State = ReservationReleased
	return true
}

func (l *Ledger) entry(productID int64) (*entry, bool) {
	l.mu.RLock()
	e, ok := l.products[productID]
	l.mu.RUnlock()
	return e, ok
}

func (l *Ledger) lookup(token string) (*Reservation, *entry, error) {
	l.mu.RLock()
	res, ok := l.tokens[token]
	var e *entry
	if ok {
		e = l.products[res.ProductID]
	}
	l.mu.RUnlock()
	if !ok {
		return nil, nil, ErrReservationNotFound
	}
	if e == nil {
		return nil, nil, ErrProductNotFound
	}
	return res, e, nil
}

func (l *Ledger) filter(keep func(Product) bool) []Product {
	l.mu.RLock()
	entries := make([]*entry, 0, len(l.products))
	for _, e := range l.products {
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	out := make([]Product, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if keep(e.p) {
			out = append(out, e.p)
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
