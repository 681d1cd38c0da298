// Package basket keeps per-user pre-checkout carts. No stock validation
// happens here; catalog stock can change between a basket edit and
// checkout, so validation is deferred to the checkout path.
package basket

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrLineNotFound    = errors.New("basket line not found")
)

type Line struct {
	UserID    string
	ProductID int64
	Qty       int
}

type Store struct {
	mu         sync.RWMutex
	maxPerLine int
	byUser     map[string]map[int64]int
}

func NewStore(maxPerLine int) *Store {
	if maxPerLine <= 0 {
		maxPerLine = 99
	}
	return &Store{
		maxPerLine: maxPerLine,
		byUser:     make(map[string]map[int64]int),
	}
}

// Add merges with an existing line for the product, clamping the summed
// quantity at the per-line maximum.
func (s *Store) Add(userID string, productID int64, qty int) (Line, error) {
	if qty <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, ok := s.byUser[userID]
	if !ok {
		lines = make(map[int64]int)
		s.byUser[userID] = lines
	}
	total := lines[productID] + qty
	if total > s.maxPerLine {
		total = s.maxPerLine
	}
	lines[productID] = total
	return Line{UserID: userID, ProductID: productID, Qty: total}, nil
}

// Update sets the absolute quantity; zero removes the line.
func (s *Store) Update(userID string, productID int64, qty int) (Line, error) {
	if qty < 0 {
		return Line{}, ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.byUser[userID]
	if _, ok := lines[productID]; !ok {
		return Line{}, ErrLineNotFound
	}
	if qty == 0 {
		delete(lines, productID)
		return Line{UserID: userID, ProductID: productID, Qty: 0}, nil
	}
	if qty > s.maxPerLine {
		qty = s.maxPerLine
	}
	lines[productID] = qty
	return Line{UserID: userID, ProductID: productID, Qty: qty}, nil
}

func (s *Store) Remove(userID string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.byUser[userID]
	if _, ok := lines[productID]; !ok {
		return ErrLineNotFound
	}
	delete(lines, productID)
	return nil
}

// Snapshot returns a copy of the user's lines sorted ascending by product
// id, the acquisition order checkout reserves in. Later basket edits do not
// leak into a snapshot taken for checkout.
func (s *Store) Snapshot(userID string) []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.byUser[userID]
	out := make([]Line, 0, len(lines))
	for pid, qty := range lines {
		out = append(out, Line{UserID: userID, ProductID: pid, Qty: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}
