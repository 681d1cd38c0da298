// Package wishlist keeps per-user favorite products. Entries carry no
// coupling to inventory or checkout.
package wishlist

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrAlreadyInWishlist = errors.New("product already in wishlist")
	ErrNotInWishlist     = errors.New("product not in wishlist")
)

type Entry struct {
	UserID    string    `json:"user_id"`
	ProductID int64     `json:"product_id"`
	AddedAt   time.Time `json:"added_at"`
}

type Store struct {
	mu     sync.RWMutex
	byUser map[string]map[int64]time.Time
}

func NewStore() *Store {
	return &Store{byUser: make(map[string]map[int64]time.Time)}
}

func (s *Store) Add(userID string, productID int64) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.byUser[userID]
	if !ok {
		entries = make(map[int64]time.Time)
		s.byUser[userID] = entries
	}
	if _, ok := entries[productID]; ok {
		return Entry{}, ErrAlreadyInWishlist
	}
	now := time.Now().UTC()
	entries[productID] = now
	return Entry{UserID: userID, ProductID: productID, AddedAt: now}, nil
}

func (s *Store) Remove(userID string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.byUser[userID]
	if _, ok := entries[productID]; !ok {
		return ErrNotInWishlist
	}
	delete(entries, productID)
	return nil
}

func (s *Store) ListByUser(userID string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.byUser[userID]
	out := make([]Entry, 0, len(entries))
	for pid, at := range entries {
		out = append(out, Entry{UserID: userID, ProductID: pid, AddedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
