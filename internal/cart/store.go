// Package cart holds the in-memory cart of one client session.
package cart

import (
	"errors"
	"strings"
	"sync"

	"foodorder/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPrice    = errors.New("unit price must not be negative")
	ErrMissingProduct  = errors.New("product id is required")
)

// Store is an ordered collection of line items, at most one per product.
// It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	items []domain.LineItem
	key   string

	newKey func() string
}

func New() *Store {
	return &Store{newKey: uuid.NewString}
}

// Snapshot is a consistent read of the cart used by checkout.
type Snapshot struct {
	Items       []domain.LineItem
	Total       decimal.Decimal
	CheckoutKey string
}

// Add merges quantity into the existing line for the product, or appends a new line.
// The existing line keeps its original name and price.
func (s *Store) Add(item domain.LineItem) error {
	item.ProductID = strings.TrimSpace(item.ProductID)
	if item.ProductID == "" {
		return ErrMissingProduct
	}
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if item.UnitPrice.IsNegative() {
		return ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(item.ProductID); i >= 0 {
		s.items[i].Quantity += item.Quantity
	} else {
		s.items = append(s.items, item)
	}
	s.touch()
	return nil
}

// UpdateQuantity sets the quantity of an existing line. Zero or negative
// quantities are rejected; use Remove or Decrement instead.
func (s *Store) UpdateQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.items[i].Quantity = quantity
	s.touch()
	return nil
}

func (s *Store) Increment(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.items[i].Quantity++
	s.touch()
	return nil
}

// Decrement lowers the quantity by one, removing the line when it is at 1.
// It reports whether the line was removed.
func (s *Store) Decrement(productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return false, domain.ErrNotFound
	}
	if s.items[i].Quantity > 1 {
		s.items[i].Quantity--
		s.touch()
		return false, nil
	}
	s.removeAt(i)
	s.touch()
	return true, nil
}

// Remove drops the line for the product. Removing an absent product is a no-op.
func (s *Store) Remove(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return false
	}
	s.removeAt(i)
	s.touch()
	return true
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.touch()
}

// ClearIfKey empties the cart only when its contents still match the key of
// an earlier Snapshot. It reports whether the cart was cleared.
func (s *Store) ClearIfKey(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == "" || s.currentKey() != key {
		return false
	}
	s.items = nil
	s.touch()
	return true
}

// Subtract removes the given quantities from matching lines and drops lines
// that reach zero. Lines added since the items were read are kept.
func (s *Store) Subtract(items []domain.LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, li := range items {
		i := s.indexOf(li.ProductID)
		if i < 0 {
			continue
		}
		if s.items[i].Quantity > li.Quantity {
			s.items[i].Quantity -= li.Quantity
			continue
		}
		s.removeAt(i)
	}
	s.touch()
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

// Total is recomputed from the lines on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SumLineItems(s.items)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Quantity returns the total number of units across all lines.
func (s *Store) Quantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, li := range s.items {
		n += li.Quantity
	}
	return n
}

// CheckoutKey identifies the current cart contents. Any mutation mints a new key.
func (s *Store) CheckoutKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentKey()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Items:       s.copyItems(),
		Total:       domain.SumLineItems(s.items),
		CheckoutKey: s.currentKey(),
	}
}

func (s *Store) currentKey() string {
	if s.key == "" {
		s.key = s.newKey()
	}
	return s.key
}

func (s *Store) touch() {
	s.key = ""
}

func (s *Store) indexOf(productID string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.items = append(s.items[:i], s.items[i+1:]...)
}

func (s *Store) copyItems() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}
