// Package cart keeps the shopper's cart in memory. Lines snapshot the product
// name and price when first added so later catalog changes do not rewrite it.
package cart

import (
	"sync"

	"github.com/angelmondragon/storefront-client/pkg/types"
	"github.com/shopspring/decimal"
)

// Line is one product in the cart.
type Line struct {
	ProductID types.ID        `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is quantity times the snapshotted unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderLine converts the cart line into its checkout shape.
func (l Line) OrderLine() types.OrderLine {
	return types.OrderLine{
		ProductID: l.ProductID,
		Name:      l.Name,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
	}
}

// Listener receives the lines after every mutation.
type Listener func(lines []Line)

// Store holds at most one line per product, in insertion order, each with a
// quantity of at least one.
type Store struct {
	mu        sync.RWMutex
	lines     []Line
	listeners map[int]Listener
	nextID    int
}

func New() *Store {
	return &Store{listeners: map[int]Listener{}}
}

// AddItem merges quantity into the product's line, or appends a new line.
// Quantities below one count as one.
func (s *Store) AddItem(product types.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	s.mutate(func() bool {
		if i := s.indexLocked(product.ID); i >= 0 {
			s.lines[i].Quantity += quantity
			return true
		}
		s.lines = append(s.lines, Line{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Image:     product.Image,
			Quantity:  quantity,
		})
		return true
	})
}

// RemoveItem drops the product's line if present.
func (s *Store) RemoveItem(productID types.ID) {
	s.mutate(func() bool {
		i := s.indexLocked(productID)
		if i < 0 {
			return false
		}
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		return true
	})
}

// SetQuantity replaces the line's quantity. Zero or less removes the line;
// unknown products are ignored.
func (s *Store) SetQuantity(productID types.ID, quantity int) {
	s.mutate(func() bool {
		i := s.indexLocked(productID)
		if i < 0 {
			return false
		}
		if quantity <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return true
		}
		if s.lines[i].Quantity == quantity {
			return false
		}
		s.lines[i].Quantity = quantity
		return true
	})
}

func (s *Store) Clear() {
	s.mutate(func() bool {
		if len(s.lines) == 0 {
			return false
		}
		s.lines = nil
		return true
	})
}

// Deduct removes the units in lines from the cart. A line drops once its
// quantity reaches zero; units added after lines were read stay in the cart.
func (s *Store) Deduct(lines []Line) {
	s.mutate(func() bool {
		changed := false
		for _, line := range lines {
			i := s.indexLocked(line.ProductID)
			if i < 0 || line.Quantity <= 0 {
				continue
			}
			changed = true
			if s.lines[i].Quantity <= line.Quantity {
				s.lines = append(s.lines[:i], s.lines[i+1:]...)
				continue
			}
			s.lines[i].Quantity -= line.Quantity
		}
		return changed
	})
}

// Total is computed from the lines on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TotalOf(s.lines)
}

// TotalOf sums the subtotals of lines.
func TotalOf(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines) == 0
}

// Snapshot returns the lines for durable storage.
func (s *Store) Snapshot() []Line {
	return s.Lines()
}

// Restore replaces the cart with lines. Lines without a product id or with a
// quantity below one are dropped and duplicates merge into the first line.
func (s *Store) Restore(lines []Line) {
	s.mutate(func() bool {
		s.lines = nil
		for _, line := range lines {
			if line.ProductID.IsZero() || line.Quantity < 1 {
				continue
			}
			if i := s.indexLocked(line.ProductID); i >= 0 {
				s.lines[i].Quantity += line.Quantity
				continue
			}
			s.lines = append(s.lines, line)
		}
		return true
	})
}

// Subscribe registers fn for cart changes and returns the unsubscribe func.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	if !changed {
		s.mu.Unlock()
		return
	}
	lines := s.copyLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(lines)
	}
}

func (s *Store) indexLocked(productID types.ID) int {
	for i, line := range s.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) copyLocked() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}
