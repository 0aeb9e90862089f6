// Package customer remembers which phone numbers have ordered before.
package customer

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"orderbot/pkg/order"
	"orderbot/pkg/phone"
)

type Customer struct {
	Phone       string
	Name        string
	Orders      int
	LastOrderAt time.Time
}

// Store is an in-memory customer registry keyed by normalized phone number.
type Store struct {
	mu        sync.RWMutex
	customers map[string]Customer
}

func NewStore() *Store {
	return &Store{customers: make(map[string]Customer)}
}

// FindByPhone reports whether the number has at least one recorded order.
func (s *Store) FindByPhone(ctx context.Context, number string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := phone.Normalize(number)
	if key == "" {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[key]
	return ok && customer.Orders > 0, nil
}

// Remember records one order against its phone number.
func (s *Store) Remember(extracted *order.ExtractedOrder) {
	if extracted == nil {
		return
	}
	key := phone.Normalize(extracted.PhoneNumber)
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customer := s.customers[key]
	customer.Phone = key
	if name := strings.TrimSpace(extracted.CustomerName); name != "" {
		customer.Name = name
	}
	customer.Orders++
	if extracted.OrderDate.After(customer.LastOrderAt) {
		customer.LastOrderAt = extracted.OrderDate
	}
	s.customers[key] = customer
}

func (s *Store) Get(number string) (Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[phone.Normalize(number)]
	return customer, ok
}

// List returns customers ordered by phone number.
func (s *Store) List() []Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.customers) == 0 {
		return nil
	}

	out := make([]Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		out = append(out, customer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })

	return out
}
