// Package memory keeps products, users and sales in process memory. It backs
// the "memory" database driver used for demos and tests; nothing survives a
// restart.
package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/sale"
)

// Store is the shared state behind the memory repositories and ledger.
// Every read returns a copy, so callers never alias stored aggregates.
type Store struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*catalog.Product
	users    map[uuid.UUID]*identity.User
	sales    []*sale.Sale
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		products: make(map[uuid.UUID]*catalog.Product),
		users:    make(map[uuid.UUID]*identity.User),
	}
}

func cloneProduct(p *catalog.Product) *catalog.Product {
	cp := *p
	cp.DiscardEvents()
	return &cp
}

func cloneUser(u *identity.User) *identity.User {
	cp := *u
	cp.DiscardEvents()
	if u.Birthday != nil {
		b := *u.Birthday
		cp.Birthday = &b
	}
	if u.LastLoginAt != nil {
		l := *u.LastLoginAt
		cp.LastLoginAt = &l
	}
	return &cp
}

func cloneSale(s *sale.Sale) *sale.Sale {
	cp := *s
	cp.DiscardEvents()
	cp.Items = append([]sale.LineItem(nil), s.Items...)
	return &cp
}
