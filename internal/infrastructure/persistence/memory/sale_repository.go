package memory

import (
	"context"
	"sort"
	"time"

	"github.com/possale/backend/internal/domain/sale"
)

// SaleRepository implements the append-only sale store on a Store
type SaleRepository struct {
	store *Store
}

// NewSaleRepository creates a SaleRepository
func NewSaleRepository(store *Store) *SaleRepository {
	return &SaleRepository{store: store}
}

// Append stores a committed sale
func (r *SaleRepository) Append(_ context.Context, s *sale.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.sales = append(r.store.sales, cloneSale(s))
	return nil
}

// QueryByWindow returns sales created in [start, end), oldest first
func (r *SaleRepository) QueryByWindow(_ context.Context, start, end time.Time) ([]*sale.Sale, error) {
	return r.collect(func(s *sale.Sale) bool {
		return !s.CreatedAt.Before(start) && s.CreatedAt.Before(end)
	}), nil
}

// FindAll returns every sale, oldest first
func (r *SaleRepository) FindAll(_ context.Context) ([]*sale.Sale, error) {
	return r.collect(func(*sale.Sale) bool { return true }), nil
}

func (r *SaleRepository) collect(keep func(*sale.Sale) bool) []*sale.Sale {
	r.store.mu.RLock()
	out := make([]*sale.Sale, 0, len(r.store.sales))
	for _, s := range r.store.sales {
		if keep(s) {
			out = append(out, cloneSale(s))
		}
	}
	r.store.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

var _ sale.Repository = (*SaleRepository)(nil)
