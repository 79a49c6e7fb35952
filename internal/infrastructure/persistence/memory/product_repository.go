package memory

import (
	"cmp"
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/shared"
	"golang.org/x/text/cases"
)

// ProductRepository implements catalog.ProductRepository on a Store
type ProductRepository struct {
	store *Store
}

// NewProductRepository creates a ProductRepository
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{store: store}
}

// FindByID finds a product by its ID
func (r *ProductRepository) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.products[id]
	if !ok {
		return nil, shared.NewNotFoundError("product", id.String())
	}
	return cloneProduct(p), nil
}

// FindByIDs returns the products that exist among ids
func (r *ProductRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

// FindByBarcode finds a product by its barcode
func (r *ProductRepository) FindByBarcode(_ context.Context, barcode string) (*catalog.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, shared.NewInvalidRequestError("Barcode cannot be empty")
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.products {
		if p.Barcode == barcode {
			return cloneProduct(p), nil
		}
	}
	return nil, shared.NewNotFoundError("product", barcode)
}

// FindAll returns one page of products matching the filter
func (r *ProductRepository) FindAll(_ context.Context, filter shared.Filter) ([]*catalog.Product, error) {
	r.store.mu.RLock()
	matched := r.search(filter.Search)
	r.store.mu.RUnlock()

	sortProducts(matched, filter.OrderBy, strings.EqualFold(filter.OrderDir, "asc"))

	if filter.PageSize > 0 {
		offset := filter.Offset()
		if offset >= len(matched) {
			return []*catalog.Product{}, nil
		}
		end := min(offset+filter.PageSize, len(matched))
		matched = matched[offset:end]
	}
	return matched, nil
}

// Count counts products matching the filter's search
func (r *ProductRepository) Count(_ context.Context, filter shared.Filter) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.search(filter.Search))), nil
}

// CountOutOfStock counts products whose stock has reached zero
func (r *ProductRepository) CountOutOfStock(_ context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var n int64
	for _, p := range r.store.products {
		if p.Stock <= 0 {
			n++
		}
	}
	return n, nil
}

// Create inserts a new product with its opening stock
func (r *ProductRepository) Create(_ context.Context, product *catalog.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.barcodeTaken(product.Barcode, product.ID) {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Barcode already exists")
	}
	if _, ok := r.store.products[product.ID]; ok {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Product already exists")
	}
	r.store.products[product.ID] = cloneProduct(product)
	return nil
}

// Update writes descriptive fields and price. Stock stays as the ledger left it.
func (r *ProductRepository) Update(_ context.Context, product *catalog.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.products[product.ID]
	if !ok {
		return shared.NewNotFoundError("product", product.ID.String())
	}
	if current.Version != product.Version-1 {
		return shared.NewDomainError(shared.CodeOptimisticLockFailed,
			"Product was modified by another request, please reload and retry")
	}
	if r.barcodeTaken(product.Barcode, product.ID) {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Barcode already exists")
	}

	updated := cloneProduct(product)
	updated.Stock = current.Stock
	r.store.products[product.ID] = updated
	return nil
}

// Delete removes a product
func (r *ProductRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[id]; !ok {
		return shared.NewNotFoundError("product", id.String())
	}
	delete(r.store.products, id)
	return nil
}

// ExistsByBarcode checks if a product with the given barcode exists
func (r *ProductRepository) ExistsByBarcode(_ context.Context, barcode string, excludeID *uuid.UUID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	exclude := uuid.Nil
	if excludeID != nil {
		exclude = *excludeID
	}
	return r.barcodeTaken(strings.TrimSpace(barcode), exclude), nil
}

// barcodeTaken must be called with the store lock held
func (r *ProductRepository) barcodeTaken(barcode string, exclude uuid.UUID) bool {
	for id, p := range r.store.products {
		if id != exclude && p.Barcode == barcode {
			return true
		}
	}
	return false
}

// search must be called with the store lock held. Matching uses Unicode case
// folding, so "MÜSLI" finds "Müsli".
func (r *ProductRepository) search(term string) []*catalog.Product {
	fold := cases.Fold()
	term = fold.String(strings.TrimSpace(term))
	out := make([]*catalog.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		if term == "" ||
			strings.Contains(fold.String(p.Name), term) ||
			strings.Contains(fold.String(p.Barcode), term) {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}

func sortProducts(products []*catalog.Product, field string, asc bool) {
	compare := func(a, b *catalog.Product) int {
		switch field {
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "barcode":
			return strings.Compare(a.Barcode, b.Barcode)
		case "price":
			return a.Price.Cmp(b.Price)
		case "stock":
			return cmp.Compare(a.Stock, b.Stock)
		case "updated_at":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		c := compare(products[i], products[j])
		if c == 0 {
			return strings.Compare(products[i].ID.String(), products[j].ID.String()) < 0
		}
		if asc {
			return c < 0
		}
		return c > 0
	})
}

var _ catalog.ProductRepository = (*ProductRepository)(nil)
