package sale

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/sale"
	"github.com/possale/backend/internal/domain/shared"
)

// QueryService serves the admin read side of the sale store, resolving the
// cashier and the catalog entry of every line.
type QueryService struct {
	sales    sale.Repository
	products catalog.ProductReader
	users    identity.UserRepository
}

// NewQueryService creates a QueryService
func NewQueryService(sales sale.Repository, products catalog.ProductReader, users identity.UserRepository) *QueryService {
	return &QueryService{sales: sales, products: products, users: users}
}

// ListSales returns every sale, oldest first
func (s *QueryService) ListSales(ctx context.Context) ([]SaleResponse, error) {
	sales, err := s.sales.FindAll(ctx)
	if err != nil {
		return nil, shared.NewStorageUnavailableError(err)
	}
	return s.Resolve(ctx, sales)
}

// ListSalesInWindow returns the sales created in [start, end), oldest first
func (s *QueryService) ListSalesInWindow(ctx context.Context, start, end time.Time) ([]SaleResponse, error) {
	sales, err := s.sales.QueryByWindow(ctx, start, end)
	if err != nil {
		return nil, shared.NewStorageUnavailableError(err)
	}
	return s.Resolve(ctx, sales)
}

// Resolve converts sales to responses with users and products attached.
// References that no longer exist are left empty.
func (s *QueryService) Resolve(ctx context.Context, sales []*sale.Sale) ([]SaleResponse, error) {
	if len(sales) == 0 {
		return []SaleResponse{}, nil
	}

	userIDs := make([]uuid.UUID, 0, len(sales))
	productIDs := make([]uuid.UUID, 0, len(sales))
	seenUsers := map[uuid.UUID]struct{}{}
	seenProducts := map[uuid.UUID]struct{}{}
	for _, sl := range sales {
		if _, ok := seenUsers[sl.UserID]; !ok {
			seenUsers[sl.UserID] = struct{}{}
			userIDs = append(userIDs, sl.UserID)
		}
		for _, id := range sl.ProductIDs() {
			if _, ok := seenProducts[id]; !ok {
				seenProducts[id] = struct{}{}
				productIDs = append(productIDs, id)
			}
		}
	}

	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, shared.NewStorageUnavailableError(err)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, shared.NewStorageUnavailableError(err)
	}

	userMap := make(map[uuid.UUID]*identity.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}
	productMap := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	out := make([]SaleResponse, len(sales))
	for i, sl := range sales {
		out[i] = toSaleResponse(sl, userMap, productMap)
	}
	return out, nil
}
