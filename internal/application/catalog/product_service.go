// Package catalog implements product management for admins and product
// lookup for cashiers.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/inventory"
	"github.com/possale/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var productSortFields = map[string]bool{
	"name":       true,
	"barcode":    true,
	"price":      true,
	"stock":      true,
	"created_at": true,
	"updated_at": true,
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	ledger         inventory.Ledger
	overlayStock   bool
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService. Restocking always goes
// through ledger.
func NewProductService(productRepo catalog.ProductRepository, ledger inventory.Ledger, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		ledger:      ledger,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for product events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetStockOverlay makes reads report the ledger's stock instead of the stored
// column. Needed when the ledger keeps stock outside the products table.
func (s *ProductService) SetStockOverlay(enabled bool) {
	s.overlayStock = enabled
}

// Create creates a new product with its opening stock
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Name, req.Barcode, req.Price, req.Stock)
	if err != nil {
		return nil, err
	}
	if req.ImageURL != "" {
		if err := product.SetImageURL(req.ImageURL); err != nil {
			return nil, err
		}
	}

	exists, err := s.productRepo.ExistsByBarcode(ctx, product.Barcode, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Product with this barcode already exists")
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("barcode", product.Barcode),
		zap.Int64("stock", product.Stock),
	)
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, product)
}

// GetByBarcode retrieves a product by barcode, as scanned at the till
func (s *ProductService) GetByBarcode(ctx context.Context, barcode string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, product)
}

// List retrieves a page of products
func (s *ProductService) List(ctx context.Context, f ProductListFilter) (shared.Paginated[ProductResponse], error) {
	filter := shared.DefaultFilter().WithPage(f.Page, f.PageSize)
	filter.Search = f.Search
	if productSortFields[f.OrderBy] {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir == "asc" || f.OrderDir == "desc" {
		filter.OrderDir = f.OrderDir
	}

	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}

	items := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp, err := s.respond(ctx, p)
		if err != nil {
			return shared.Paginated[ProductResponse]{}, err
		}
		items = append(items, *resp)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update changes a product's descriptive fields and price
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != product.Version {
		return nil, shared.ErrOptimisticLockFailed
	}

	name, barcode, price := product.Name, product.Barcode, product.Price
	if req.Name != nil {
		name = *req.Name
	}
	if req.Barcode != nil {
		barcode = *req.Barcode
	}
	if req.Price != nil {
		price = *req.Price
	}

	if barcode != product.Barcode {
		exists, err := s.productRepo.ExistsByBarcode(ctx, barcode, &id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Product with this barcode already exists")
		}
	}

	if err := product.Update(name, barcode, price); err != nil {
		return nil, err
	}
	if req.ImageURL != nil {
		if err := product.SetImageURL(*req.ImageURL); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)
	return s.respond(ctx, product)
}

// Restock adds quantity units to a product's stock
func (s *ProductService) Restock(ctx context.Context, id uuid.UUID, quantity int64) (*ProductResponse, error) {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Restock(ctx, id, quantity); err != nil {
		return nil, err
	}

	stock, err := s.ledger.GetStock(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Stock = stock

	s.logger.Info("Product restocked",
		zap.String("product_id", id.String()),
		zap.Int64("quantity", quantity),
		zap.Int64("stock", stock),
	)
	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete removes a product. Past sales keep their captured name and price.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	product.MarkDeleted()
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, product)
	return nil
}

func (s *ProductService) respond(ctx context.Context, product *catalog.Product) (*ProductResponse, error) {
	if s.overlayStock {
		stock, err := s.ledger.GetStock(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		product.Stock = stock
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.PullEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
	}
}
