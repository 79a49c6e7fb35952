package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/possale/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("product", id.String())
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple products by their IDs. Unknown IDs are skipped.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	if len(ids) == 0 {
		return []*catalog.Product{}, nil
	}

	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainProducts(rows), nil
}

// FindByBarcode finds a product by its barcode
func (r *GormProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, shared.NewInvalidRequestError("Barcode cannot be empty")
	}
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("product", barcode)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*catalog.Product, error) {
	var rows []models.ProductModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainProducts(rows), nil
}

// Count counts products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter.Search)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountOutOfStock counts products whose stock has reached zero
func (r *GormProductRepository) CountOutOfStock(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("stock <= 0").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new product with its opening stock
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Barcode already exists")
		}
		return err
	}
	return nil
}

// Update writes name, barcode, price and image. The row must still carry the
// version the product was loaded with; product.Version is the new version.
func (r *GormProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Updates(map[string]any{
			"name":       product.Name,
			"barcode":    product.Barcode,
			"price":      product.Price,
			"image_url":  product.ImageURL,
			"version":    product.Version,
			"updated_at": product.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Barcode already exists")
		}
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var exists int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", product.ID).
		Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return shared.NewNotFoundError("product", product.ID.String())
	}
	return shared.NewDomainError(shared.CodeOptimisticLockFailed,
		"Product was modified by another request, please reload and retry")
}

// Delete removes a product. Sales that reference it keep their captured
// name and price.
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("product", id.String())
	}
	return nil
}

// ExistsByBarcode checks if a product with the given barcode exists
func (r *GormProductRepository) ExistsByBarcode(ctx context.Context, barcode string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("barcode = ?", strings.TrimSpace(barcode))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies search, ordering and pagination
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applySearch(query, filter.Search)

	query = productSort.apply(query, filter.OrderBy, filter.OrderDir)

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}
	return query
}

func (r *GormProductRepository) applySearch(query *gorm.DB, search string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" {
		return query
	}
	pattern := "%" + strings.ToLower(search) + "%"
	return query.Where("LOWER(name) LIKE ? OR LOWER(barcode) LIKE ?", pattern, pattern)
}

func toDomainProducts(rows []models.ProductModel) []*catalog.Product {
	products := make([]*catalog.Product, 0, len(rows))
	for i := range rows {
		products = append(products, rows[i].ToDomain())
	}
	return products
}

// isUniqueViolation matches unique constraint errors from postgres and sqlite.
// TranslateError is not enabled on the connection, so the driver text is checked.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
