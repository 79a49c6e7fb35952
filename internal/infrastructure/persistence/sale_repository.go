package persistence

import (
	"context"
	"time"

	"github.com/possale/backend/internal/domain/sale"
	"github.com/possale/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleRepository implements the append-only sale store using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Append inserts the sale and its line items in the caller's transaction
func (r *GormSaleRepository) Append(ctx context.Context, s *sale.Sale) error {
	return r.db.WithContext(ctx).Create(models.SaleModelFromDomain(s)).Error
}

// QueryByWindow returns the sales created in [start, end), oldest first
func (r *GormSaleRepository) QueryByWindow(ctx context.Context, start, end time.Time) ([]*sale.Sale, error) {
	return r.find(r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()))
}

// FindAll returns every sale, oldest first
func (r *GormSaleRepository) FindAll(ctx context.Context) ([]*sale.Sale, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *GormSaleRepository) find(query *gorm.DB) ([]*sale.Sale, error) {
	var rows []models.SaleModel
	if err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	sales := make([]*sale.Sale, 0, len(rows))
	for i := range rows {
		sales = append(sales, rows[i].ToDomain())
	}
	return sales, nil
}

var _ sale.Repository = (*GormSaleRepository)(nil)
