package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name     string
	Barcode  string
	Price    decimal.Decimal
	Stock    int64
	ImageURL string
}

// UpdateProductRequest represents a request to update a product.
// Nil fields keep their current value. Stock is changed only by restocking.
type UpdateProductRequest struct {
	Name     *string
	Barcode  *string
	Price    *decimal.Decimal
	ImageURL *string
	// Version enables optimistic locking when set
	Version *int
}

// ProductListFilter narrows a product listing
type ProductListFilter struct {
	Search   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	Price     decimal.Decimal `json:"price"`
	Stock     int64           `json:"stock"`
	ImageURL  string          `json:"image_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Version   int             `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Barcode:   p.Barcode,
		Price:     p.Price,
		Stock:     p.Stock,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Version:   p.Version,
	}
}
