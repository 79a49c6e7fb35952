package catalog

import (
	"strings"
	"time"

	"github.com/possale/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a sellable item in the store catalog.
// Stock is owned by the inventory ledger: catalog operations set it once at
// creation and never write it afterwards.
type Product struct {
	shared.BaseAggregateRoot
	Name     string
	Barcode  string
	Price    decimal.Decimal
	Stock    int64
	ImageURL string
}

// NewProduct creates a new product with its opening stock
func NewProduct(name, barcode string, price decimal.Decimal, stock int64) (*Product, error) {
	name = strings.TrimSpace(name)
	barcode = strings.TrimSpace(barcode)

	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateBarcode(barcode); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, shared.NewInvalidRequestError("Stock cannot be negative")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Barcode:           barcode,
		Price:             price.Round(4),
		Stock:             stock,
	}

	product.Raise(NewProductCreatedEvent(product))

	return product, nil
}

// Update replaces the product's descriptive fields and price
func (p *Product) Update(name, barcode string, price decimal.Decimal) error {
	name = strings.TrimSpace(name)
	barcode = strings.TrimSpace(barcode)

	if err := validateProductName(name); err != nil {
		return err
	}
	if err := validateBarcode(barcode); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}

	oldPrice := p.Price
	p.Name = name
	p.Barcode = barcode
	p.Price = price.Round(4)
	p.Touch()

	p.Raise(NewProductUpdatedEvent(p))
	if !oldPrice.Equal(p.Price) {
		p.Raise(NewProductPriceChangedEvent(p, oldPrice))
	}

	return nil
}

// SetImageURL sets the product image reference
func (p *Product) SetImageURL(url string) error {
	url = strings.TrimSpace(url)
	if len(url) > 500 {
		return shared.NewInvalidRequestError("Image URL cannot exceed 500 characters")
	}
	p.ImageURL = url
	p.UpdatedAt = time.Now()
	return nil
}

// MarkDeleted records the deletion event before the repository removes the row
func (p *Product) MarkDeleted() {
	p.Raise(NewProductDeletedEvent(p))
}

// LineTotal returns price × quantity
func (p *Product) LineTotal(quantity int64) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(quantity))
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewInvalidRequestError("Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewInvalidRequestError("Product name cannot exceed 200 characters")
	}
	return nil
}

func validateBarcode(barcode string) error {
	if barcode == "" {
		return shared.NewInvalidRequestError("Barcode cannot be empty")
	}
	if len(barcode) > 50 {
		return shared.NewInvalidRequestError("Barcode cannot exceed 50 characters")
	}
	for _, r := range barcode {
		if !((r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '-') {
			return shared.NewInvalidRequestError("Barcode can only contain letters, digits and hyphens")
		}
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewInvalidRequestError("Price cannot be negative")
	}
	return nil
}
