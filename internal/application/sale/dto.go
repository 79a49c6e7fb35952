package sale

import (
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/sale"
	"github.com/shopspring/decimal"
)

// CreateSaleLineInput is one cart line as submitted by a cashier
type CreateSaleLineInput struct {
	ProductID uuid.UUID
	Quantity  int64
}

// CreateSaleInput is the cart submitted for checkout
type CreateSaleInput struct {
	Products []CreateSaleLineInput
}

// ToRequest converts the input to a domain sale request
func (in CreateSaleInput) ToRequest() sale.Request {
	lines := make([]sale.RequestLine, len(in.Products))
	for i, p := range in.Products {
		lines[i] = sale.RequestLine{ProductID: p.ProductID, Quantity: p.Quantity}
	}
	return sale.Request{Lines: lines}
}

// UserSummary is the cashier resolved onto a sale
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
}

// ProductSummary is the current catalog entry resolved onto a sale line.
// It is nil when the product has since been deleted.
type ProductSummary struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Barcode string          `json:"barcode"`
	Price   decimal.Decimal `json:"price"`
}

// SaleItemResponse is one line of a sale
type SaleItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Product     *ProductSummary `json:"product,omitempty"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// SaleResponse is the API view of a sale
type SaleResponse struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	User      *UserSummary       `json:"user,omitempty"`
	Products  []SaleItemResponse `json:"products"`
	Total     decimal.Decimal    `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
}

// ToSaleResponse converts a sale without resolving references
func ToSaleResponse(s *sale.Sale) SaleResponse {
	return toSaleResponse(s, nil, nil)
}

func toSaleResponse(s *sale.Sale, users map[uuid.UUID]*identity.User, products map[uuid.UUID]*catalog.Product) SaleResponse {
	resp := SaleResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		Products:  make([]SaleItemResponse, len(s.Items)),
		Total:     s.Total,
		CreatedAt: s.CreatedAt,
	}
	if u, ok := users[s.UserID]; ok {
		resp.User = &UserSummary{
			ID:        u.ID,
			Username:  u.Username,
			Role:      string(u.Role),
			FirstName: u.FirstName,
			LastName:  u.LastName,
		}
	}
	for i, item := range s.Items {
		line := SaleItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		}
		if p, ok := products[item.ProductID]; ok {
			line.Product = &ProductSummary{ID: p.ID, Name: p.Name, Barcode: p.Barcode, Price: p.Price}
		}
		resp.Products[i] = line
	}
	return resp
}
