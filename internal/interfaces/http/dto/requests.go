package dto

import (
	"time"

	"github.com/google/uuid"
	salesapp "github.com/possale/backend/internal/application/sale"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BirthdayLayout is the wire format of cashier birthdays
const BirthdayLayout = "2006-01-02"

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest is the body of POST /auth/refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RegisterAdminRequest is the body of POST /users/admin-register
type RegisterAdminRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=128"`
}

// RegisterCashierRequest is the body of POST /users
type RegisterCashierRequest struct {
	FirstName   string `json:"first_name" binding:"required,max=100"`
	LastName    string `json:"last_name" binding:"required,max=100"`
	Username    string `json:"username" binding:"required,max=100"`
	Birthday    string `json:"birthday" binding:"required,datetime=2006-01-02"`
	PhoneNumber string `json:"phone_number" binding:"required,max=50"`
	Password    string `json:"password" binding:"required,max=128"`
}

// BirthdayTime parses the birthday; binding has already checked the layout
func (r RegisterCashierRequest) BirthdayTime() (time.Time, error) {
	return time.Parse(BirthdayLayout, r.Birthday)
}

// UpdateCashierRequest is the body of PUT /users/:id. Omitted fields are kept.
type UpdateCashierRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,max=100"`
	LastName    *string `json:"last_name" binding:"omitempty,max=100"`
	Username    *string `json:"username" binding:"omitempty,max=100"`
	Birthday    *string `json:"birthday" binding:"omitempty,datetime=2006-01-02"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=50"`
	Password    *string `json:"password" binding:"omitempty,max=128"`
	IsActive    *bool   `json:"is_active"`
}

// CreateProductRequest is the body of POST /products
type CreateProductRequest struct {
	Name     string          `json:"name" binding:"required,max=200"`
	Barcode  string          `json:"barcode" binding:"required,barcode"`
	Price    decimal.Decimal `json:"price"`
	Stock    int64           `json:"stock" binding:"gte=0"`
	ImageURL string          `json:"image_url" binding:"omitempty,url,max=500"`
}

// UpdateProductRequest is the body of PUT /products/:id. Stock is not editable here.
type UpdateProductRequest struct {
	Name     *string          `json:"name" binding:"omitempty,max=200"`
	Barcode  *string          `json:"barcode" binding:"omitempty,barcode"`
	Price    *decimal.Decimal `json:"price"`
	ImageURL *string          `json:"image_url" binding:"omitempty,max=500"`
	Version  *int             `json:"version" binding:"omitempty,min=1"`
}

// RestockRequest is the body of POST /products/:id/restock
type RestockRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// SaleLineRequest is one cart line
type SaleLineRequest struct {
	ProductID string `json:"productId" binding:"required,uuid"`
	Quantity  int64  `json:"quantity" binding:"gt=0"`
}

// CreateSaleRequest is the body of POST /sales
type CreateSaleRequest struct {
	Products []SaleLineRequest `json:"products" binding:"required,min=1,dive"`
}

// ToInput converts the cart to the sale processor input. Duplicate lines are
// passed through so the processor rejects them.
func (r CreateSaleRequest) ToInput() salesapp.CreateSaleInput {
	lines := make([]salesapp.CreateSaleLineInput, len(r.Products))
	for i, p := range r.Products {
		lines[i] = salesapp.CreateSaleLineInput{
			ProductID: uuid.MustParse(p.ProductID),
			Quantity:  p.Quantity,
		}
	}
	return salesapp.CreateSaleInput{Products: lines}
}

// ProductListQuery is the query string of GET /products
type ProductListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name barcode price stock created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search" binding:"max=100"`
}

// DefaultProductListQuery lists the newest products first
func DefaultProductListQuery() ProductListQuery {
	return ProductListQuery{Page: 1, PageSize: shared.DefaultPageSize, OrderBy: "created_at", OrderDir: "desc"}
}

// IDPath binds the :id segment
type IDPath struct {
	ID string `uri:"id" binding:"required,uuid"`
}
