package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/possale/backend/internal/application/catalog"
	"github.com/possale/backend/internal/interfaces/http/dto"
)

// ProductHandler serves the catalog: scanner lookups for cashiers and
// maintenance for admins
type ProductHandler struct {
	BaseHandler
	products *catalogapp.ProductService
}

func NewProductHandler(products *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	req, ok := bindJSON[dto.CreateProductRequest](c)
	if !ok {
		return
	}
	product, err := h.products.Create(c.Request.Context(), catalogapp.CreateProductRequest{
		Name:     req.Name,
		Barcode:  req.Barcode,
		Price:    req.Price,
		Stock:    req.Stock,
		ImageURL: req.ImageURL,
	})
	h.reply(c, http.StatusCreated, product, err)
}

// GetByID handles GET /products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}
	product, err := h.products.GetByID(c.Request.Context(), id)
	h.reply(c, http.StatusOK, product, err)
}

// GetByBarcode handles GET /products/barcode/:barcode
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	product, err := h.products.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	h.reply(c, http.StatusOK, product, err)
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	query := dto.DefaultProductListQuery()
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	page, err := h.products.List(c.Request.Context(), catalogapp.ProductListFilter{
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}
	req, ok := bindJSON[dto.UpdateProductRequest](c)
	if !ok {
		return
	}
	product, err := h.products.Update(c.Request.Context(), id, catalogapp.UpdateProductRequest{
		Name:     req.Name,
		Barcode:  req.Barcode,
		Price:    req.Price,
		ImageURL: req.ImageURL,
		Version:  req.Version,
	})
	h.reply(c, http.StatusOK, product, err)
}

// Restock handles POST /products/:id/restock
func (h *ProductHandler) Restock(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}
	req, ok := bindJSON[dto.RestockRequest](c)
	if !ok {
		return
	}
	product, err := h.products.Restock(c.Request.Context(), id, req.Quantity)
	h.reply(c, http.StatusOK, product, err)
}

// Delete handles DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}
	err := h.products.Delete(c.Request.Context(), id)
	h.reply(c, http.StatusOK, gin.H{"id": id}, err)
}
