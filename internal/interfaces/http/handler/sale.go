package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	salesapp "github.com/possale/backend/internal/application/sale"
	"github.com/possale/backend/internal/interfaces/http/dto"
)

// SaleHandler takes checkouts from the till and lists the sale history
type SaleHandler struct {
	BaseHandler
	processor *salesapp.Processor
	query     *salesapp.QueryService
}

func NewSaleHandler(processor *salesapp.Processor, query *salesapp.QueryService) *SaleHandler {
	return &SaleHandler{processor: processor, query: query}
}

// Create handles POST /sales. A committed sale answers 201; a rejected cart
// answers with the status of its reason and nothing is recorded.
func (h *SaleHandler) Create(c *gin.Context) {
	cashierID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	req, ok := bindJSON[dto.CreateSaleRequest](c)
	if !ok {
		return
	}

	result, err := h.processor.Process(c.Request.Context(), cashierID, req.ToInput().ToRequest())
	switch {
	case err != nil:
		h.HandleError(c, err)
	case !result.IsCommitted():
		h.DomainError(c, result.Reason)
	default:
		h.reply(c, http.StatusCreated, salesapp.ToSaleResponse(result.Sale), nil)
	}
}

// List handles GET /sales with cashier and product names resolved
func (h *SaleHandler) List(c *gin.Context) {
	sales, err := h.query.ListSales(c.Request.Context())
	if sales == nil {
		sales = []salesapp.SaleResponse{}
	}
	h.reply(c, http.StatusOK, sales, err)
}
