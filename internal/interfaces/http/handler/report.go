package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reportapp "github.com/possale/backend/internal/application/report"
)

// ReportHandler serves the daily, weekly and monthly sales summaries
type ReportHandler struct {
	BaseHandler
	reports *reportapp.SalesReportService
}

func NewReportHandler(reports *reportapp.SalesReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// GetSalesReports handles GET /sales/reports
func (h *ReportHandler) GetSalesReports(c *gin.Context) {
	report, err := h.reports.GetReports(c.Request.Context())
	h.reply(c, http.StatusOK, report, err)
}
