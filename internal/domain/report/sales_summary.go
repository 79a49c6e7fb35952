package report

import (
	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/sale"
	"github.com/shopspring/decimal"
)

// SalesSummary provides aggregated statistics for one window
type SalesSummary struct {
	Count         int64           `json:"count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ItemsSold     int64           `json:"items_sold"`
	AvgSaleAmount decimal.Decimal `json:"avg_sale_amount"`
}

// Summarize aggregates the sales of a window
func Summarize(sales []*sale.Sale) SalesSummary {
	summary := SalesSummary{
		TotalAmount:   decimal.Zero,
		AvgSaleAmount: decimal.Zero,
	}
	for _, s := range sales {
		summary.Count++
		summary.TotalAmount = summary.TotalAmount.Add(s.Total)
		summary.ItemsSold += s.ItemCount()
	}
	if summary.Count > 0 {
		summary.AvgSaleAmount = summary.TotalAmount.Div(decimal.NewFromInt(summary.Count)).Round(2)
	}
	return summary
}

// CashierSummary is the share of one cashier in a window
type CashierSummary struct {
	UserID uuid.UUID `json:"user_id"`
	SalesSummary
}

// SummarizeByCashier aggregates sales per cashier, ordered by first sale
func SummarizeByCashier(sales []*sale.Sale) []CashierSummary {
	order := make([]uuid.UUID, 0)
	grouped := make(map[uuid.UUID][]*sale.Sale)
	for _, s := range sales {
		if _, seen := grouped[s.UserID]; !seen {
			order = append(order, s.UserID)
		}
		grouped[s.UserID] = append(grouped[s.UserID], s)
	}

	out := make([]CashierSummary, 0, len(order))
	for _, id := range order {
		out = append(out, CashierSummary{UserID: id, SalesSummary: Summarize(grouped[id])})
	}
	return out
}
