package report

import (
	"context"
	"time"

	"github.com/possale/backend/internal/domain/report"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/possale/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DayClose is the end-of-day summary of one calendar date
type DayClose struct {
	Date     string                  `json:"date"`
	Timezone string                  `json:"timezone"`
	Window   report.Window           `json:"window"`
	Summary  report.SalesSummary     `json:"summary"`
	Cashiers []report.CashierSummary `json:"cashiers"`
}

// CloseDay summarizes the calendar date of day in the report timezone
func (s *SalesReportService) CloseDay(ctx context.Context, day time.Time) (*DayClose, error) {
	window := report.DayWindow(day, s.location)
	date := window.Start.Format(time.DateOnly)
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "close_day",
		telemetry.SpanAttrReportDate, date,
	)
	defer span.End()

	sales, err := s.sales.QueryByWindow(ctx, window.Start, window.End)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to load sales for day close", zap.String("date", date), zap.Error(err))
		return nil, shared.NewStorageUnavailableError(err)
	}

	return &DayClose{
		Date:     date,
		Timezone: s.location.String(),
		Window:   window,
		Summary:  report.Summarize(sales),
		Cashiers: report.SummarizeByCashier(sales),
	}, nil
}
