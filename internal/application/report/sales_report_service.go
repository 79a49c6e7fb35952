// Package report builds the admin sales reports.
package report

import (
	"context"
	"time"

	salesapp "github.com/possale/backend/internal/application/sale"
	"github.com/possale/backend/internal/domain/report"
	"github.com/possale/backend/internal/domain/sale"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/possale/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Bucket is one report period: the window, its sales oldest first and totals
type Bucket struct {
	Window  report.Window           `json:"window"`
	Summary report.SalesSummary     `json:"summary"`
	Sales   []salesapp.SaleResponse `json:"sales"`
}

// SalesReport is the response of GET /sales/reports
type SalesReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	Timezone    string    `json:"timezone"`
	Daily       Bucket    `json:"daily"`
	Weekly      Bucket    `json:"weekly"`
	Monthly     Bucket    `json:"monthly"`
}

// SalesReportService partitions recent sales into daily, weekly and monthly buckets
type SalesReportService struct {
	sales    sale.Repository
	resolver *salesapp.QueryService
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewSalesReportService creates a SalesReportService. A nil location means UTC.
func NewSalesReportService(sales sale.Repository, resolver *salesapp.QueryService, location *time.Location, logger *zap.Logger) *SalesReportService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesReportService{
		sales:    sales,
		resolver: resolver,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock overrides the time source
func (s *SalesReportService) SetClock(now func() time.Time) {
	s.now = now
}

// GetReports returns the three buckets for the current instant. A sale may
// appear in several buckets. Sales older than the monthly lookback appear in none.
func (s *SalesReportService) GetReports(ctx context.Context) (*SalesReport, error) {
	now := s.now()
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "sales",
		telemetry.SpanAttrReportDate, now.In(s.location).Format(time.DateOnly),
	)
	defer span.End()

	windows := report.Windows(now, s.location)
	start, end := windows[0].Start, windows[0].End
	for _, w := range windows[1:] {
		if w.Start.Before(start) {
			start = w.Start
		}
		if w.End.After(end) {
			end = w.End
		}
	}

	recent, err := s.sales.QueryByWindow(ctx, start, end)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to load sales for report", zap.Error(err))
		return nil, shared.NewStorageUnavailableError(err)
	}

	resolved, err := s.resolver.Resolve(ctx, recent)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	out := &SalesReport{GeneratedAt: now, Timezone: s.location.String()}
	for _, w := range windows {
		bucket := buildBucket(w, recent, resolved)
		switch w.Period {
		case report.PeriodDaily:
			out.Daily = bucket
		case report.PeriodWeekly:
			out.Weekly = bucket
		case report.PeriodMonthly:
			out.Monthly = bucket
		}
	}
	return out, nil
}

// buildBucket relies on recent and resolved sharing indexes.
func buildBucket(w report.Window, recent []*sale.Sale, resolved []salesapp.SaleResponse) Bucket {
	inWindow := make([]*sale.Sale, 0, len(recent))
	views := make([]salesapp.SaleResponse, 0, len(recent))
	for i, sl := range recent {
		if !w.Contains(sl.CreatedAt) {
			continue
		}
		inWindow = append(inWindow, sl)
		views = append(views, resolved[i])
	}
	return Bucket{
		Window:  w,
		Summary: report.Summarize(inWindow),
		Sales:   views,
	}
}
