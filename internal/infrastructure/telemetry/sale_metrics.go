package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// StockLevelSource reports how many products have run out of stock.
type StockLevelSource interface {
	CountOutOfStock(ctx context.Context) (int64, error)
}

// SaleMetrics records checkout counters and an out-of-stock gauge.
type SaleMetrics struct {
	committed *Counter
	rejected  *Counter
	itemsSold *Counter
	revenue   metric.Float64Counter
	duration  *Histogram
	logger    *zap.Logger
}

// NewSaleMetrics registers the sale instruments on meter. When stock is not
// nil an observable gauge polls it on each collection.
func NewSaleMetrics(meter metric.Meter, stock StockLevelSource, logger *zap.Logger) (*SaleMetrics, error) {
	m := &SaleMetrics{logger: logger}
	var err error

	if m.committed, err = NewCounter(meter, "pos.sales.committed", "Number of committed sales", "{sale}"); err != nil {
		return nil, err
	}
	if m.rejected, err = NewCounter(meter, "pos.sales.rejected", "Number of rejected checkouts by reason", "{sale}"); err != nil {
		return nil, err
	}
	if m.itemsSold, err = NewCounter(meter, "pos.sales.items_sold", "Units sold across committed sales", "{unit}"); err != nil {
		return nil, err
	}
	if m.revenue, err = meter.Float64Counter("pos.sales.revenue",
		metric.WithDescription("Sum of committed sale totals"),
		metric.WithUnit("{currency}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter pos.sales.revenue: %w", err)
	}
	if m.duration, err = NewHistogram(meter, "pos.sales.process.duration",
		"Time spent processing a checkout", "s", SmallDurationBuckets...); err != nil {
		return nil, err
	}

	if stock != nil {
		if _, err = meter.Int64ObservableGauge("pos.inventory.out_of_stock",
			metric.WithDescription("Products with zero stock"),
			metric.WithUnit("{product}"),
			metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
				n, err := stock.CountOutOfStock(ctx)
				if err != nil {
					logger.Warn("Failed to collect out-of-stock gauge", zap.Error(err))
					return nil
				}
				o.Observe(n)
				return nil
			}),
		); err != nil {
			return nil, fmt.Errorf("failed to create gauge pos.inventory.out_of_stock: %w", err)
		}
	}
	return m, nil
}

// RecordCommitted records one committed sale.
func (m *SaleMetrics) RecordCommitted(ctx context.Context, total decimal.Decimal, items int64, elapsed time.Duration) {
	m.committed.Inc(ctx)
	m.itemsSold.Add(ctx, items)
	m.revenue.Add(ctx, total.InexactFloat64())
	m.duration.RecordDuration(ctx, elapsed, AttrOutcome.String("committed"))
}

// RecordRejected records one rejected checkout tagged with its error code.
func (m *SaleMetrics) RecordRejected(ctx context.Context, code string, elapsed time.Duration) {
	m.rejected.Inc(ctx, AttrReason.String(code))
	m.duration.RecordDuration(ctx, elapsed, AttrOutcome.String("rejected"))
}
