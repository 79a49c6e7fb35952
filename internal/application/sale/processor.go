// Package sale implements checkout processing and the sale read models.
package sale

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/inventory"
	"github.com/possale/backend/internal/domain/sale"
	"github.com/possale/backend/internal/domain/shared"
	applog "github.com/possale/backend/internal/infrastructure/logger"
	"github.com/possale/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// errRejected aborts the scope after a business rejection has been recorded.
var errRejected = errors.New("sale rejected")

// Processor turns a cart into exactly one committed sale or a rejection.
type Processor struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	metrics        *telemetry.SaleMetrics
	now            func() time.Time
	logger         *zap.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(scope TransactionScope, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		scope:  scope,
		now:    time.Now,
		logger: logger,
	}
}

// SetEventPublisher sets the publisher for SaleCompleted events.
func (p *Processor) SetEventPublisher(publisher shared.EventPublisher) {
	p.eventPublisher = publisher
}

// SetSaleMetrics enables checkout metrics.
func (p *Processor) SetSaleMetrics(m *telemetry.SaleMetrics) {
	p.metrics = m
}

// SetClock overrides the time source used to stamp sales.
func (p *Processor) SetClock(now func() time.Time) {
	p.now = now
}

// Process validates req, reserves stock for every line and records the sale.
//
// Business failures (invalid cart, unknown product, insufficient stock) come
// back as a Rejected result with a nil error. A non-nil error is always a
// STORAGE_UNAVAILABLE domain error and means nothing was recorded.
func (p *Processor) Process(ctx context.Context, cashierID uuid.UUID, req sale.Request) (sale.Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "process",
		telemetry.SpanAttrCashierID, cashierID,
		telemetry.SpanAttrLineCount, len(req.Lines),
	)
	defer span.End()
	started := time.Now()

	if cashierID == uuid.Nil {
		return p.reject(ctx, shared.NewInvalidRequestError("Sale requires a cashier"), started), nil
	}
	if err := req.Validate(); err != nil {
		return p.reject(ctx, err, started), nil
	}

	var (
		rejection *shared.DomainError
		committed *sale.Sale
		reserved  []inventory.Line
		ledger    inventory.Ledger
		inTx      bool
	)

	err := p.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ledger = repos.Ledger()
		inTx = repos.LedgerInTransaction()

		products, err := repos.Products().FindByIDs(ctx, req.ProductIDs())
		if err != nil {
			return err
		}
		priced, lines, derr := priceLines(req, products)
		if derr != nil {
			rejection = derr
			return errRejected
		}

		// Build the sale first so every domain check runs before stock moves
		s, err := sale.NewSale(cashierID, priced, p.now())
		if err != nil {
			if derr, ok := shared.AsDomainError(err); ok {
				rejection = derr
				return errRejected
			}
			return err
		}

		if err := inventory.ReserveAll(ctx, ledger, lines); err != nil {
			if derr := businessReason(err); derr != nil {
				rejection = derr
				return errRejected
			}
			return err
		}
		reserved = lines

		if err := repos.Sales().Append(ctx, s); err != nil {
			return err
		}
		committed = s
		return nil
	})

	// A rolled back transaction has already undone the reservation; other
	// ledgers are restocked by hand
	if committed == nil && reserved != nil && !inTx {
		if rerr := inventory.ReleaseAll(ctx, ledger, reserved); rerr != nil {
			p.logger.Error("Failed to release stock after aborted sale",
				zap.String("cashier_id", cashierID.String()),
				zap.Error(rerr),
			)
		}
	}
	if rejection != nil {
		return p.reject(ctx, rejection, started), nil
	}
	if err != nil {
		applog.Or(ctx, p.logger).Error("Sale could not be recorded",
			zap.String("cashier_id", cashierID.String()),
			zap.Error(err),
		)
		telemetry.RecordError(span, err)
		if p.metrics != nil {
			p.metrics.RecordRejected(ctx, shared.CodeStorageUnavailable, time.Since(started))
		}
		return sale.Result{}, shared.NewStorageUnavailableError(err)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, committed.ID,
		telemetry.SpanAttrTotal, committed.Total.String(),
		telemetry.SpanAttrOutcome, string(sale.OutcomeCommitted),
	)
	if p.metrics != nil {
		p.metrics.RecordCommitted(ctx, committed.Total, committed.ItemCount(), time.Since(started))
	}
	applog.Or(ctx, p.logger).Info("Sale committed",
		zap.String("sale_id", committed.ID.String()),
		zap.String("cashier_id", cashierID.String()),
		zap.String("total", committed.Total.String()),
		zap.Int("lines", len(committed.Items)),
	)
	p.publishEvents(ctx, committed)
	return sale.Committed(committed), nil
}

// priceLines captures the current name and price of every cart line. The
// returned reservation lines follow cart order.
func priceLines(req sale.Request, products []*catalog.Product) ([]sale.PricedLine, []inventory.Line, *shared.DomainError) {
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	priced := make([]sale.PricedLine, 0, len(req.Lines))
	lines := make([]inventory.Line, 0, len(req.Lines))
	for _, line := range req.Lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, nil, shared.NewNotFoundError("product", line.ProductID.String())
		}
		priced = append(priced, sale.PricedLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
		})
		lines = append(lines, inventory.Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
		})
	}
	return priced, lines, nil
}

// businessReason extracts the rejection carried by a reservation failure, or
// nil when the failure came from storage.
func businessReason(err error) *shared.DomainError {
	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr.DomainError()
	}
	if derr, ok := shared.AsDomainError(err); ok && derr.Code != shared.CodeStorageUnavailable {
		return derr
	}
	return nil
}

func (p *Processor) reject(ctx context.Context, err error, started time.Time) sale.Result {
	reason := businessReason(err)
	if reason == nil {
		reason = shared.NewInvalidRequestError(err.Error())
	}

	span := telemetry.SpanFromContext(ctx)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOutcome, string(sale.OutcomeRejected),
		telemetry.SpanAttrReason, reason.Code,
	)
	if p.metrics != nil {
		p.metrics.RecordRejected(ctx, reason.Code, time.Since(started))
	}
	applog.Or(ctx, p.logger).Info("Sale rejected",
		zap.String("code", reason.Code),
		zap.String("reason", reason.Message),
	)
	return sale.Rejected(reason)
}

func (p *Processor) publishEvents(ctx context.Context, s *sale.Sale) {
	events := s.PullEvents()
	if p.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := p.eventPublisher.Publish(ctx, events...); err != nil {
		p.logger.Warn("Failed to publish sale events",
			zap.String("sale_id", s.ID.String()),
			zap.Error(err),
		)
	}
}
