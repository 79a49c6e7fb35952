package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database spans.
type DBTracingConfig struct {
	Enabled         bool
	DBName          string
	IncludeSQLVars  bool
	SlowQueryThresh time.Duration
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db and tags spans of statements
// slower than SlowQueryThresh.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.IncludeSQLVars {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	thresh := cfg.SlowQueryThresh
	if thresh <= 0 {
		thresh = 200 * time.Millisecond
	}
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { markSlowQuery(tx, thresh) }

	cb := db.Callback()
	processors := []struct {
		name string
		reg  func(before, after func(*gorm.DB)) error
	}{
		{"create", func(b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register("pos_timing:before_create", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("pos_timing:after_create", a)
		}},
		{"query", func(b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register("pos_timing:before_query", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("pos_timing:after_query", a)
		}},
		{"update", func(b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register("pos_timing:before_update", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("pos_timing:after_update", a)
		}},
		{"delete", func(b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register("pos_timing:before_delete", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("pos_timing:after_delete", a)
		}},
	}
	for _, p := range processors {
		if err := p.reg(before, after); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_name", cfg.DBName),
		zap.Duration("slow_query_threshold", thresh),
	)
	return nil
}

func markSlowQuery(tx *gorm.DB, thresh time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		RecordError(span, tx.Error)
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > thresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
