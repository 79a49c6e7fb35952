package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig configures the zap-backed gorm logger
type GormConfig struct {
	Level gormlogger.LogLevel
	// SlowThreshold marks statements slower than this at warn; 0 disables it
	SlowThreshold time.Duration
	// LogNotFound keeps record-not-found errors, which product and user
	// lookups produce routinely
	LogNotFound bool
}

// GormLogger implements gormlogger.Interface on zap. Statement logs carry the
// request, user and trace ids found in the query context.
type GormLogger struct {
	logger *zap.Logger
	cfg    GormConfig
}

// NewGormLogger creates a gorm logger named "db"
func NewGormLogger(base *zap.Logger, cfg GormConfig) *GormLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &GormLogger{logger: base.Named("db"), cfg: cfg}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.cfg.Level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Info {
		l.logger.Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Warn {
		l.logger.Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Error {
		l.logger.Sugar().Errorf(msg, data...)
	}
}

// Trace logs one finished statement. Failures go out at error, slow
// statements at warn and everything else at debug when the level is Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}
	if err != nil && !l.cfg.LogNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	slow := l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold

	switch {
	case err != nil && l.cfg.Level >= gormlogger.Error:
		l.logger.Error("SQL statement failed", append(statementFields(ctx, elapsed, fc), zap.Error(err))...)
	case slow && l.cfg.Level >= gormlogger.Warn:
		l.logger.Warn("Slow SQL statement", append(statementFields(ctx, elapsed, fc),
			zap.Duration("threshold", l.cfg.SlowThreshold))...)
	case l.cfg.Level >= gormlogger.Info:
		l.logger.Debug("SQL statement", statementFields(ctx, elapsed, fc)...)
	}
}

func statementFields(ctx context.Context, elapsed time.Duration, fc func() (string, int64)) []zap.Field {
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	for key, value := range map[string]string{
		"request_id": GetRequestID(ctx),
		"user_id":    GetUserID(ctx),
		"trace_id":   GetTraceID(ctx),
	} {
		if value != "" {
			fields = append(fields, zap.String(key, value))
		}
	}
	return fields
}

// MapGormLogLevel maps the application log level onto gorm's. Debug shows
// every statement; the default keeps failures and slow statements only.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug", "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
