// Package scheduler runs the end-of-day close: once a day it summarizes the
// previous calendar date's sales and writes the totals to the log.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	reportapp "github.com/possale/backend/internal/application/report"
	"go.uber.org/zap"
)

// ErrInvalidSchedule reports a close time that cannot be parsed
var ErrInvalidSchedule = errors.New("invalid daily close schedule")

// cronTickerInterval is how often the loop checks whether the close is due
const cronTickerInterval = time.Minute

// DayCloser summarizes one calendar date
type DayCloser interface {
	CloseDay(ctx context.Context, day time.Time) (*reportapp.DayClose, error)
}

// DailyCloseConfig holds configuration for the end-of-day close
type DailyCloseConfig struct {
	Enabled bool
	// Hour and Minute are the local time of the close
	Hour   int
	Minute int
	// Location is the report timezone; nil means UTC
	Location *time.Location
	// JobTimeout bounds a single close
	JobTimeout time.Duration
}

// DefaultDailyCloseConfig closes the previous day at 00:05 UTC
func DefaultDailyCloseConfig() DailyCloseConfig {
	return DailyCloseConfig{
		Enabled:    true,
		Hour:       0,
		Minute:     5,
		Location:   time.UTC,
		JobTimeout: 5 * time.Minute,
	}
}

// ParseCronSchedule reads the minute and hour fields of a "minute hour * * *"
// expression. An empty expression yields 00:05.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour, minute = 0, 5
	parts := strings.Fields(cronExpr)
	if len(parts) == 0 {
		return hour, minute, nil
	}
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%w: expected \"minute hour * * *\", got %q", ErrInvalidSchedule, cronExpr)
	}
	if minute, err = parseField(parts[0], 59); err != nil {
		return 0, 0, fmt.Errorf("%w: minute: %v", ErrInvalidSchedule, err)
	}
	if hour, err = parseField(parts[1], 23); err != nil {
		return 0, 0, fmt.Errorf("%w: hour: %v", ErrInvalidSchedule, err)
	}
	return hour, minute, nil
}

func parseField(s string, maxVal int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 || v > maxVal {
		return 0, fmt.Errorf("must be 0-%d, got %d", maxVal, v)
	}
	return v, nil
}

// DailyCloseScheduler runs the close of the previous day once per day
type DailyCloseScheduler struct {
	config DailyCloseConfig
	closer DayCloser
	logger *zap.Logger
	now    func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRunAt *time.Time
	nextRunAt *time.Time
	lastClose *reportapp.DayClose
}

// NewDailyCloseScheduler creates a DailyCloseScheduler
func NewDailyCloseScheduler(config DailyCloseConfig, closer DayCloser, logger *zap.Logger) *DailyCloseScheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyCloseScheduler{
		config: config,
		closer: closer,
		logger: logger.Named("daily_close"),
		now:    time.Now,
	}
}

// SetClock overrides the time source
func (s *DailyCloseScheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start launches the cron loop. A disabled scheduler does nothing.
func (s *DailyCloseScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Daily close disabled")
		return nil
	}
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	next := s.calculateNextRunTime(s.now())

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Daily close scheduler started",
		zap.Int("hour", s.config.Hour),
		zap.Int("minute", s.config.Minute),
		zap.String("timezone", s.config.Location.String()),
		zap.Time("next_run_at", next),
	)
	return nil
}

// Stop stops the loop and waits for a running close, or for ctx
func (s *DailyCloseScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Daily close scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Daily close scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *DailyCloseScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.now()
			if s.due(now) {
				_, _ = s.RunOnce(ctx, now)
				s.calculateNextRunTime(now)
			}
		}
	}
}

// due reports whether the scheduled instant has been reached
func (s *DailyCloseScheduler) due(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt != nil && !now.Before(*s.nextRunAt)
}

// calculateNextRunTime returns the first close strictly after now
func (s *DailyCloseScheduler) calculateNextRunTime(now time.Time) time.Time {
	local := now.In(s.config.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(),
		s.config.Hour, s.config.Minute, 0, 0, s.config.Location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
	return next
}

// RunOnce closes the calendar day before now and logs the result
func (s *DailyCloseScheduler) RunOnce(ctx context.Context, now time.Time) (*reportapp.DayClose, error) {
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	yesterday := now.In(s.config.Location).AddDate(0, 0, -1)
	closed, err := s.closer.CloseDay(ctx, yesterday)
	if err != nil {
		s.logger.Error("Daily close failed",
			zap.String("date", yesterday.Format(time.DateOnly)),
			zap.Error(err),
		)
		return nil, err
	}

	s.mu.Lock()
	s.lastClose = closed
	s.mu.Unlock()

	s.logger.Info("Daily close",
		zap.String("date", closed.Date),
		zap.String("timezone", closed.Timezone),
		zap.Int64("sales", closed.Summary.Count),
		zap.Int64("items_sold", closed.Summary.ItemsSold),
		zap.String("total", closed.Summary.TotalAmount.StringFixed(2)),
		zap.String("avg_sale", closed.Summary.AvgSaleAmount.StringFixed(2)),
		zap.Int("cashiers", len(closed.Cashiers)),
	)
	for _, c := range closed.Cashiers {
		s.logger.Info("Daily close by cashier",
			zap.String("date", closed.Date),
			zap.String("user_id", c.UserID.String()),
			zap.Int64("sales", c.Count),
			zap.String("total", c.TotalAmount.StringFixed(2)),
		)
	}
	return closed, nil
}

// GetNextRunAt returns when the next close is scheduled
func (s *DailyCloseScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

// GetLastRunAt returns when the last close ran
func (s *DailyCloseScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}

// LastClose returns the most recent successful close
func (s *DailyCloseScheduler) LastClose() *reportapp.DayClose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastClose
}
