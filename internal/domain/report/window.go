// Package report defines the read-side windows and summaries over sale records.
package report

import "time"

// Period names a report bucket
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Rolling lookbacks for the weekly and monthly buckets
const (
	WeeklyLookback  = 7 * 24 * time.Hour
	MonthlyLookback = 30 * 24 * time.Hour
)

// Window is a half-open time range [Start, End)
type Window struct {
	Period Period    `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Windows returns the daily, weekly and monthly windows for now.
//
// Daily is the calendar date of now in loc. Weekly and monthly are rolling
// lookbacks of 7×24h and 30×24h from now, not calendar weeks or months. All
// three end at the next midnight in loc so that a sale recorded at now is
// always inside every bucket.
func Windows(now time.Time, loc *time.Location) []Window {
	if loc == nil {
		loc = time.Local
	}
	daily := DayWindow(now, loc)

	return []Window{
		daily,
		{Period: PeriodWeekly, Start: now.Add(-WeeklyLookback), End: daily.End},
		{Period: PeriodMonthly, Start: now.Add(-MonthlyLookback), End: daily.End},
	}
}

// DayWindow returns the calendar date of day in loc. On DST transitions the
// window is 23 or 25 hours long.
func DayWindow(day time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Period: PeriodDaily, Start: start, End: start.AddDate(0, 0, 1)}
}
