// Package recurrence expands weekly class series into concrete occurrence
// times. The engine is pure: it computes candidate start/end instants and
// leaves existence checks, conflict checks and persistence to the caller.
package recurrence

import (
	"errors"
	"time"

	"github.com/example/studio-scheduler/internal/timezone"
)

// ErrInvalidDuration indicates the series duration would produce empty or
// inverted instances.
var ErrInvalidDuration = errors.New("recurrence: series duration must be positive")

// Rule describes the weekly recurrence template of a series.
type Rule struct {
	DayOfWeek       time.Weekday
	StartHourLocal  int
	StartMinute     int
	DurationMinutes int
	IntervalWeeks   int
}

// Occurrence is one candidate class occurrence. Start and End are UTC
// instants derived from the studio-local wall clock on the occurrence date.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Expand produces every occurrence of the rule whose local start falls in
// the window [from-date at local midnight, to-date at local midnight). The
// window bounds are interpreted as calendar dates in loc; their clock
// components are ignored.
//
// Semantics:
//   - The first candidate is the next date on or after the window start
//     whose weekday matches the rule. If its full local datetime still
//     precedes the window-start midnight, the candidate advances by one
//     interval.
//   - Subsequent candidates step by max(IntervalWeeks, 1) weeks.
//   - Wall times skipped or duplicated by daylight-saving transitions follow
//     the timezone package policy (snap forward; prefer the earlier fold).
func Expand(rule Rule, loc *time.Location, from, to time.Time) ([]Occurrence, error) {
	if rule.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	step := rule.IntervalWeeks
	if step < 1 {
		step = 1
	}

	fromYear, fromMonth, fromDay := from.In(loc).Date()
	windowStart := timezone.AtWallClock(loc, fromYear, fromMonth, fromDay, 0, 0)

	toYear, toMonth, toDay := to.In(loc).Date()
	windowEnd := timezone.AtWallClock(loc, toYear, toMonth, toDay, 0, 0)

	// Noon-anchored UTC date carrier keeps AddDate arithmetic free of
	// location transitions.
	date := time.Date(fromYear, fromMonth, fromDay, 12, 0, 0, 0, time.UTC)
	for date.Weekday() != rule.DayOfWeek {
		date = date.AddDate(0, 0, 1)
	}

	startAt := func(d time.Time) time.Time {
		return timezone.AtWallClock(loc, d.Year(), d.Month(), d.Day(), rule.StartHourLocal, rule.StartMinute)
	}

	if startAt(date).Before(windowStart) {
		date = date.AddDate(0, 0, 7*step)
	}

	var occurrences []Occurrence
	for {
		start := startAt(date)
		if !start.Before(windowEnd) {
			break
		}
		occurrences = append(occurrences, Occurrence{
			Start: start,
			End:   start.Add(time.Duration(rule.DurationMinutes) * time.Minute),
		})
		date = date.AddDate(0, 0, 7*step)
	}

	return occurrences, nil
}
