package scheduler

import (
	"time"

	"github.com/example/studio-scheduler/internal/timezone"
)

// WeekWindow resolves the studio-local week containing instant and returns
// its boundaries as UTC instants. The window starts at local midnight of the
// configured week-start day and spans seven local calendar days, so the
// boundaries stay aligned with wall-clock dates across daylight-saving
// shifts (a window may therefore be 167 or 169 hours long).
func WeekWindow(loc *time.Location, weekStartsOn time.Weekday, instant time.Time) (startUTC, endUTC time.Time) {
	local := instant.In(loc)
	year, month, day := local.Date()

	diff := (7 + int(local.Weekday()) - int(weekStartsOn)) % 7

	startDate := time.Date(year, month, day, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -diff)
	endDate := startDate.AddDate(0, 0, 7)

	startUTC = timezone.AtWallClock(loc, startDate.Year(), startDate.Month(), startDate.Day(), 0, 0)
	endUTC = timezone.AtWallClock(loc, endDate.Year(), endDate.Month(), endDate.Day(), 0, 0)
	return startUTC, endUTC
}
