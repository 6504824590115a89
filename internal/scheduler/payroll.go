package scheduler

import "math"

// RateUnit mirrors the instructor rate units relevant to unit computation.
// Only the hourly unit scales with session length; every other unit pays the
// flat rate per session.
type RateUnit string

const (
	RateUnitSession RateUnit = "session"
	RateUnitHour    RateUnit = "hour"
	RateUnitDay     RateUnit = "day"
	RateUnitWeek    RateUnit = "week"
	RateUnitMonth   RateUnit = "month"
)

// ComputeUnits derives the payroll unit count and amount for one session.
// A non-positive rate yields zero. Hourly rates accrue fractional units from
// the session duration; amounts are rounded to the nearest cent.
func ComputeUnits(rateCents int64, unit RateUnit, durationMinutes int) (units float64, amountCents int64) {
	if rateCents <= 0 {
		return 0, 0
	}

	if unit == RateUnitHour {
		units = float64(durationMinutes) / 60.0
		return units, int64(math.Round(float64(rateCents) * units))
	}

	return 1, rateCents
}
