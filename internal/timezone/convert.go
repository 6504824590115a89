package timezone

import "time"

// AtWallClock returns the UTC instant for the given local wall-clock time in
// loc, applying the daylight-saving policy:
//
//   - A wall time skipped by a spring-forward transition snaps to the
//     normalized instant after the gap (time.Date's forward normalization).
//   - A wall time duplicated by a fall-back transition resolves to the
//     earlier of the two instants.
func AtWallClock(loc *time.Location, year int, month time.Month, day, hour, minute int) time.Time {
	t := time.Date(year, month, day, hour, minute, 0, 0, loc)

	local := t.In(loc)
	if local.Hour() != hour || local.Minute() != minute {
		// Skipped wall time; keep the normalized instant.
		return t.UTC()
	}

	// Probe one hour back: if the same wall clock reappears, the time is
	// ambiguous and t is the later instant.
	earlier := t.Add(-time.Hour)
	le := earlier.In(loc)
	if le.Year() == year && le.Month() == month && le.Day() == day &&
		le.Hour() == hour && le.Minute() == minute {
		return earlier.UTC()
	}

	return t.UTC()
}

// LocalDate returns the calendar date of the instant in loc.
func LocalDate(instant time.Time, loc *time.Location) (year int, month time.Month, day int) {
	return instant.In(loc).Date()
}
