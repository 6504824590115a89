// Package scheduler holds the pure scheduling arithmetic: resource conflict
// detection, studio week windows and payroll unit computation. It has no
// persistence dependencies; callers feed it already-loaded records.
package scheduler

import "time"

// Instance is the minimal view of an event instance needed for conflict
// detection.
type Instance struct {
	ID           string
	RoomID       *string
	InstructorID *string
	Start        time.Time
	End          time.Time
	Cancelled    bool
}

// HasConflict reports whether any existing non-cancelled instance overlaps
// the half-open window [start, end) while holding the same room or the same
// instructor. When both a room and an instructor are supplied, a double
// booking of either resource counts. When neither is supplied there is no
// resource to conflict over and the result is false. excludeID ignores one
// instance, so a reschedule does not conflict with itself.
func HasConflict(existing []Instance, start, end time.Time, roomID, instructorID *string, excludeID string) bool {
	if roomID == nil && instructorID == nil {
		return false
	}

	for _, inst := range existing {
		if inst.Cancelled {
			continue
		}
		if excludeID != "" && inst.ID == excludeID {
			continue
		}
		if !overlaps(inst.Start, inst.End, start, end) {
			continue
		}
		if roomID != nil && inst.RoomID != nil && *inst.RoomID == *roomID {
			return true
		}
		if instructorID != nil && inst.InstructorID != nil && *inst.InstructorID == *instructorID {
			return true
		}
	}

	return false
}

// overlaps implements the half-open interval test: touching endpoints do not
// overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
