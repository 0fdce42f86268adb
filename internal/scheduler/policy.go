package scheduler

import (
	"time"

	"firesafety_reminders/internal/model"
)

// Policy is the set of day counts on which a reminder of Kind goes out.
type Policy struct {
	Kind       model.DeadlineKind
	Thresholds []int
}

var (
	InspectionPolicy  = Policy{Kind: model.DeadlineInspection, Thresholds: []int{30, 14, 7, 1}}
	MaintenancePolicy = Policy{Kind: model.DeadlineMaintenance, Thresholds: []int{60, 30, 14, 7}}
)

// MaxThreshold is the widest look-ahead of the policy in days.
func (p Policy) MaxThreshold() int {
	max := 0
	for _, t := range p.Thresholds {
		if t > max {
			max = t
		}
	}
	return max
}

// Qualifies reports whether days is exactly one of the thresholds.
func (p Policy) Qualifies(days int) bool {
	for _, t := range p.Thresholds {
		if t == days {
			return true
		}
	}
	return false
}

// CalendarDate returns the date of t in loc as midnight UTC, the form
// date-only deadline columns are stored in.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil counts calendar days from today in loc to the deadline's date.
// Deadlines are date-only and stored as midnight UTC, so their date is read
// in UTC and never shifted into loc. Time of day and DST do not change the
// count.
func DaysUntil(deadline, now time.Time, loc *time.Location) int {
	dd := CalendarDate(deadline, time.UTC)
	nd := CalendarDate(now, loc)
	return int(dd.Sub(nd).Hours() / 24)
}
