package ledger

import (
	"time"

	"despesas/internal/core"
)

const (
	StatusPaid      DueStatus = "paid"
	StatusOverdue   DueStatus = "overdue"
	StatusDueSoon   DueStatus = "due_soon"
	StatusScheduled DueStatus = "scheduled"
)

// DefaultDueSoonWindow is the lookahead in days used when none is given.
const DefaultDueSoonWindow = 7

// DueStatus classifies an upcoming expense relative to now.
type DueStatus string

// DaysUntil returns the number of calendar days from now's day, in now's
// location, to due. A bill due today is 0. Both days are UTC midnights, so
// daylight saving changes never shift the count.
func DaysUntil(due core.Date, now time.Time) int {
	return int(due.Sub(core.DateOf(now).Time).Hours() / 24)
}

// IsOverdue reports whether an unpaid record's due day has passed.
func IsOverdue(r core.Record, now time.Time) bool {
	return !r.IsPaid && DaysUntil(r.OccursOn, now) < 0
}

// IsDueSoon reports whether an unpaid record is due within windowDays.
func IsDueSoon(r core.Record, now time.Time, windowDays int) bool {
	if r.IsPaid {
		return false
	}
	days := DaysUntil(r.OccursOn, now)
	return days >= 0 && days <= windowDays
}

// DueSoon keeps unpaid records due within windowDays, today included.
func DueSoon(records []core.Record, now time.Time, windowDays int) []core.Record {
	return filter(records, func(r core.Record) bool { return IsDueSoon(r, now, windowDays) })
}

// Overdue keeps unpaid records whose due day has passed.
func Overdue(records []core.Record, now time.Time) []core.Record {
	return filter(records, func(r core.Record) bool { return IsOverdue(r, now) })
}

func Classify(r core.Record, now time.Time, windowDays int) DueStatus {
	switch {
	case r.IsPaid:
		return StatusPaid
	case IsOverdue(r, now):
		return StatusOverdue
	case IsDueSoon(r, now, windowDays):
		return StatusDueSoon
	default:
		return StatusScheduled
	}
}
