package service

import (
	"nagrikrakshak/models"
	"time"
)

// Resolution windows per priority tier
const (
	HighPriorityWindow   = 24 * time.Hour
	MediumPriorityWindow = 72 * time.Hour
	DefaultWindow        = 7 * 24 * time.Hour
)

// ResolutionWindow returns how long a complaint of the given priority may stay
// unresolved. Low and unknown priorities get the one-week default.
func ResolutionWindow(priority models.Priority) time.Duration {
	switch priority {
	case models.PriorityHigh:
		return HighPriorityWindow
	case models.PriorityMedium:
		return MediumPriorityWindow
	default:
		return DefaultWindow
	}
}

// ComputeDeadline returns the absolute resolution deadline, in UTC
func ComputeDeadline(priority models.Priority, now time.Time) time.Time {
	return now.UTC().Add(ResolutionWindow(priority))
}

// IsOverdue reports whether now is strictly past deadline. A nil deadline is
// never overdue. Both instants are compared on the UTC timeline.
func IsOverdue(deadline *time.Time, now time.Time) bool {
	if deadline == nil || deadline.IsZero() {
		return false
	}
	return now.UTC().After(deadline.UTC())
}
