// Package maintenance holds the due computation and alert aggregation
// logic. Everything in here is pure: inputs are read-only snapshots of
// cars and their cached advice, and malformed optional fields degrade
// to "no progress" or "not an alert" instead of returning errors.
package maintenance

import (
	"time"

	"github.com/tuutuut/tuutuut-api/internal/models"
)

const (
	// AlertWindowKm is how close to its due mileage a suggestion must
	// be before it is surfaced as urgent regardless of its urgency.
	AlertWindowKm = 1000

	// InspectionWindowDays is how close to expiry an APK date must be
	// before it contributes to the badge count.
	InspectionWindowDays = 60
)

// Inspection expiry classifications.
const (
	InspectionExpired = "expired"
	InspectionDueSoon = "due_soon"
	InspectionValid   = "valid"
)

// Progress describes where the current odometer sits inside a
// suggestion's service cycle. Display state only.
type Progress struct {
	Percentage  float64 `json:"percentage"` // always within [0, 100]
	Overdue     bool    `json:"overdue"`
	KmRemaining int     `json:"kmRemaining"` // negative when overdue; abs is the "over by" distance
}

// ComputeProgress computes the interval progress for one suggestion at
// the given odometer reading. Returns nil when no progress bar should
// be rendered: due mileage absent, or interval absent or not positive.
// The cycle starts at dueMileage-intervalKm; the percentage is clamped
// so pathological inputs never escape [0, 100].
func ComputeProgress(currentMileage int, s models.MaintenanceSuggestion) *Progress {
	if s.DueMileage == nil || s.IntervalKm == nil || *s.IntervalKm <= 0 {
		return nil
	}

	due := *s.DueMileage
	interval := *s.IntervalKm
	cycleStart := due - interval

	covered := currentMileage - cycleStart
	percentage := float64(covered) / float64(interval) * 100
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	return &Progress{
		Percentage:  percentage,
		Overdue:     currentMileage > due,
		KmRemaining: due - currentMileage,
	}
}

// IsUrgent reports whether a suggestion counts as an urgent alert:
// high urgency, or due within AlertWindowKm of the current odometer
// (which includes anything already overdue).
func IsUrgent(currentMileage int, s models.MaintenanceSuggestion) bool {
	if s.Urgency == models.UrgencyHigh {
		return true
	}
	if s.DueMileage == nil {
		return false
	}
	return *s.DueMileage-currentMileage < AlertWindowKm
}

// DaysUntilInspection returns the number of whole days between today
// and the APK expiry at date-only granularity; time-of-day is ignored.
// ok is false when the date is absent or unparseable.
func DaysUntilInspection(apkDate string, today time.Time) (int, bool) {
	if apkDate == "" {
		return 0, false
	}
	expiry, err := time.Parse("2006-01-02", apkDate)
	if err != nil {
		return 0, false
	}
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(expiry.Sub(midnight).Hours() / 24), true
}

// InspectionAlert reports whether a car's APK expiry contributes to
// the badge count.
func InspectionAlert(apkDate string, today time.Time) bool {
	days, ok := DaysUntilInspection(apkDate, today)
	return ok && days < InspectionWindowDays
}

// InspectionStatus classifies an APK date as expired, due soon or
// valid, with the day distance. ok is false when there is no usable
// date.
func InspectionStatus(apkDate string, today time.Time) (status string, days int, ok bool) {
	days, ok = DaysUntilInspection(apkDate, today)
	if !ok {
		return "", 0, false
	}
	switch {
	case days < 0:
		return InspectionExpired, days, true
	case days < InspectionWindowDays:
		return InspectionDueSoon, days, true
	default:
		return InspectionValid, days, true
	}
}
