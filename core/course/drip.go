package course

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
)

var (
	ErrInvalidScheduleType = core.NewValidationError(
		errors.New("invalid drip schedule type"),
		core.FieldError{Field: "schedule_type", Error: "must be one of: none, week"},
	)
	ErrInvalidReleaseDay = core.NewValidationError(
		errors.New("invalid drip release day"),
		core.FieldError{Field: "release_day_of_week", Error: "must be between 0 (Sunday) and 6 (Saturday)"},
	)
	ErrNegativeDelay = core.NewValidationError(
		errors.New("invalid drip delay"),
		core.FieldError{Field: "drip_delay_days", Error: "must not be negative"},
	)
	ErrMissingEnrollmentDate = core.NewValidationError(
		errors.New("missing enrollment date"),
		core.FieldError{Field: "enrolled_at", Error: "this field is required"},
	)
)

// Validate checks the drip policy. An empty schedule type means none.
func (p DripPolicy) Validate() error {
	switch p.ScheduleType {
	case "", ScheduleNone, ScheduleWeek:
	default:
		return ErrInvalidScheduleType
	}
	if p.ReleaseDayOfWeek < time.Sunday || p.ReleaseDayOfWeek > time.Saturday {
		return ErrInvalidReleaseDay
	}
	return nil
}

// delays reports whether item delays apply under this policy.
func (p DripPolicy) delays() bool {
	return p.Enabled && p.ScheduleType != "" && p.ScheduleType != ScheduleNone
}

func (it ContentItem) Validate() error {
	if it.DripDelayDays < 0 {
		return ErrNegativeDelay
	}
	return nil
}

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days (UTC) from `from` to `to`, ignoring the time of day.
// It is negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int {
	return int((startOfDay(to).Unix() - startOfDay(from).Unix()) / (24 * 60 * 60))
}

// IsAvailable reports whether the item is unlocked for the enrollment at `now`.
// Once available, an item stays available as `now` moves forward.
func IsAvailable(crs Course, item ContentItem, enr Enrollment, now time.Time) (bool, error) {
	if err := crs.Drip.Validate(); err != nil {
		return false, err
	}
	if err := item.Validate(); err != nil {
		return false, err
	}
	if enr.EnrolledAt.IsZero() {
		return false, ErrMissingEnrollmentDate
	}

	if !crs.Drip.delays() {
		return true, nil
	}
	return DaysBetween(enr.EnrolledAt, now) >= item.DripDelayDays, nil
}

// AvailableFrom returns the day on which the item unlocks for the enrollment.
// The zero time is returned when drip delays do not apply.
func AvailableFrom(crs Course, item ContentItem, enr Enrollment) time.Time {
	if !crs.Drip.delays() || item.DripDelayDays <= 0 {
		return time.Time{}
	}
	return startOfDay(enr.EnrolledAt).AddDate(0, 0, item.DripDelayDays)
}

// NextReleaseDate returns the next weekly release day strictly after today (UTC midnight).
// It is informational only: availability never depends on it.
func NextReleaseDate(crs Course, now time.Time) (time.Time, bool) {
	if !crs.Drip.Enabled || crs.Drip.ScheduleType != ScheduleWeek {
		return time.Time{}, false
	}
	if crs.Drip.ReleaseDayOfWeek < time.Sunday || crs.Drip.ReleaseDayOfWeek > time.Saturday {
		return time.Time{}, false
	}

	today := startOfDay(now)
	diff := (int(crs.Drip.ReleaseDayOfWeek) - int(today.Weekday()) + 7) % 7
	if diff == 0 {
		diff = 7
	}
	return today.AddDate(0, 0, diff), true
}
