// Package policy holds the pure booking rules: the rolling selection
// horizon, selection validation and cost estimation. No I/O, no clocks;
// callers pass "today" in.
package policy

import (
	"fmt"
	"time"

	"agrirent/internal/domains/booking/model"
	"agrirent/shared/constant"
	"agrirent/shared/failure"
)

const (
	// HorizonDays is the rolling window, in days past today, within which
	// any date may be selected. The boundary day itself is selectable.
	HorizonDays = 15

	// HoursPerDay: one selected day always bills as a full day.
	HoursPerDay = 24

	// MaxSelectedDays caps both a range's length and an individual set's size.
	MaxSelectedDays = 15
)

// ParseDate parses an ISO-8601 date string (YYYY-MM-DD) into a UTC civil date.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(constant.DateOnlyFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}

	return date, nil
}

// Horizon computes the allowed booking window [today, today+HorizonDays],
// both bounds inclusive.
func Horizon(today time.Time) (min, max time.Time) {
	min = truncate(today)
	max = min.AddDate(0, 0, HorizonDays)

	return min, max
}

// WithinHorizon reports whether date falls inside the booking horizon,
// bounds inclusive.
func WithinHorizon(date, today time.Time) bool {
	min, max := Horizon(today)
	date = truncate(date)

	return !date.Before(min) && !date.After(max)
}

// TotalDays counts billable days in a selection. A range includes both
// endpoints; a malformed or empty selection counts zero.
func TotalDays(sel model.Selection) int {
	switch sel.Mode {
	case model.ModeRange:
		start, err := ParseDate(sel.StartDate)
		if err != nil {
			return 0
		}

		end, err := ParseDate(sel.EndDate)
		if err != nil {
			return 0
		}

		if end.Before(start) {
			return 0
		}

		return int(end.Sub(start).Hours()/HoursPerDay) + 1
	case model.ModeIndividual:
		return len(sel.Dates)
	default:
		return 0
	}
}

// Estimate computes the total cost of a selection: billable days times 24
// hours times the hourly rate. Zero dates means zero cost. No rounding here;
// two-decimal presentation is the caller's concern.
func Estimate(sel model.Selection, hourlyRate float64) float64 {
	return float64(TotalDays(sel)) * HoursPerDay * hourlyRate
}

// ValidateSelection checks a selection against the booking horizon for the
// given "today". Rejections carry the exact offending dates so the caller
// can surface which picks need adjusting. Past dates are the picker
// surface's job to block and are not re-validated here.
func ValidateSelection(sel model.Selection, today time.Time) error {
	if sel.IsEmpty() {
		return failure.PolicyViolation("no dates selected", nil)
	}

	_, max := Horizon(today)

	switch sel.Mode {
	case model.ModeRange:
		return validateRange(sel, max)
	case model.ModeIndividual:
		return validateIndividual(sel, max)
	default:
		return failure.BadRequestFromString(fmt.Sprintf("unknown booking mode %q", sel.Mode))
	}
}

func validateRange(sel model.Selection, max time.Time) error {
	start, err := ParseDate(sel.StartDate)
	if err != nil {
		return failure.BadRequest(err)
	}

	end, err := ParseDate(sel.EndDate)
	if err != nil {
		return failure.BadRequest(err)
	}

	if end.Before(start) {
		return failure.PolicyViolation("end date must not be before start date", []string{sel.EndDate})
	}

	if end.After(max) {
		return failure.PolicyViolation(
			fmt.Sprintf("booking dates must be within %d days from today, latest allowed date is %s", HorizonDays, max.Format(constant.DateOnlyFormat)),
			[]string{sel.EndDate},
		)
	}

	if totalDays := TotalDays(sel); totalDays > MaxSelectedDays {
		return failure.PolicyViolation(
			fmt.Sprintf("maximum booking period is %d days, you selected %d days", MaxSelectedDays, totalDays),
			nil,
		)
	}

	return nil
}

func validateIndividual(sel model.Selection, max time.Time) error {
	if len(sel.Dates) > MaxSelectedDays {
		return failure.PolicyViolation(
			fmt.Sprintf("a maximum of %d days can be selected for booking", MaxSelectedDays),
			nil,
		)
	}

	var offending []string

	for _, value := range sel.Dates {
		date, err := ParseDate(value)
		if err != nil {
			return failure.BadRequest(err)
		}

		if date.After(max) {
			offending = append(offending, value)
		}
	}

	if len(offending) > 0 {
		return failure.PolicyViolation(
			fmt.Sprintf("selected dates are beyond the %d-day limit, latest allowed date is %s", HorizonDays, max.Format(constant.DateOnlyFormat)),
			offending,
		)
	}

	return nil
}

func truncate(t time.Time) time.Time {
	year, month, day := t.Date()

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
