package model

import (
	"sort"
	"strings"
	"time"
)

const (
	EntityName = "booking"
)

// BookingMode selects how dates are picked: a contiguous range or an
// arbitrary set of individual days.
type BookingMode string

const (
	ModeRange      BookingMode = "range"
	ModeIndividual BookingMode = "individual"
)

// DraftState is the tagged state of an in-progress booking draft. Keeping it
// explicit makes illegal combinations (e.g. a surviving "available" verdict
// after a date edit) unrepresentable.
type DraftState string

const (
	StateEmpty               DraftState = "empty"
	StateDatesChosen         DraftState = "dates_chosen"
	StateAvailabilityChecked DraftState = "availability_checked"
	StateSubmitting          DraftState = "submitting"
	StateHoldCreated         DraftState = "hold_created"
)

// Selection is a user's date pick in either mode. Dates are ISO-8601 date
// strings (YYYY-MM-DD); individual dates are kept sorted and unique.
type Selection struct {
	Mode      BookingMode
	StartDate string
	EndDate   string
	Dates     []string
}

// NewIndividualSelection normalizes an individual-dates pick: duplicates
// removed, dates sorted, so the same set always yields the same selection.
func NewIndividualSelection(dates []string) Selection {
	seen := make(map[string]struct{}, len(dates))
	unique := make([]string, 0, len(dates))

	for _, date := range dates {
		if _, ok := seen[date]; ok {
			continue
		}

		seen[date] = struct{}{}
		unique = append(unique, date)
	}

	sort.Strings(unique)

	return Selection{
		Mode:  ModeIndividual,
		Dates: unique,
	}
}

func NewRangeSelection(startDate, endDate string) Selection {
	return Selection{
		Mode:      ModeRange,
		StartDate: startDate,
		EndDate:   endDate,
	}
}

// IsEmpty reports whether no dates have been picked yet.
func (s Selection) IsEmpty() bool {
	switch s.Mode {
	case ModeRange:
		return s.StartDate == "" || s.EndDate == ""
	case ModeIndividual:
		return len(s.Dates) == 0
	default:
		return true
	}
}

// Fingerprint identifies a selection's content. Availability responses are
// matched against it so a late reply for a superseded selection is discarded
// rather than applied.
func (s Selection) Fingerprint() string {
	if s.Mode == ModeRange {
		return string(ModeRange) + "|" + s.StartDate + ".." + s.EndDate
	}

	return string(ModeIndividual) + "|" + strings.Join(s.Dates, ",")
}

// Availability is the backend's verdict for one selection, stored verbatim.
type Availability struct {
	Available        bool
	AvailableUnits   int
	TotalUnits       int
	UnavailableDates []string
}

// Snapshot is the client's best-effort view of dates already booked or held
// for one piece of equipment. A date missing from it is only a rendering
// hint, never a promise.
type Snapshot struct {
	Unavailable map[string]struct{}
	FetchError  string
	FetchedAt   time.Time
}

func NewSnapshot(dates []string, fetchErr string, fetchedAt time.Time) Snapshot {
	unavailable := make(map[string]struct{}, len(dates))
	for _, date := range dates {
		unavailable[date] = struct{}{}
	}

	return Snapshot{
		Unavailable: unavailable,
		FetchError:  fetchErr,
		FetchedAt:   fetchedAt,
	}
}

// IsUnavailable answers "is this date known taken" against the snapshot.
func (s Snapshot) IsUnavailable(date string) bool {
	_, ok := s.Unavailable[date]

	return ok
}

func (s Snapshot) UnavailableDates() []string {
	dates := make([]string, 0, len(s.Unavailable))
	for date := range s.Unavailable {
		dates = append(dates, date)
	}

	sort.Strings(dates)

	return dates
}

// PaymentHold is the backend's time-boxed reservation pending payment. The
// client holds a read-only copy; ExpiresAt is the single source of truth for
// expiry.
type PaymentHold struct {
	BookingID   string
	EquipmentID string
	TotalAmount float64
	Selection   Selection
	ExpiresAt   time.Time
}

// Booking is a confirmed or historical booking as reported by the backend.
type Booking struct {
	ID            string
	EquipmentID   string
	EquipmentName string
	UserID        string
	OwnerID       string
	Status        string
	TotalAmount   float64
	StartDate     string
	EndDate       string
	SelectedDates []string
	CreatedAt     time.Time
}

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusAccepted  = "accepted"
	BookingStatusRejected  = "rejected"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)
