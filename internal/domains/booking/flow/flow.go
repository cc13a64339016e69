package flow

import (
	"sync"
	"time"

	"agrirent/internal/domains/booking/model"
	"agrirent/internal/domains/booking/policy"
	"agrirent/shared/failure"
)

// Flow is one user's booking session for one piece of equipment. It
// serializes every mutation of the draft behind a single mutex, so handler
// goroutines, the countdown and late availability replies never interleave
// on the state machine.
type Flow struct {
	ID            string
	UserID        string
	EquipmentID   string
	EquipmentName string
	HourlyRate    float64
	CreatedAt     time.Time

	mu           sync.Mutex
	draft        *Draft
	snapshot     model.Snapshot
	countdown    *Countdown
	outcomeTaken bool
	expired      bool
}

func New(id, userID, equipmentID, equipmentName string, hourlyRate float64, snapshot model.Snapshot, createdAt time.Time) *Flow {
	return &Flow{
		ID:            id,
		UserID:        userID,
		EquipmentID:   equipmentID,
		EquipmentName: equipmentName,
		HourlyRate:    hourlyRate,
		CreatedAt:     createdAt,
		draft:         NewDraft(),
		snapshot:      snapshot,
	}
}

func (f *Flow) State() model.DraftState {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.draft.State()
}

func (f *Flow) Selection() model.Selection {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.draft.Selection()
}

func (f *Flow) Availability() *model.Availability {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.draft.Availability() == nil {
		return nil
	}

	av := *f.draft.Availability()

	return &av
}

func (f *Flow) Snapshot() model.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.snapshot
}

// SetSnapshot replaces the unavailable-dates snapshot, e.g. after a refresh
// or a hold expiry.
func (f *Flow) SetSnapshot(snapshot model.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.snapshot = snapshot
}

// EstimatedTotal prices the current selection.
func (f *Flow) EstimatedTotal() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return policy.Estimate(f.draft.Selection(), f.HourlyRate)
}

func (f *Flow) SetSelection(sel model.Selection) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.draft.SetSelection(sel) //nolint:wrapcheck
}

// BeginAvailabilityCheck snapshots the selection and its fingerprint for a
// round trip to the backend. The fingerprint must be handed back to
// ApplyAvailability so a reply for superseded dates is dropped.
func (f *Flow) BeginAvailabilityCheck() (model.Selection, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.draft.Selection().IsEmpty() {
		return model.Selection{}, "", failure.PolicyViolation("no dates selected", nil)
	}

	return f.draft.Selection(), f.draft.Fingerprint(), nil
}

func (f *Flow) ApplyAvailability(fingerprint string, av model.Availability) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.draft.ApplyAvailability(fingerprint, av)
}

// BeginSubmit locks the draft for the booking request and returns the
// selection to submit. A selection that prices to zero cannot become a hold.
func (f *Flow) BeginSubmit() (model.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sel := f.draft.Selection()
	if !sel.IsEmpty() && policy.Estimate(sel, f.HourlyRate) <= 0 {
		return model.Selection{}, failure.PolicyViolation("booking total must be positive", nil)
	}

	if err := f.draft.BeginSubmit(); err != nil {
		return model.Selection{}, err //nolint:wrapcheck
	}

	return sel, nil
}

// CompleteSubmit attaches the created hold and its countdown. Any previous
// countdown is stopped first.
func (f *Flow) CompleteSubmit(hold model.PaymentHold, countdown *Countdown) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.draft.CompleteSubmit(hold); err != nil {
		return err //nolint:wrapcheck
	}

	if f.countdown != nil {
		f.countdown.Stop()
	}

	f.countdown = countdown
	f.outcomeTaken = false
	f.expired = false

	return nil
}

func (f *Flow) RejectSubmit(unavailable []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.draft.RejectSubmit(unavailable)
}

// Hold returns a copy of the active hold, or nil.
func (f *Flow) Hold() *model.PaymentHold {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.draft.Hold() == nil {
		return nil
	}

	hold := *f.draft.Hold()

	return &hold
}

// Remaining returns the time left on the active hold's countdown.
func (f *Flow) Remaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.countdown == nil {
		return 0
	}

	return f.countdown.Remaining()
}

// ClaimOutcome reserves the one payment outcome the hold allows. It fails
// when no hold exists, when an outcome was already recorded, or when the
// hold has expired. The caller must follow up with OutcomeRecorded or
// ReleaseOutcome.
func (f *Flow) ClaimOutcome() (model.PaymentHold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.draft.Hold() == nil {
		return model.PaymentHold{}, failure.InvalidHoldReference("no payment hold to act on")
	}

	if f.outcomeTaken {
		return model.PaymentHold{}, failure.Conflict("a payment outcome has already been recorded for this hold")
	}

	if f.expired || f.countdown == nil || f.countdown.Remaining() <= 0 {
		return model.PaymentHold{}, failure.HoldExpired("payment hold has expired, please pick your dates again")
	}

	f.outcomeTaken = true

	return *f.draft.Hold(), nil
}

// ReleaseOutcome gives the claim back after a failed round trip so the user
// can retry while the hold still stands.
func (f *Flow) ReleaseOutcome() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.outcomeTaken = false
}

// OutcomeRecorded finalizes the claimed outcome. The countdown stops; for
// anything but a confirmation the hold is released and the selection kept
// for another try.
func (f *Flow) OutcomeRecorded(confirmed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.countdown != nil {
		f.countdown.Stop()
	}

	if !confirmed {
		f.draft.ReleaseHold()
	}
}

// MarkExpired handles the countdown firing. It reports false when a payment
// outcome beat the deadline, in which case expiry is a no-op.
func (f *Flow) MarkExpired() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.outcomeTaken {
		return false
	}

	f.expired = true
	f.draft.ReleaseHold()

	return true
}

// Close stops the countdown and reports whether a hold was still active,
// so the caller knows to cancel it with the backend.
func (f *Flow) Close() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.countdown != nil {
		f.countdown.Stop()
	}

	hadHold := f.draft.Hold() != nil && !f.outcomeTaken && !f.expired

	return hadHold
}
