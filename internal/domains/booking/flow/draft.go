// Package flow owns the in-progress booking session: the draft state
// machine, the payment-hold countdown and the per-session Flow that ties
// them together.
package flow

import (
	"fmt"

	"agrirent/internal/domains/booking/model"
	"agrirent/shared/failure"
)

// Draft is the booking draft state machine. It is not safe for concurrent
// use; Flow serializes access to it.
//
// Transitions:
//
//	empty -> dates_chosen -> [availability_checked] -> submitting -> hold_created
//
// The availability_checked step is optional on the way to submitting.
// Editing dates always falls back to dates_chosen and drops any availability
// verdict, so a verdict can never outlive the selection it was made for.
type Draft struct {
	state        model.DraftState
	selection    model.Selection
	fingerprint  string
	availability *model.Availability
	hold         *model.PaymentHold
}

func NewDraft() *Draft {
	return &Draft{state: model.StateEmpty}
}

func (d *Draft) State() model.DraftState {
	return d.state
}

func (d *Draft) Selection() model.Selection {
	return d.selection
}

// Fingerprint identifies the current selection. Captured before an
// availability round trip and matched again when the verdict lands.
func (d *Draft) Fingerprint() string {
	return d.fingerprint
}

func (d *Draft) Availability() *model.Availability {
	return d.availability
}

func (d *Draft) Hold() *model.PaymentHold {
	return d.hold
}

// SetSelection replaces the date pick. Refused while a submission is in
// flight or a hold exists; otherwise the draft falls back to dates_chosen
// (or empty) and any availability verdict is discarded.
func (d *Draft) SetSelection(sel model.Selection) error {
	switch d.state {
	case model.StateSubmitting:
		return failure.Conflict("booking request is in flight, dates cannot be changed")
	case model.StateHoldCreated:
		return failure.Conflict("a payment hold is active, cancel it before changing dates")
	}

	d.availability = nil

	if sel.IsEmpty() {
		d.state = model.StateEmpty
		d.selection = model.Selection{}
		d.fingerprint = ""

		return nil
	}

	d.state = model.StateDatesChosen
	d.selection = sel
	d.fingerprint = sel.Fingerprint()

	return nil
}

// ApplyAvailability records a verdict if it still matches the current
// selection. A reply for a superseded selection is reported as stale and
// dropped.
func (d *Draft) ApplyAvailability(fingerprint string, av model.Availability) bool {
	if d.state != model.StateDatesChosen && d.state != model.StateAvailabilityChecked {
		return false
	}

	if fingerprint != d.fingerprint {
		return false
	}

	d.availability = &av
	d.state = model.StateAvailabilityChecked

	return true
}

// BeginSubmit moves the draft into the in-flight submission state. The
// availability check is optional: a chosen selection may be submitted
// directly, and the backend re-validates at hold creation. Only a stored
// negative verdict blocks the submission.
func (d *Draft) BeginSubmit() error {
	switch d.state {
	case model.StateEmpty:
		return failure.PolicyViolation("no dates selected", nil)
	case model.StateSubmitting:
		return failure.Conflict("a booking request is already in flight")
	case model.StateHoldCreated:
		return failure.Conflict("a payment hold already exists for this booking")
	}

	if d.availability != nil && !d.availability.Available {
		return failure.AvailabilityConflict("selected dates are not available", d.availability.UnavailableDates)
	}

	d.state = model.StateSubmitting

	return nil
}

// CompleteSubmit attaches the hold the backend created.
func (d *Draft) CompleteSubmit(hold model.PaymentHold) error {
	if d.state != model.StateSubmitting {
		return failure.InvalidHoldReference(fmt.Sprintf("cannot attach a hold in state %q", d.state))
	}

	d.state = model.StateHoldCreated
	d.hold = &hold

	return nil
}

// RejectSubmit rolls back an in-flight submission. When the backend named
// conflicting dates, they become the fresh verdict so the user sees exactly
// what to adjust; otherwise the draft returns to dates_chosen for a recheck.
func (d *Draft) RejectSubmit(unavailable []string) {
	if d.state != model.StateSubmitting {
		return
	}

	if len(unavailable) > 0 {
		d.availability = &model.Availability{
			Available:        false,
			UnavailableDates: unavailable,
		}
		d.state = model.StateAvailabilityChecked

		return
	}

	d.availability = nil
	d.state = model.StateDatesChosen
}

// ReleaseHold drops the hold, keeping the selection so the user can recheck
// and retry. Used after expiry and after a failed or cancelled payment.
func (d *Draft) ReleaseHold() {
	if d.state != model.StateHoldCreated {
		return
	}

	d.hold = nil
	d.availability = nil
	d.state = model.StateDatesChosen
}
