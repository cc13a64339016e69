package flow_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrirent/internal/domains/booking/flow"
	"agrirent/internal/domains/booking/model"
	"agrirent/shared/failure"
)

func availableVerdict() model.Availability {
	return model.Availability{Available: true, AvailableUnits: 2, TotalUnits: 3}
}

func checkedDraft(t *testing.T, sel model.Selection) *flow.Draft {
	t.Helper()

	draft := flow.NewDraft()
	require.NoError(t, draft.SetSelection(sel))
	require.True(t, draft.ApplyAvailability(sel.Fingerprint(), availableVerdict()))

	return draft
}

func TestDraft_SetSelection(t *testing.T) {
	sel := model.NewRangeSelection("2026-03-11", "2026-03-13")

	draft := flow.NewDraft()
	assert.Equal(t, model.StateEmpty, draft.State())

	require.NoError(t, draft.SetSelection(sel))
	assert.Equal(t, model.StateDatesChosen, draft.State())
	assert.Equal(t, sel.Fingerprint(), draft.Fingerprint())

	// Clearing the pick returns to empty.
	require.NoError(t, draft.SetSelection(model.Selection{}))
	assert.Equal(t, model.StateEmpty, draft.State())
}

func TestDraft_EditDiscardsVerdict(t *testing.T) {
	first := model.NewRangeSelection("2026-03-11", "2026-03-13")
	second := model.NewRangeSelection("2026-03-12", "2026-03-14")

	draft := checkedDraft(t, first)
	assert.Equal(t, model.StateAvailabilityChecked, draft.State())
	assert.NotNil(t, draft.Availability())

	require.NoError(t, draft.SetSelection(second))

	assert.Equal(t, model.StateDatesChosen, draft.State())
	assert.Nil(t, draft.Availability(), "a verdict must never survive a date edit")
}

func TestDraft_ApplyAvailability_DropsStaleReply(t *testing.T) {
	first := model.NewRangeSelection("2026-03-11", "2026-03-13")
	second := model.NewRangeSelection("2026-03-12", "2026-03-14")

	draft := flow.NewDraft()
	require.NoError(t, draft.SetSelection(first))

	staleFingerprint := draft.Fingerprint()

	// The user edits dates while the check is in flight.
	require.NoError(t, draft.SetSelection(second))

	applied := draft.ApplyAvailability(staleFingerprint, availableVerdict())

	assert.False(t, applied)
	assert.Nil(t, draft.Availability())
	assert.Equal(t, model.StateDatesChosen, draft.State())
}

func TestDraft_ApplyAvailability_SameContentDifferentOrder(t *testing.T) {
	first := model.NewIndividualSelection([]string{"2026-03-12", "2026-03-11"})
	second := model.NewIndividualSelection([]string{"2026-03-11", "2026-03-12"})

	draft := flow.NewDraft()
	require.NoError(t, draft.SetSelection(first))

	// Same date set, so the fingerprint matches and the reply applies.
	assert.True(t, draft.ApplyAvailability(second.Fingerprint(), availableVerdict()))
}

func TestDraft_BeginSubmit(t *testing.T) {
	sel := model.NewRangeSelection("2026-03-11", "2026-03-13")

	t.Run("directly from chosen dates", func(t *testing.T) {
		draft := flow.NewDraft()
		require.NoError(t, draft.SetSelection(sel))

		// The availability check is optional; the backend re-validates
		// at hold creation.
		require.NoError(t, draft.BeginSubmit())
		assert.Equal(t, model.StateSubmitting, draft.State())
	})

	t.Run("without a selection", func(t *testing.T) {
		draft := flow.NewDraft()

		err := draft.BeginSubmit()

		require.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
	})

	t.Run("with a negative verdict", func(t *testing.T) {
		draft := flow.NewDraft()
		require.NoError(t, draft.SetSelection(sel))
		require.True(t, draft.ApplyAvailability(sel.Fingerprint(), model.Availability{
			Available:        false,
			UnavailableDates: []string{"2026-03-12"},
		}))

		err := draft.BeginSubmit()

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
		assert.Equal(t, []string{"2026-03-12"}, failure.GetDates(err))
	})

	t.Run("with a positive verdict", func(t *testing.T) {
		draft := checkedDraft(t, sel)

		require.NoError(t, draft.BeginSubmit())
		assert.Equal(t, model.StateSubmitting, draft.State())

		// No edits and no second submission while in flight.
		assert.Error(t, draft.SetSelection(sel))
		assert.Error(t, draft.BeginSubmit())
	})
}

func TestDraft_RejectSubmit(t *testing.T) {
	sel := model.NewRangeSelection("2026-03-11", "2026-03-13")

	t.Run("with conflicting dates becomes the fresh verdict", func(t *testing.T) {
		draft := checkedDraft(t, sel)
		require.NoError(t, draft.BeginSubmit())

		draft.RejectSubmit([]string{"2026-03-12"})

		assert.Equal(t, model.StateAvailabilityChecked, draft.State())
		require.NotNil(t, draft.Availability())
		assert.False(t, draft.Availability().Available)
		assert.Equal(t, []string{"2026-03-12"}, draft.Availability().UnavailableDates)
	})

	t.Run("without dates requires a recheck", func(t *testing.T) {
		draft := checkedDraft(t, sel)
		require.NoError(t, draft.BeginSubmit())

		draft.RejectSubmit(nil)

		assert.Equal(t, model.StateDatesChosen, draft.State())
		assert.Nil(t, draft.Availability())
	})
}

func TestDraft_HoldLifecycle(t *testing.T) {
	sel := model.NewRangeSelection("2026-03-11", "2026-03-13")
	hold := model.PaymentHold{
		BookingID:   "booking-1",
		EquipmentID: "equipment-1",
		TotalAmount: 1440,
		Selection:   sel,
		ExpiresAt:   time.Date(2026, 3, 10, 12, 10, 0, 0, time.UTC),
	}

	draft := checkedDraft(t, sel)
	require.NoError(t, draft.BeginSubmit())
	require.NoError(t, draft.CompleteSubmit(hold))

	assert.Equal(t, model.StateHoldCreated, draft.State())
	require.NotNil(t, draft.Hold())
	assert.Equal(t, "booking-1", draft.Hold().BookingID)

	// Dates are locked while the hold stands.
	assert.Error(t, draft.SetSelection(sel))

	draft.ReleaseHold()

	assert.Equal(t, model.StateDatesChosen, draft.State())
	assert.Nil(t, draft.Hold())
	assert.Equal(t, sel, draft.Selection(), "the selection survives a released hold")
}
