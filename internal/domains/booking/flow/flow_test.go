package flow_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrirent/internal/domains/booking/flow"
	"agrirent/internal/domains/booking/model"
	"agrirent/shared/clock"
	"agrirent/shared/failure"
)

var flowStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestFlow() *flow.Flow {
	snapshot := model.NewSnapshot([]string{"2026-03-20"}, "", flowStart)

	return flow.New("flow-1", "user-1", "equipment-1", "Tractor", 12.5, snapshot, flowStart)
}

// heldFlow returns a flow with an attached hold and its manual clock.
func heldFlow(t *testing.T) (*flow.Flow, *clock.Manual) {
	t.Helper()

	f := newTestFlow()
	manual := clock.NewManual(flowStart)
	sel := model.NewRangeSelection("2026-03-11", "2026-03-12")

	require.NoError(t, f.SetSelection(sel))

	_, fingerprint, err := f.BeginAvailabilityCheck()
	require.NoError(t, err)
	require.True(t, f.ApplyAvailability(fingerprint, model.Availability{Available: true}))

	_, err = f.BeginSubmit()
	require.NoError(t, err)

	hold := model.PaymentHold{
		BookingID:   "booking-1",
		EquipmentID: "equipment-1",
		TotalAmount: 600,
		Selection:   sel,
		ExpiresAt:   flowStart.Add(10 * time.Minute),
	}
	countdown := flow.NewCountdown(manual, hold.ExpiresAt, time.Second, nil, nil)

	require.NoError(t, f.CompleteSubmit(hold, countdown))

	return f, manual
}

func TestFlow_EstimatedTotal(t *testing.T) {
	f := newTestFlow()

	require.NoError(t, f.SetSelection(model.NewRangeSelection("2026-03-11", "2026-03-12")))

	// 2 days x 24 hours x 12.50.
	assert.InDelta(t, 600.0, f.EstimatedTotal(), 1e-9)
}

func TestFlow_BeginAvailabilityCheck_RequiresSelection(t *testing.T) {
	f := newTestFlow()

	_, _, err := f.BeginAvailabilityCheck()

	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
}

func TestFlow_BeginSubmit(t *testing.T) {
	t.Run("accepts an unchecked selection", func(t *testing.T) {
		f := newTestFlow()

		require.NoError(t, f.SetSelection(model.NewRangeSelection("2026-03-11", "2026-03-12")))

		sel, err := f.BeginSubmit()

		require.NoError(t, err)
		assert.Equal(t, "2026-03-11", sel.StartDate)
		assert.Equal(t, model.StateSubmitting, f.State())
	})

	t.Run("refuses a selection that prices to zero", func(t *testing.T) {
		snapshot := model.NewSnapshot(nil, "", flowStart)
		f := flow.New("flow-1", "user-1", "equipment-1", "Tractor", 0, snapshot, flowStart)

		require.NoError(t, f.SetSelection(model.NewRangeSelection("2026-03-11", "2026-03-12")))

		_, err := f.BeginSubmit()

		require.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
		assert.Equal(t, model.StateDatesChosen, f.State())
	})
}

func TestFlow_ClaimOutcome_ExactlyOnce(t *testing.T) {
	f, _ := heldFlow(t)

	hold, err := f.ClaimOutcome()
	require.NoError(t, err)
	assert.Equal(t, "booking-1", hold.BookingID)

	_, err = f.ClaimOutcome()
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
}

func TestFlow_ClaimOutcome_Concurrent(t *testing.T) {
	f, _ := heldFlow(t)

	const attempts = 16

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.ClaimOutcome()
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one concurrent claim may win")
}

func TestFlow_ReleaseOutcome_AllowsRetry(t *testing.T) {
	f, _ := heldFlow(t)

	_, err := f.ClaimOutcome()
	require.NoError(t, err)

	// The round trip failed; the user may retry while the hold stands.
	f.ReleaseOutcome()

	_, err = f.ClaimOutcome()
	assert.NoError(t, err)
}

func TestFlow_ClaimOutcome_AfterExpiry(t *testing.T) {
	f, manual := heldFlow(t)

	manual.Advance(11 * time.Minute)

	_, err := f.ClaimOutcome()

	require.Error(t, err)
	assert.Equal(t, http.StatusGone, failure.GetCode(err))
}

func TestFlow_MarkExpired(t *testing.T) {
	t.Run("releases the hold and keeps the selection", func(t *testing.T) {
		f, _ := heldFlow(t)

		assert.True(t, f.MarkExpired())
		assert.Nil(t, f.Hold())
		assert.Equal(t, model.StateDatesChosen, f.State())
		assert.False(t, f.Selection().IsEmpty())
	})

	t.Run("is a no-op when an outcome won the race", func(t *testing.T) {
		f, _ := heldFlow(t)

		_, err := f.ClaimOutcome()
		require.NoError(t, err)

		assert.False(t, f.MarkExpired())
		assert.NotNil(t, f.Hold())
	})
}

func TestFlow_OutcomeRecorded(t *testing.T) {
	t.Run("confirmation keeps the hold reference", func(t *testing.T) {
		f, _ := heldFlow(t)

		_, err := f.ClaimOutcome()
		require.NoError(t, err)

		f.OutcomeRecorded(true)

		assert.Equal(t, model.StateHoldCreated, f.State())
	})

	t.Run("failure releases the hold for another try", func(t *testing.T) {
		f, _ := heldFlow(t)

		_, err := f.ClaimOutcome()
		require.NoError(t, err)

		f.OutcomeRecorded(false)

		assert.Nil(t, f.Hold())
		assert.Equal(t, model.StateDatesChosen, f.State())
	})
}

func TestFlow_Close(t *testing.T) {
	t.Run("reports an active hold", func(t *testing.T) {
		f, _ := heldFlow(t)

		assert.True(t, f.Close())
	})

	t.Run("reports nothing after an outcome", func(t *testing.T) {
		f, _ := heldFlow(t)

		_, err := f.ClaimOutcome()
		require.NoError(t, err)
		f.OutcomeRecorded(true)

		assert.False(t, f.Close())
	})

	t.Run("reports nothing without a hold", func(t *testing.T) {
		f := newTestFlow()

		assert.False(t, f.Close())
	})
}

func TestFlow_Remaining(t *testing.T) {
	f, manual := heldFlow(t)

	assert.Equal(t, 10*time.Minute, f.Remaining())

	manual.Advance(9 * time.Minute)
	assert.Equal(t, time.Minute, f.Remaining())
}
