package service_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"agrirent/config"
	otelMocks "agrirent/infras/otel/mocks"
	"agrirent/internal/domains/booking/event"
	"agrirent/internal/domains/booking/gateway"
	bookingMocks "agrirent/internal/domains/booking/mocks"
	"agrirent/internal/domains/booking/model"
	bookingDTO "agrirent/internal/domains/booking/model/dto"
	"agrirent/internal/domains/booking/service"
	equipmentMocks "agrirent/internal/domains/equipment/mocks"
	equipmentModel "agrirent/internal/domains/equipment/model"
	"agrirent/shared/clock"
	"agrirent/shared/failure"
)

var serviceStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// eventRecorder captures published events synchronously for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *eventRecorder) Publish(_ context.Context, evt event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, evt)
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]string, len(r.events))
	for i, evt := range r.events {
		types[i] = evt.Type
	}

	return types
}

type serviceMocks struct {
	gateway   *bookingMocks.MockBooking
	equipment *equipmentMocks.MockEquipmentService
	events    *eventRecorder
	clock     *clock.Manual
}

func newBookingService(t *testing.T) (service.BookingService, *serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := &serviceMocks{
		gateway:   bookingMocks.NewMockBooking(ctrl),
		equipment: equipmentMocks.NewMockEquipmentService(ctrl),
		events:    &eventRecorder{},
		clock:     clock.NewManual(serviceStart),
	}

	cfg := &config.Config{}
	cfg.Booking.HoldTickSeconds = 1

	svc := service.New(m.gateway, m.equipment, m.events, m.clock, cfg, otelMocks.NewOtel())

	return svc, m
}

func tractor() equipmentModel.Equipment {
	return equipmentModel.Equipment{
		ID:    "equipment-1",
		Name:  "Tractor",
		Price: 12.5,
	}
}

func openTestFlow(t *testing.T, svc service.BookingService, m *serviceMocks) string {
	t.Helper()

	m.equipment.EXPECT().GetEquipmentByID(gomock.Any(), "equipment-1").Return(tractor(), nil)
	m.gateway.EXPECT().UnavailableDates(gomock.Any(), "equipment-1").Return([]string{"2026-03-20"}, nil)

	res, err := svc.OpenFlow(context.Background(), "user-1", "equipment-1")
	require.NoError(t, err)

	return res.ID
}

func chooseDates(t *testing.T, svc service.BookingService, flowID string) {
	t.Helper()

	_, err := svc.SetSelection(context.Background(), "user-1", flowID, bookingDTO.SelectionRequest{
		Mode:      string(model.ModeRange),
		StartDate: "2026-03-11",
		EndDate:   "2026-03-12",
	})
	require.NoError(t, err)
}

func checkAvailable(t *testing.T, svc service.BookingService, m *serviceMocks, flowID string) {
	t.Helper()

	m.gateway.EXPECT().
		CheckAvailability(gomock.Any(), "equipment-1", gomock.Any()).
		Return(model.Availability{Available: true, AvailableUnits: 2, TotalUnits: 3}, nil)

	res, err := svc.CheckAvailability(context.Background(), "user-1", flowID)
	require.NoError(t, err)
	require.Equal(t, string(model.StateAvailabilityChecked), res.State)
}

func submitHold(t *testing.T, svc service.BookingService, m *serviceMocks, flowID string) bookingDTO.FlowResponse {
	t.Helper()

	hold := model.PaymentHold{
		BookingID:   "booking-1",
		EquipmentID: "equipment-1",
		TotalAmount: 600,
		ExpiresAt:   m.clock.Now().Add(10 * time.Minute),
	}
	m.gateway.EXPECT().CreateHold(gomock.Any(), gomock.Any()).Return(hold, nil)

	res, err := svc.Submit(context.Background(), "user-1", flowID)
	require.NoError(t, err)

	return res
}

func TestOpenFlow(t *testing.T) {
	t.Run("opens a flow with the unavailable-dates snapshot", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.equipment.EXPECT().GetEquipmentByID(gomock.Any(), "equipment-1").Return(tractor(), nil)
		m.gateway.EXPECT().UnavailableDates(gomock.Any(), "equipment-1").Return([]string{"2026-03-20", "2026-03-14"}, nil)

		res, err := svc.OpenFlow(context.Background(), "user-1", "equipment-1")

		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, string(model.StateEmpty), res.State)
		assert.Equal(t, "Tractor", res.EquipmentName)
		assert.InDelta(t, 12.5, res.HourlyRate, 1e-9)
		assert.Equal(t, []string{"2026-03-14", "2026-03-20"}, res.Unavailable)
		assert.Empty(t, res.SnapshotError)
	})

	t.Run("opens fail open when the snapshot fetch fails", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.equipment.EXPECT().GetEquipmentByID(gomock.Any(), "equipment-1").Return(tractor(), nil)
		m.gateway.EXPECT().UnavailableDates(gomock.Any(), "equipment-1").Return(nil, failure.Upstream("backend down"))

		res, err := svc.OpenFlow(context.Background(), "user-1", "equipment-1")

		require.NoError(t, err, "a snapshot failure must not block the flow")
		assert.Empty(t, res.Unavailable)
		assert.NotEmpty(t, res.SnapshotError)
	})

	t.Run("fails when the equipment does not exist", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.equipment.EXPECT().
			GetEquipmentByID(gomock.Any(), "missing").
			Return(equipmentModel.Equipment{}, failure.NotFound("equipment"))

		_, err := svc.OpenFlow(context.Background(), "user-1", "missing")

		assert.Error(t, err)
	})

	t.Run("resumes the existing flow for the same user and equipment", func(t *testing.T) {
		svc, m := newBookingService(t)

		flowID := openTestFlow(t, svc, m)

		// The snapshot is refreshed on resume; the equipment is not refetched.
		m.gateway.EXPECT().UnavailableDates(gomock.Any(), "equipment-1").Return([]string{"2026-03-21"}, nil)

		res, err := svc.OpenFlow(context.Background(), "user-1", "equipment-1")

		require.NoError(t, err)
		assert.Equal(t, flowID, res.ID)
		assert.Equal(t, []string{"2026-03-21"}, res.Unavailable)
	})
}

func TestSetSelection(t *testing.T) {
	tests := []struct {
		name     string
		req      bookingDTO.SelectionRequest
		wantErr  bool
		wantCode int
	}{
		{
			name: "range within the horizon",
			req: bookingDTO.SelectionRequest{
				Mode:      string(model.ModeRange),
				StartDate: "2026-03-11",
				EndDate:   "2026-03-13",
			},
		},
		{
			name: "individual dates within the horizon",
			req: bookingDTO.SelectionRequest{
				Mode:          string(model.ModeIndividual),
				SelectedDates: []string{"2026-03-11", "2026-03-14"},
			},
		},
		{
			name: "half-filled range is a bad request",
			req: bookingDTO.SelectionRequest{
				Mode:      string(model.ModeRange),
				StartDate: "2026-03-11",
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "range past the horizon violates policy",
			req: bookingDTO.SelectionRequest{
				Mode:      string(model.ModeRange),
				StartDate: "2026-03-20",
				EndDate:   "2026-03-28",
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newBookingService(t)
			flowID := openTestFlow(t, svc, m)

			res, err := svc.SetSelection(context.Background(), "user-1", flowID, tt.req)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, string(model.StateDatesChosen), res.State)
			assert.Greater(t, res.TotalAmount, 0.0)
		})
	}
}

func TestCheckAvailability(t *testing.T) {
	t.Run("applies the verdict to the checked selection", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)
		chooseDates(t, svc, flowID)

		m.gateway.EXPECT().
			CheckAvailability(gomock.Any(), "equipment-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, sel model.Selection) (model.Availability, error) {
				assert.Equal(t, model.ModeRange, sel.Mode)
				assert.Equal(t, "2026-03-11", sel.StartDate)

				return model.Availability{Available: true, AvailableUnits: 1, TotalUnits: 1}, nil
			})

		res, err := svc.CheckAvailability(context.Background(), "user-1", flowID)

		require.NoError(t, err)
		assert.Equal(t, string(model.StateAvailabilityChecked), res.State)
		require.NotNil(t, res.Availability)
		assert.True(t, res.Availability.Available)
	})

	t.Run("refuses an empty selection", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)

		_, err := svc.CheckAvailability(context.Background(), "user-1", flowID)

		require.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
	})
}

func TestSubmit(t *testing.T) {
	t.Run("creates a payment hold from the checked selection", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)
		chooseDates(t, svc, flowID)
		checkAvailable(t, svc, m, flowID)

		expiresAt := serviceStart.Add(10 * time.Minute)
		m.gateway.EXPECT().
			CreateHold(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in gateway.CreateHoldInput) (model.PaymentHold, error) {
				assert.Equal(t, "user-1", in.UserID)
				assert.Equal(t, "equipment-1", in.EquipmentID)

				// 2 days x 24 hours x 12.50.
				assert.InDelta(t, 600.0, in.TotalAmount, 1e-9)

				return model.PaymentHold{
					BookingID:   "booking-1",
					EquipmentID: in.EquipmentID,
					TotalAmount: in.TotalAmount,
					Selection:   in.Selection,
					ExpiresAt:   expiresAt,
				}, nil
			})

		res, err := svc.Submit(context.Background(), "user-1", flowID)

		require.NoError(t, err)
		assert.Equal(t, string(model.StateHoldCreated), res.State)
		require.NotNil(t, res.Hold)
		assert.Equal(t, "booking-1", res.Hold.BookingID)
		assert.Equal(t, int64(600), res.Hold.RemainingSeconds)
		assert.Equal(t, []string{event.TypeHoldCreated}, m.events.types())
	})

	t.Run("submits chosen dates without an availability check", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)
		chooseDates(t, svc, flowID)

		hold := model.PaymentHold{
			BookingID:   "booking-1",
			EquipmentID: "equipment-1",
			TotalAmount: 600,
			ExpiresAt:   serviceStart.Add(10 * time.Minute),
		}
		m.gateway.EXPECT().CreateHold(gomock.Any(), gomock.Any()).Return(hold, nil)

		res, err := svc.Submit(context.Background(), "user-1", flowID)

		require.NoError(t, err)
		assert.Equal(t, string(model.StateHoldCreated), res.State)
		require.NotNil(t, res.Hold)
	})

	t.Run("refuses a submission that prices to zero", func(t *testing.T) {
		svc, m := newBookingService(t)

		free := tractor()
		free.Price = 0
		m.equipment.EXPECT().GetEquipmentByID(gomock.Any(), "equipment-1").Return(free, nil)
		m.gateway.EXPECT().UnavailableDates(gomock.Any(), "equipment-1").Return(nil, nil)

		opened, err := svc.OpenFlow(context.Background(), "user-1", "equipment-1")
		require.NoError(t, err)

		chooseDates(t, svc, opened.ID)

		_, err = svc.Submit(context.Background(), "user-1", opened.ID)

		require.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
		assert.Empty(t, m.events.types())
	})

	t.Run("a rejection with conflicting dates becomes the fresh verdict", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)
		chooseDates(t, svc, flowID)
		checkAvailable(t, svc, m, flowID)

		m.gateway.EXPECT().
			CreateHold(gomock.Any(), gomock.Any()).
			Return(model.PaymentHold{}, failure.AvailabilityConflict("dates are no longer available", []string{"2026-03-12"}))

		_, err := svc.Submit(context.Background(), "user-1", flowID)

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))

		res, err := svc.GetFlow(context.Background(), "user-1", flowID)
		require.NoError(t, err)
		assert.Equal(t, string(model.StateAvailabilityChecked), res.State)
		require.NotNil(t, res.Availability)
		assert.False(t, res.Availability.Available)
		assert.Equal(t, []string{"2026-03-12"}, res.Availability.UnavailableDates)
	})

	t.Run("a rejection without dates requires a recheck", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)
		chooseDates(t, svc, flowID)
		checkAvailable(t, svc, m, flowID)

		m.gateway.EXPECT().
			CreateHold(gomock.Any(), gomock.Any()).
			Return(model.PaymentHold{}, failure.Upstream("backend down"))

		_, err := svc.Submit(context.Background(), "user-1", flowID)
		require.Error(t, err)

		res, err := svc.GetFlow(context.Background(), "user-1", flowID)
		require.NoError(t, err)
		assert.Equal(t, string(model.StateDatesChosen), res.State)
		assert.Nil(t, res.Availability)
		assert.Empty(t, m.events.types())
	})
}

func TestConfirmPayment(t *testing.T) {
	t.Run("confirms once and retires the flow", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)
		chooseDates(t, svc, flowID)
		checkAvailable(t, svc, m, flowID)
		submitHold(t, svc, m, flowID)

		m.gateway.EXPECT().
			ConfirmPayment(gomock.Any(), "booking-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, in gateway.ConfirmPaymentInput) (model.Booking, error) {
				assert.True(t, strings.HasPrefix(in.TransactionID, "TXN_"))

				data, ok := in.PaymentData.(bookingDTO.PaymentData)
				require.True(t, ok)
				assert.Equal(t, "**** **** **** 4242", data.CardNumber)

				return model.Booking{
					ID:          "booking-1",
					EquipmentID: "equipment-1",
					Status:      model.BookingStatusConfirmed,
					TotalAmount: 600,
				}, nil
			})

		res, err := svc.ConfirmPayment(context.Background(), "user-1", flowID, bookingDTO.ConfirmPaymentRequest{
			PaymentMethod: "card",
			PaymentData:   bookingDTO.PaymentData{CardNumber: "4242424242424242"},
		})

		require.NoError(t, err)
		assert.Equal(t, "booking-1", res.ID)
		assert.Equal(t, model.BookingStatusConfirmed, res.Status)
		assert.Contains(t, m.events.types(), event.TypePaymentConfirmed)

		// The flow is gone once the payment went through.
		_, err = svc.GetFlow(context.Background(), "user-1", flowID)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("releases the claim when the round trip fails", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)
		chooseDates(t, svc, flowID)
		checkAvailable(t, svc, m, flowID)
		submitHold(t, svc, m, flowID)

		m.gateway.EXPECT().
			ConfirmPayment(gomock.Any(), "booking-1", gomock.Any()).
			Return(model.Booking{}, failure.Upstream("backend down"))
		m.gateway.EXPECT().
			ConfirmPayment(gomock.Any(), "booking-1", gomock.Any()).
			Return(model.Booking{ID: "booking-1", Status: model.BookingStatusConfirmed}, nil)

		req := bookingDTO.ConfirmPaymentRequest{PaymentMethod: "card"}

		_, err := svc.ConfirmPayment(context.Background(), "user-1", flowID, req)
		require.Error(t, err)

		// The hold still stands, so the retry can claim the outcome again.
		_, err = svc.ConfirmPayment(context.Background(), "user-1", flowID, req)
		assert.NoError(t, err)
	})

	t.Run("refuses an expired hold locally", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)
		chooseDates(t, svc, flowID)
		checkAvailable(t, svc, m, flowID)
		submitHold(t, svc, m, flowID)

		// The expiry callback may refresh the snapshot in the background.
		m.gateway.EXPECT().UnavailableDates(gomock.Any(), "equipment-1").Return(nil, nil).AnyTimes()

		m.clock.Advance(11 * time.Minute)

		_, err := svc.ConfirmPayment(context.Background(), "user-1", flowID, bookingDTO.ConfirmPaymentRequest{
			PaymentMethod: "card",
		})

		require.Error(t, err)
		assert.Equal(t, http.StatusGone, failure.GetCode(err))
	})
}

func TestFailPayment(t *testing.T) {
	svc, m := newBookingService(t)
	flowID := openTestFlow(t, svc, m)
	chooseDates(t, svc, flowID)
	checkAvailable(t, svc, m, flowID)
	submitHold(t, svc, m, flowID)

	m.gateway.EXPECT().FailPayment(gomock.Any(), "booking-1").Return(nil)
	m.gateway.EXPECT().UnavailableDates(gomock.Any(), "equipment-1").Return([]string{"2026-03-20"}, nil)

	res, err := svc.FailPayment(context.Background(), "user-1", flowID)

	require.NoError(t, err)
	assert.Equal(t, string(model.StateDatesChosen), res.State)
	assert.Nil(t, res.Hold)
	assert.Equal(t, "2026-03-11", res.StartDate, "the selection survives a failed payment")
	assert.Contains(t, m.events.types(), event.TypePaymentFailed)
}

func TestCancelPayment(t *testing.T) {
	svc, m := newBookingService(t)
	flowID := openTestFlow(t, svc, m)
	chooseDates(t, svc, flowID)
	checkAvailable(t, svc, m, flowID)
	submitHold(t, svc, m, flowID)

	m.gateway.EXPECT().CancelPayment(gomock.Any(), "booking-1").Return(nil)
	m.gateway.EXPECT().UnavailableDates(gomock.Any(), "equipment-1").Return(nil, nil)

	res, err := svc.CancelPayment(context.Background(), "user-1", flowID)

	require.NoError(t, err)
	assert.Equal(t, string(model.StateDatesChosen), res.State)
	assert.Nil(t, res.Hold)
	assert.Contains(t, m.events.types(), event.TypeHoldCancelled)
}

func TestCloseFlow(t *testing.T) {
	t.Run("cancels an active hold exactly once", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)
		chooseDates(t, svc, flowID)
		checkAvailable(t, svc, m, flowID)
		submitHold(t, svc, m, flowID)

		m.gateway.EXPECT().CancelPayment(gomock.Any(), "booking-1").Return(nil).Times(1)

		require.NoError(t, svc.CloseFlow(context.Background(), "user-1", flowID))
		assert.Contains(t, m.events.types(), event.TypeHoldCancelled)

		// The flow is gone, so a second close cannot cancel again.
		err := svc.CloseFlow(context.Background(), "user-1", flowID)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("closes a flow without a hold quietly", func(t *testing.T) {
		svc, m := newBookingService(t)
		flowID := openTestFlow(t, svc, m)
		chooseDates(t, svc, flowID)

		require.NoError(t, svc.CloseFlow(context.Background(), "user-1", flowID))
		assert.Empty(t, m.events.types())
	})
}

func TestFlowOwnership(t *testing.T) {
	svc, m := newBookingService(t)
	flowID := openTestFlow(t, svc, m)

	_, err := svc.GetFlow(context.Background(), "user-2", flowID)

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err), "another user's flow must look like it does not exist")
}

func TestShutdown(t *testing.T) {
	svc, m := newBookingService(t)
	flowID := openTestFlow(t, svc, m)
	chooseDates(t, svc, flowID)
	checkAvailable(t, svc, m, flowID)
	submitHold(t, svc, m, flowID)

	m.gateway.EXPECT().CancelPayment(gomock.Any(), "booking-1").Return(nil)

	svc.Shutdown(context.Background())

	_, err := svc.GetFlow(context.Background(), "user-1", flowID)
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
}

func TestGetMyBookings(t *testing.T) {
	svc, m := newBookingService(t)

	m.gateway.EXPECT().ByUser(gomock.Any(), "user-1").Return([]model.Booking{
		{ID: "booking-1", Status: model.BookingStatusConfirmed, TotalAmount: 600},
		{ID: "booking-2", Status: model.BookingStatusCompleted, TotalAmount: 1200},
	}, nil)

	res, err := svc.GetMyBookings(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalData)
	assert.Equal(t, "600.00", res.Bookings[0].TotalDisplay)
}

func TestCancelDates(t *testing.T) {
	svc, m := newBookingService(t)

	m.gateway.EXPECT().
		CancelDates(gomock.Any(), "booking-1", []string{"2026-03-12"}, "user-1").
		Return([]string{"2026-03-11"}, nil)

	res, err := svc.CancelDates(context.Background(), "booking-1", "user-1", []string{"2026-03-12"})

	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-11"}, res.RemainingDates)
	assert.Contains(t, m.events.types(), event.TypeDatesCancelled)
}
