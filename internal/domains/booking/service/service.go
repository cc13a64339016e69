package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"agrirent/config"
	"agrirent/infras/otel"
	"agrirent/internal/domains/booking/event"
	"agrirent/internal/domains/booking/flow"
	"agrirent/internal/domains/booking/gateway"
	"agrirent/internal/domains/booking/model"
	bookingDTO "agrirent/internal/domains/booking/model/dto"
	"agrirent/internal/domains/booking/policy"
	equipmentService "agrirent/internal/domains/equipment/service"
	"agrirent/shared"
	"agrirent/shared/clock"
	"agrirent/shared/constant"
	"agrirent/shared/failure"
	"agrirent/shared/timezone"
)

const snapshotErrorMessage = "unavailable dates could not be loaded, shown dates may already be booked"

// BookingService drives the booking workflow: one flow per user and
// equipment, from date selection through availability, payment hold and
// payment outcome.
type BookingService interface {
	OpenFlow(ctx context.Context, userID, equipmentID string) (bookingDTO.FlowResponse, error)
	GetFlow(ctx context.Context, userID, flowID string) (bookingDTO.FlowResponse, error)
	SetSelection(ctx context.Context, userID, flowID string, req bookingDTO.SelectionRequest) (bookingDTO.FlowResponse, error)
	CheckAvailability(ctx context.Context, userID, flowID string) (bookingDTO.FlowResponse, error)
	RefreshSnapshot(ctx context.Context, userID, flowID string) (bookingDTO.FlowResponse, error)
	Submit(ctx context.Context, userID, flowID string) (bookingDTO.FlowResponse, error)
	ConfirmPayment(ctx context.Context, userID, flowID string, req bookingDTO.ConfirmPaymentRequest) (bookingDTO.BookingResponse, error)
	FailPayment(ctx context.Context, userID, flowID string) (bookingDTO.FlowResponse, error)
	CancelPayment(ctx context.Context, userID, flowID string) (bookingDTO.FlowResponse, error)
	CloseFlow(ctx context.Context, userID, flowID string) error
	UnavailableDates(ctx context.Context, equipmentID string) ([]string, error)
	GetMyBookings(ctx context.Context, userID string) (bookingDTO.GetBookingsResponse, error)
	GetOwnerBookings(ctx context.Context, ownerID string) (bookingDTO.GetBookingsResponse, error)
	UpdateBookingStatus(ctx context.Context, bookingID, action, ownerID string) error
	CancelDates(ctx context.Context, bookingID, userID string, dates []string) (bookingDTO.CancelDatesResponse, error)
	Shutdown(ctx context.Context)
}

type serviceImpl struct {
	gateway   gateway.Booking
	equipment equipmentService.EquipmentService
	events    event.Publisher
	clock     clock.Clock
	config    *config.Config
	otel      otel.Otel

	mu      sync.RWMutex
	flows   map[string]*flow.Flow
	byOwner map[string]string
}

func New(gw gateway.Booking, eq equipmentService.EquipmentService, events event.Publisher, clk clock.Clock, cfg *config.Config, ot otel.Otel) BookingService {
	return &serviceImpl{
		gateway:   gw,
		equipment: eq,
		events:    events,
		clock:     clk,
		config:    cfg,
		otel:      ot,
		flows:     make(map[string]*flow.Flow),
		byOwner:   make(map[string]string),
	}
}

// OpenFlow starts (or resumes) the booking flow for one user and one piece
// of equipment. The unavailable-dates snapshot is fetched best effort: if
// the backend is down the flow still opens, with the fetch error surfaced.
func (s *serviceImpl) OpenFlow(ctx context.Context, userID, equipmentID string) (res bookingDTO.FlowResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".OpenFlow")
	defer scope.End()
	defer scope.TraceIfError(err)

	if f := s.flowByOwner(userID, equipmentID); f != nil {
		f.SetSnapshot(s.fetchSnapshot(ctx, equipmentID))

		return s.flowResponse(f), nil
	}

	equipment, err := s.equipment.GetEquipmentByID(ctx, equipmentID)
	if err != nil {
		return res, fmt.Errorf("failed to open booking flow: %w", err)
	}

	snapshot := s.fetchSnapshot(ctx, equipmentID)
	f := flow.New(uuid.NewString(), userID, equipment.ID, equipment.Name, equipment.Price, snapshot, s.clock.Now())

	s.mu.Lock()
	if existingID, ok := s.byOwner[ownerKey(userID, equipmentID)]; ok {
		f = s.flows[existingID]
	} else {
		s.flows[f.ID] = f
		s.byOwner[ownerKey(userID, equipmentID)] = f.ID
	}
	s.mu.Unlock()

	return s.flowResponse(f), nil
}

func (s *serviceImpl) GetFlow(ctx context.Context, userID, flowID string) (res bookingDTO.FlowResponse, err error) {
	_, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetFlow")
	defer scope.End()
	defer scope.TraceIfError(err)

	f, err := s.flowFor(userID, flowID)
	if err != nil {
		return res, err
	}

	return s.flowResponse(f), nil
}

// SetSelection validates the pick against the booking horizon and stores it.
// Any previous availability verdict is discarded with the old dates.
func (s *serviceImpl) SetSelection(ctx context.Context, userID, flowID string, req bookingDTO.SelectionRequest) (res bookingDTO.FlowResponse, err error) {
	_, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SetSelection")
	defer scope.End()
	defer scope.TraceIfError(err)

	f, err := s.flowFor(userID, flowID)
	if err != nil {
		return res, err
	}

	if req.Mode == string(model.ModeRange) && (req.StartDate == constant.Empty) != (req.EndDate == constant.Empty) {
		return res, failure.BadRequestFromString("both start_date and end_date are required for a range booking")
	}

	selection := req.ToSelection()

	if !selection.IsEmpty() {
		if err = policy.ValidateSelection(selection, s.today()); err != nil {
			return res, err
		}
	}

	if err = f.SetSelection(selection); err != nil {
		return res, err
	}

	return s.flowResponse(f), nil
}

// CheckAvailability asks the backend whether the current selection is free.
// The verdict is applied only if the selection is still the one it was asked
// for; a reply landing after a date edit is dropped.
func (s *serviceImpl) CheckAvailability(ctx context.Context, userID, flowID string) (res bookingDTO.FlowResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	f, err := s.flowFor(userID, flowID)
	if err != nil {
		return res, err
	}

	selection, fingerprint, err := f.BeginAvailabilityCheck()
	if err != nil {
		return res, err
	}

	availability, err := s.gateway.CheckAvailability(ctx, f.EquipmentID, selection)
	if err != nil {
		return res, err
	}

	if !f.ApplyAvailability(fingerprint, availability) {
		log.Debug().Str("flow_id", f.ID).Msg("availability verdict arrived for a superseded selection, dropped")
	}

	return s.flowResponse(f), nil
}

// RefreshSnapshot refetches the unavailable-dates snapshot, again fail open.
func (s *serviceImpl) RefreshSnapshot(ctx context.Context, userID, flowID string) (res bookingDTO.FlowResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RefreshSnapshot")
	defer scope.End()
	defer scope.TraceIfError(err)

	f, err := s.flowFor(userID, flowID)
	if err != nil {
		return res, err
	}

	f.SetSnapshot(s.fetchSnapshot(ctx, f.EquipmentID))

	return s.flowResponse(f), nil
}

// Submit turns the current selection into a payment hold. An availability
// check is not required first; only a stored negative verdict blocks the
// request, and the backend re-validates at hold creation. On a backend
// rejection the draft recovers: conflicting dates become the fresh verdict,
// otherwise the selection goes back to needing a recheck.
func (s *serviceImpl) Submit(ctx context.Context, userID, flowID string) (res bookingDTO.FlowResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Submit")
	defer scope.End()
	defer scope.TraceIfError(err)

	f, err := s.flowFor(userID, flowID)
	if err != nil {
		return res, err
	}

	selection, err := f.BeginSubmit()
	if err != nil {
		return res, err
	}

	total := policy.Estimate(selection, f.HourlyRate)

	hold, err := s.gateway.CreateHold(ctx, gateway.CreateHoldInput{
		UserID:      userID,
		EquipmentID: f.EquipmentID,
		TotalAmount: total,
		Selection:   selection,
	})
	if err != nil {
		f.RejectSubmit(failure.GetDates(err))

		return res, err
	}

	countdown := s.newCountdown(ctx, f, hold)

	if err = f.CompleteSubmit(hold, countdown); err != nil {
		return res, err
	}

	countdown.Start()

	s.events.Publish(ctx, event.Event{
		Type:        event.TypeHoldCreated,
		BookingID:   hold.BookingID,
		EquipmentID: f.EquipmentID,
		UserID:      userID,
		TotalAmount: hold.TotalAmount,
		OccurredAt:  s.clock.Now(),
	})

	return s.flowResponse(f), nil
}

// ConfirmPayment records the success outcome for the active hold. Exactly
// one outcome is allowed per hold; an expired hold is refused locally
// without a round trip.
func (s *serviceImpl) ConfirmPayment(ctx context.Context, userID, flowID string, req bookingDTO.ConfirmPaymentRequest) (res bookingDTO.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ConfirmPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	f, err := s.flowFor(userID, flowID)
	if err != nil {
		return res, err
	}

	hold, err := f.ClaimOutcome()
	if err != nil {
		return res, err
	}

	booking, err := s.gateway.ConfirmPayment(ctx, hold.BookingID, gateway.ConfirmPaymentInput{
		PaymentMethod: req.PaymentMethod,
		TransactionID: "TXN_" + uuid.NewString(),
		PaymentData:   req.PaymentData.MaskCard(),
	})
	if err != nil {
		f.ReleaseOutcome()

		return res, err
	}

	f.OutcomeRecorded(true)
	s.removeFlow(f)

	s.events.Publish(ctx, event.Event{
		Type:        event.TypePaymentConfirmed,
		BookingID:   booking.ID,
		EquipmentID: f.EquipmentID,
		UserID:      userID,
		TotalAmount: booking.TotalAmount,
		OccurredAt:  s.clock.Now(),
	})

	res.FromModel(booking)

	return res, nil
}

// FailPayment records the failure outcome. The hold is released on the
// backend; the selection is kept so the user can check and try again.
func (s *serviceImpl) FailPayment(ctx context.Context, userID, flowID string) (res bookingDTO.FlowResponse, err error) {
	return s.releaseOutcome(ctx, userID, flowID, "FailPayment", event.TypePaymentFailed, s.gateway.FailPayment)
}

// CancelPayment abandons the hold deliberately, before any payment attempt.
func (s *serviceImpl) CancelPayment(ctx context.Context, userID, flowID string) (res bookingDTO.FlowResponse, err error) {
	return s.releaseOutcome(ctx, userID, flowID, "CancelPayment", event.TypeHoldCancelled, s.gateway.CancelPayment)
}

func (s *serviceImpl) releaseOutcome(ctx context.Context, userID, flowID, operation, eventType string, report func(context.Context, string) error) (res bookingDTO.FlowResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+"."+operation)
	defer scope.End()
	defer scope.TraceIfError(err)

	f, err := s.flowFor(userID, flowID)
	if err != nil {
		return res, err
	}

	hold, err := f.ClaimOutcome()
	if err != nil {
		return res, err
	}

	if err = report(ctx, hold.BookingID); err != nil {
		f.ReleaseOutcome()

		return res, err
	}

	f.OutcomeRecorded(false)
	f.SetSnapshot(s.fetchSnapshot(ctx, f.EquipmentID))

	s.events.Publish(ctx, event.Event{
		Type:        eventType,
		BookingID:   hold.BookingID,
		EquipmentID: f.EquipmentID,
		UserID:      userID,
		OccurredAt:  s.clock.Now(),
	})

	return s.flowResponse(f), nil
}

// CloseFlow ends the session. An active hold is cancelled with the backend
// exactly once; a flow that already saw its outcome just goes away.
func (s *serviceImpl) CloseFlow(ctx context.Context, userID, flowID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CloseFlow")
	defer scope.End()
	defer scope.TraceIfError(err)

	f, err := s.flowFor(userID, flowID)
	if err != nil {
		return err
	}

	s.removeFlow(f)

	hold := f.Hold()
	if f.Close() && hold != nil {
		if cancelErr := s.gateway.CancelPayment(ctx, hold.BookingID); cancelErr != nil {
			log.Warn().Err(cancelErr).Str("booking_id", hold.BookingID).Msg("failed to cancel hold while closing flow")
		} else {
			s.events.Publish(ctx, event.Event{
				Type:        event.TypeHoldCancelled,
				BookingID:   hold.BookingID,
				EquipmentID: f.EquipmentID,
				UserID:      userID,
				OccurredAt:  s.clock.Now(),
			})
		}
	}

	return nil
}

func (s *serviceImpl) UnavailableDates(ctx context.Context, equipmentID string) (res []string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UnavailableDates")
	defer scope.End()
	defer scope.TraceIfError(err)

	res, err = s.gateway.UnavailableDates(ctx, equipmentID)
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (s *serviceImpl) GetMyBookings(ctx context.Context, userID string) (res bookingDTO.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetMyBookings")
	defer scope.End()
	defer scope.TraceIfError(err)

	bookings, err := s.gateway.ByUser(ctx, userID)
	if err != nil {
		return res, err
	}

	res.FromModels(bookings)

	return res, nil
}

func (s *serviceImpl) GetOwnerBookings(ctx context.Context, ownerID string) (res bookingDTO.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetOwnerBookings")
	defer scope.End()
	defer scope.TraceIfError(err)

	bookings, err := s.gateway.ByOwner(ctx, ownerID)
	if err != nil {
		return res, err
	}

	res.FromModels(bookings)

	return res, nil
}

func (s *serviceImpl) UpdateBookingStatus(ctx context.Context, bookingID, action, ownerID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateBookingStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.gateway.UpdateStatus(ctx, bookingID, action, ownerID)
}

func (s *serviceImpl) CancelDates(ctx context.Context, bookingID, userID string, dates []string) (res bookingDTO.CancelDatesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CancelDates")
	defer scope.End()
	defer scope.TraceIfError(err)

	remaining, err := s.gateway.CancelDates(ctx, bookingID, dates, userID)
	if err != nil {
		return res, err
	}

	s.events.Publish(ctx, event.Event{
		Type:       event.TypeDatesCancelled,
		BookingID:  bookingID,
		UserID:     userID,
		OccurredAt: s.clock.Now(),
	})

	res.RemainingDates = remaining

	return res, nil
}

// Shutdown cancels every hold still active so no equipment stays blocked by
// a gateway restart.
func (s *serviceImpl) Shutdown(ctx context.Context) {
	s.mu.Lock()
	flows := make([]*flow.Flow, 0, len(s.flows))
	for _, f := range s.flows {
		flows = append(flows, f)
	}

	s.flows = make(map[string]*flow.Flow)
	s.byOwner = make(map[string]string)
	s.mu.Unlock()

	for _, f := range flows {
		hold := f.Hold()
		if f.Close() && hold != nil {
			if err := s.gateway.CancelPayment(ctx, hold.BookingID); err != nil {
				log.Warn().Err(err).Str("booking_id", hold.BookingID).Msg("failed to cancel hold during shutdown")
			}
		}
	}
}

// today anchors horizon math on the application timezone's civil date.
func (s *serviceImpl) today() time.Time {
	return timezone.ToAppTime(s.clock.Now())
}

func (s *serviceImpl) fetchSnapshot(ctx context.Context, equipmentID string) model.Snapshot {
	dates, err := s.gateway.UnavailableDates(ctx, equipmentID)
	if err != nil {
		log.Warn().Err(err).Str("equipment_id", equipmentID).Msg("unavailable-dates fetch failed, flow continues without a snapshot")

		return model.NewSnapshot(nil, snapshotErrorMessage, s.clock.Now())
	}

	return model.NewSnapshot(dates, constant.Empty, s.clock.Now())
}

func (s *serviceImpl) newCountdown(ctx context.Context, f *flow.Flow, hold model.PaymentHold) *flow.Countdown {
	interval := time.Duration(s.config.Booking.HoldTickSeconds) * time.Second
	expiryCtx := context.WithoutCancel(ctx)

	return flow.NewCountdown(s.clock, hold.ExpiresAt, interval, nil, func() {
		if !f.MarkExpired() {
			return
		}

		log.Info().Str("booking_id", hold.BookingID).Str("flow_id", f.ID).Msg("payment hold expired")

		f.SetSnapshot(s.fetchSnapshot(expiryCtx, f.EquipmentID))

		s.events.Publish(expiryCtx, event.Event{
			Type:        event.TypeHoldExpired,
			BookingID:   hold.BookingID,
			EquipmentID: f.EquipmentID,
			UserID:      f.UserID,
			OccurredAt:  s.clock.Now(),
		})
	})
}

func (s *serviceImpl) flowByOwner(userID, equipmentID string) *flow.Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flowID, ok := s.byOwner[ownerKey(userID, equipmentID)]
	if !ok {
		return nil
	}

	return s.flows[flowID]
}

func (s *serviceImpl) flowFor(userID, flowID string) (*flow.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flows[flowID]
	if !ok || f.UserID != userID {
		return nil, failure.NotFound("booking flow not found")
	}

	return f, nil
}

func (s *serviceImpl) removeFlow(f *flow.Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.flows, f.ID)
	delete(s.byOwner, ownerKey(f.UserID, f.EquipmentID))
}

func ownerKey(userID, equipmentID string) string {
	return shared.BuildCacheKey(userID, equipmentID)
}

func (s *serviceImpl) flowResponse(f *flow.Flow) bookingDTO.FlowResponse {
	snapshot := f.Snapshot()
	selection := f.Selection()

	res := bookingDTO.FlowResponse{
		ID:            f.ID,
		EquipmentID:   f.EquipmentID,
		EquipmentName: f.EquipmentName,
		HourlyRate:    f.HourlyRate,
		State:         string(f.State()),
		Unavailable:   snapshot.UnavailableDates(),
		SnapshotError: snapshot.FetchError,
	}

	if !selection.IsEmpty() {
		res.Mode = string(selection.Mode)
		res.StartDate = selection.StartDate
		res.EndDate = selection.EndDate
		res.SelectedDates = selection.Dates
	}

	res.TotalAmount = f.EstimatedTotal()
	res.TotalDisplay = bookingDTO.FormatAmount(res.TotalAmount)

	if availability := f.Availability(); availability != nil {
		res.Availability = &bookingDTO.AvailabilityResponse{}
		res.Availability.FromModel(*availability)
	}

	if hold := f.Hold(); hold != nil {
		res.Hold = &bookingDTO.HoldResponse{}
		res.Hold.FromModel(*hold, f.Remaining())
		res.TotalAmount = hold.TotalAmount
		res.TotalDisplay = bookingDTO.FormatAmount(hold.TotalAmount)
	}

	return res
}
