package booking

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"agrirent/infras/otel"
	"agrirent/internal/domains/booking/model/dto"
	"agrirent/internal/domains/booking/service"
	"agrirent/shared/constant"
	"agrirent/shared/failure"
	"agrirent/shared/validator"
	"agrirent/transport/http/response"
)

type Handler struct {
	service service.BookingService
	otel    otel.Otel
}

func New(service service.BookingService, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/flows", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.OpenFlow)
		routerGroup.Get("/{id}", handler.GetFlow)
		routerGroup.Delete("/{id}", handler.CloseFlow)
		routerGroup.Put("/{id}/selection", handler.SetSelection)
		routerGroup.Post("/{id}/availability", handler.CheckAvailability)
		routerGroup.Post("/{id}/snapshot", handler.RefreshSnapshot)
		routerGroup.Post("/{id}/submit", handler.Submit)
		routerGroup.Post("/{id}/confirm-payment", handler.ConfirmPayment)
		routerGroup.Post("/{id}/fail-payment", handler.FailPayment)
		routerGroup.Post("/{id}/cancel-payment", handler.CancelPayment)
	})

	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Get("/mybookings", handler.GetMyBookings)
		routerGroup.Get("/owner", handler.GetOwnerBookings)
		routerGroup.Put("/{id}/accept", handler.AcceptBooking)
		routerGroup.Put("/{id}/reject", handler.RejectBooking)
		routerGroup.Put("/{id}/complete", handler.CompleteBooking)
		routerGroup.Put("/{id}/cancel-dates", handler.CancelDates)
	})
}

// OpenFlow starts or resumes a booking flow for a piece of equipment.
// @Summary Open a booking flow
// @Description Start a booking session for the given equipment. Resumes the existing session if one is already open.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.OpenFlowRequest true "Open Flow Request"
// @Success 200 {object} response.Data[dto.FlowResponse] "Booking flow"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/flows [post]
// @Security BearerAuth
func (handler *Handler) OpenFlow(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".OpenFlow")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	req := dto.OpenFlowRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	flow, err := handler.service.OpenFlow(ctx, userID, req.EquipmentID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to open booking flow")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking flow opened by user " + userID)

	response.WithJSON(writer, http.StatusOK, flow)
}

// GetFlow returns the current state of a booking flow.
// @Summary Get a booking flow
// @Tags Booking
// @Produce json
// @Param id path string true "Flow ID"
// @Success 200 {object} response.Data[dto.FlowResponse] "Booking flow"
// @Failure 404 {object} response.Error
// @Router /v1/flows/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetFlow(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetFlow")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	flow, err := handler.service.GetFlow(ctx, userID, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, flow)
}

// SetSelection replaces the date selection of a flow.
// @Summary Set the date selection
// @Description Pick a date range or individual dates. Any earlier availability verdict is discarded.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Flow ID"
// @Param request body dto.SelectionRequest true "Selection Request"
// @Success 200 {object} response.Data[dto.FlowResponse] "Booking flow"
// @Failure 400 {object} response.Error
// @Failure 422 {object} response.Error "Selection breaks the booking horizon"
// @Router /v1/flows/{id}/selection [put]
// @Security BearerAuth
func (handler *Handler) SetSelection(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetSelection")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	req := dto.SelectionRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	flow, err := handler.service.SetSelection(ctx, userID, chi.URLParam(request, constant.RequestParamID), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set selection")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, flow)
}

// CheckAvailability asks the backend whether the selected dates are free.
// @Summary Check availability
// @Tags Booking
// @Produce json
// @Param id path string true "Flow ID"
// @Success 200 {object} response.Data[dto.FlowResponse] "Booking flow with verdict"
// @Failure 422 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/flows/{id}/availability [post]
// @Security BearerAuth
func (handler *Handler) CheckAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CheckAvailability")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	flow, err := handler.service.CheckAvailability(ctx, userID, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check availability")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, flow)
}

// RefreshSnapshot refetches the unavailable-dates snapshot.
// @Summary Refresh the unavailable-dates snapshot
// @Tags Booking
// @Produce json
// @Param id path string true "Flow ID"
// @Success 200 {object} response.Data[dto.FlowResponse] "Booking flow"
// @Router /v1/flows/{id}/snapshot [post]
// @Security BearerAuth
func (handler *Handler) RefreshSnapshot(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RefreshSnapshot")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	flow, err := handler.service.RefreshSnapshot(ctx, userID, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, flow)
}

// Submit requests a booking and payment hold for the checked selection.
// @Summary Submit the booking request
// @Description Create a payment hold for the selected dates. Requires a positive availability verdict.
// @Tags Booking
// @Produce json
// @Param id path string true "Flow ID"
// @Success 200 {object} response.Data[dto.FlowResponse] "Booking flow with hold"
// @Failure 409 {object} response.Error "Dates were taken in the meantime"
// @Failure 422 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/flows/{id}/submit [post]
// @Security BearerAuth
func (handler *Handler) Submit(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Submit")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	flow, err := handler.service.Submit(ctx, userID, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to submit booking request")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment hold created for user " + userID)

	response.WithJSON(writer, http.StatusOK, flow)
}

// ConfirmPayment records a successful payment for the active hold.
// @Summary Confirm payment
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Flow ID"
// @Param request body dto.ConfirmPaymentRequest true "Confirm Payment Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Confirmed booking"
// @Failure 409 {object} response.Error "An outcome was already recorded"
// @Failure 410 {object} response.Error "The hold has expired"
// @Router /v1/flows/{id}/confirm-payment [post]
// @Security BearerAuth
func (handler *Handler) ConfirmPayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ConfirmPayment")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	req := dto.ConfirmPaymentRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.ConfirmPayment(ctx, userID, chi.URLParam(request, constant.RequestParamID), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to confirm payment")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment confirmed by user " + userID)

	response.WithJSON(writer, http.StatusOK, booking)
}

// FailPayment records a failed payment attempt for the active hold.
// @Summary Report a failed payment
// @Tags Booking
// @Produce json
// @Param id path string true "Flow ID"
// @Success 200 {object} response.Data[dto.FlowResponse] "Booking flow"
// @Failure 409 {object} response.Error
// @Failure 410 {object} response.Error
// @Router /v1/flows/{id}/fail-payment [post]
// @Security BearerAuth
func (handler *Handler) FailPayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".FailPayment")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	flow, err := handler.service.FailPayment(ctx, userID, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to report payment failure")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, flow)
}

// CancelPayment abandons the active hold without attempting payment.
// @Summary Cancel the payment hold
// @Tags Booking
// @Produce json
// @Param id path string true "Flow ID"
// @Success 200 {object} response.Data[dto.FlowResponse] "Booking flow"
// @Failure 409 {object} response.Error
// @Failure 410 {object} response.Error
// @Router /v1/flows/{id}/cancel-payment [post]
// @Security BearerAuth
func (handler *Handler) CancelPayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelPayment")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	flow, err := handler.service.CancelPayment(ctx, userID, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel payment hold")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, flow)
}

// CloseFlow ends a booking session, cancelling any active hold.
// @Summary Close a booking flow
// @Tags Booking
// @Produce json
// @Param id path string true "Flow ID"
// @Success 200 {object} response.Message "Flow closed"
// @Failure 404 {object} response.Error
// @Router /v1/flows/{id} [delete]
// @Security BearerAuth
func (handler *Handler) CloseFlow(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CloseFlow")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	if err := handler.service.CloseFlow(ctx, userID, chi.URLParam(request, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to close booking flow")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Booking flow closed")
}

// GetMyBookings lists the authenticated user's bookings.
// @Summary Get my bookings
// @Tags Booking
// @Produce json
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "Bookings"
// @Failure 401 {object} response.Error
// @Router /v1/bookings/mybookings [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBookings")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	bookings, err := handler.service.GetMyBookings(ctx, userID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get user bookings")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, bookings)
}

// GetOwnerBookings lists bookings on the authenticated owner's equipment.
// @Summary Get bookings for my equipment
// @Tags Booking
// @Produce json
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "Bookings"
// @Failure 401 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/bookings/owner [get]
// @Security BearerAuth
func (handler *Handler) GetOwnerBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetOwnerBookings")
	defer scope.End()

	ownerID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	bookings, err := handler.service.GetOwnerBookings(ctx, ownerID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get owner bookings")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, bookings)
}

// AcceptBooking accepts a pending booking on the owner's equipment.
// @Summary Accept a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Message "Booking accepted"
// @Router /v1/bookings/{id}/accept [put]
// @Security BearerAuth
func (handler *Handler) AcceptBooking(writer http.ResponseWriter, request *http.Request) {
	handler.updateStatus(writer, request, "accept", "Booking accepted")
}

// RejectBooking rejects a pending booking on the owner's equipment.
// @Summary Reject a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Message "Booking rejected"
// @Router /v1/bookings/{id}/reject [put]
// @Security BearerAuth
func (handler *Handler) RejectBooking(writer http.ResponseWriter, request *http.Request) {
	handler.updateStatus(writer, request, "reject", "Booking rejected")
}

// CompleteBooking marks an accepted booking as completed.
// @Summary Complete a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Message "Booking completed"
// @Router /v1/bookings/{id}/complete [put]
// @Security BearerAuth
func (handler *Handler) CompleteBooking(writer http.ResponseWriter, request *http.Request) {
	handler.updateStatus(writer, request, "complete", "Booking completed")
}

func (handler *Handler) updateStatus(writer http.ResponseWriter, request *http.Request, action, message string) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateBookingStatus")
	defer scope.End()

	ownerID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	if err := handler.service.UpdateBookingStatus(ctx, chi.URLParam(request, constant.RequestParamID), action, ownerID); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("action", action).Msg("failed to update booking status")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking status updated by owner " + ownerID)

	response.WithMessage(writer, http.StatusOK, message)
}

// CancelDates cancels a subset of dates on a confirmed booking.
// @Summary Cancel booking dates
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CancelDatesRequest true "Cancel Dates Request"
// @Success 200 {object} response.Data[dto.CancelDatesResponse] "Remaining dates"
// @Failure 400 {object} response.Error
// @Router /v1/bookings/{id}/cancel-dates [put]
// @Security BearerAuth
func (handler *Handler) CancelDates(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelDates")
	defer scope.End()

	userID, ok := userFromContext(ctx)
	if !ok {
		response.WithError(writer, failure.Unauthorized("unauthorized"))

		return
	}

	req := dto.CancelDatesRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	remaining, err := handler.service.CancelDates(ctx, chi.URLParam(request, constant.RequestParamID), userID, req.DatesToCancel)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel booking dates")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, remaining)
}

func userFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(constant.ContextKeyUserID).(string)

	return userID, ok && userID != constant.Empty
}
