// Package gateway talks to the marketplace backend's booking API. It plays
// the repository role for the booking domain, with REST round trips instead
// of SQL.
package gateway

//go:generate go run go.uber.org/mock/mockgen -source=./gateway.go -destination=../mocks/gateway_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"agrirent/infras/marketplace"
	"agrirent/infras/otel"
	"agrirent/internal/domains/booking/model"
	"agrirent/shared/constant"
)

type CreateHoldInput struct {
	UserID      string
	EquipmentID string
	TotalAmount float64
	Selection   model.Selection
}

type ConfirmPaymentInput struct {
	PaymentMethod string
	TransactionID string
	PaymentData   any
}

type Booking interface {
	UnavailableDates(ctx context.Context, equipmentID string) ([]string, error)
	CheckAvailability(ctx context.Context, equipmentID string, sel model.Selection) (model.Availability, error)
	CreateHold(ctx context.Context, in CreateHoldInput) (model.PaymentHold, error)
	ConfirmPayment(ctx context.Context, bookingID string, in ConfirmPaymentInput) (model.Booking, error)
	FailPayment(ctx context.Context, bookingID string) error
	CancelPayment(ctx context.Context, bookingID string) error
	CancelDates(ctx context.Context, bookingID string, dates []string, userID string) ([]string, error)
	ByUser(ctx context.Context, userID string) ([]model.Booking, error)
	ByOwner(ctx context.Context, ownerID string) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, bookingID, action, ownerID string) error
}

type gatewayImpl struct {
	backend marketplace.Client
	otel    otel.Otel
}

func New(backend marketplace.Client, ot otel.Otel) Booking {
	return &gatewayImpl{
		backend: backend,
		otel:    ot,
	}
}

// equipmentRef unmarshals the backend's equipment reference, which is either
// a bare id or a populated object depending on the endpoint.
type equipmentRef struct {
	ID   string
	Name string
}

func (e *equipmentRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.ID)
	}

	var populated struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}

	if err := json.Unmarshal(data, &populated); err != nil {
		return fmt.Errorf("failed to decode equipment reference: %w", err)
	}

	e.ID = populated.ID
	e.Name = populated.Name

	return nil
}

type wireBooking struct {
	ID                string       `json:"_id"`
	EquipmentID       equipmentRef `json:"equipmentId"`
	UserID            string       `json:"userId"`
	OwnerID           string       `json:"ownerId"`
	Status            string       `json:"status"`
	TotalAmount       float64      `json:"totalAmount"`
	StartDate         string       `json:"startDate"`
	EndDate           string       `json:"endDate"`
	SelectedDates     []string     `json:"selectedDates"`
	PaymentHoldExpiry string       `json:"paymentHoldExpiry"`
	CreatedAt         string       `json:"createdAt"`
}

func (w wireBooking) toModel() model.Booking {
	booking := model.Booking{
		ID:            w.ID,
		EquipmentID:   w.EquipmentID.ID,
		EquipmentName: w.EquipmentID.Name,
		UserID:        w.UserID,
		OwnerID:       w.OwnerID,
		Status:        w.Status,
		TotalAmount:   w.TotalAmount,
		StartDate:     w.StartDate,
		EndDate:       w.EndDate,
		SelectedDates: w.SelectedDates,
	}

	if w.CreatedAt != constant.Empty {
		if createdAt, err := time.Parse(time.RFC3339, w.CreatedAt); err == nil {
			booking.CreatedAt = createdAt
		}
	}

	return booking
}

func (w wireBooking) toSelection() model.Selection {
	if len(w.SelectedDates) > 0 {
		return model.NewIndividualSelection(w.SelectedDates)
	}

	return model.NewRangeSelection(w.StartDate, w.EndDate)
}

func (g *gatewayImpl) UnavailableDates(ctx context.Context, equipmentID string) (res []string, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".UnavailableDates")
	defer scope.End()
	defer scope.TraceIfError(err)

	var envelope struct {
		UnavailableDates []string `json:"unavailableDates"`
	}

	path := fmt.Sprintf("/equipment/%s/unavailable-dates", url.PathEscape(equipmentID))
	if err = g.backend.Get(ctx, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("failed to fetch unavailable dates: %w", err)
	}

	return envelope.UnavailableDates, nil
}

func (g *gatewayImpl) CheckAvailability(ctx context.Context, equipmentID string, sel model.Selection) (res model.Availability, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".CheckAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := url.Values{}

	if sel.Mode == model.ModeIndividual {
		query.Set("selectedDates", strings.Join(sel.Dates, ","))
	} else {
		query.Set("startDate", sel.StartDate)
		query.Set("endDate", sel.EndDate)
	}

	var envelope struct {
		Available        bool     `json:"available"`
		AvailableUnits   int      `json:"availableUnits"`
		TotalUnits       int      `json:"totalUnits"`
		UnavailableDates []string `json:"unavailableDates"`
	}

	path := fmt.Sprintf("/bookings/equipment/%s/availability", url.PathEscape(equipmentID))
	if err = g.backend.Get(ctx, path, query, &envelope); err != nil {
		return res, fmt.Errorf("failed to check availability: %w", err)
	}

	return model.Availability{
		Available:        envelope.Available,
		AvailableUnits:   envelope.AvailableUnits,
		TotalUnits:       envelope.TotalUnits,
		UnavailableDates: envelope.UnavailableDates,
	}, nil
}

func (g *gatewayImpl) CreateHold(ctx context.Context, in CreateHoldInput) (res model.PaymentHold, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".CreateHold")
	defer scope.End()
	defer scope.TraceIfError(err)

	body := map[string]any{
		"userId":      in.UserID,
		"equipmentId": in.EquipmentID,
		"totalAmount": in.TotalAmount,
	}

	if in.Selection.Mode == model.ModeIndividual {
		body["selectedDates"] = in.Selection.Dates
	} else {
		body["startDate"] = in.Selection.StartDate
		body["endDate"] = in.Selection.EndDate
	}

	var envelope struct {
		Booking wireBooking `json:"booking"`
	}

	if err = g.backend.Post(ctx, "/bookings/payment-hold", body, &envelope); err != nil {
		return res, fmt.Errorf("failed to create payment hold: %w", err)
	}

	expiresAt, err := time.Parse(time.RFC3339, envelope.Booking.PaymentHoldExpiry)
	if err != nil {
		log.Error().Err(err).Str("expiry", envelope.Booking.PaymentHoldExpiry).Msg("backend returned an unparseable hold expiry")

		return res, fmt.Errorf("unparseable hold expiry %q: %w", envelope.Booking.PaymentHoldExpiry, err)
	}

	return model.PaymentHold{
		BookingID:   envelope.Booking.ID,
		EquipmentID: envelope.Booking.EquipmentID.ID,
		TotalAmount: envelope.Booking.TotalAmount,
		Selection:   envelope.Booking.toSelection(),
		ExpiresAt:   expiresAt,
	}, nil
}

func (g *gatewayImpl) ConfirmPayment(ctx context.Context, bookingID string, in ConfirmPaymentInput) (res model.Booking, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".ConfirmPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	body := map[string]any{
		"paymentMethod": in.PaymentMethod,
		"transactionId": in.TransactionID,
		"paymentData":   in.PaymentData,
	}

	var envelope struct {
		Booking wireBooking `json:"booking"`
	}

	path := fmt.Sprintf("/bookings/%s/confirm-payment", url.PathEscape(bookingID))
	if err = g.backend.Put(ctx, path, body, &envelope); err != nil {
		return res, fmt.Errorf("failed to confirm payment: %w", err)
	}

	return envelope.Booking.toModel(), nil
}

func (g *gatewayImpl) FailPayment(ctx context.Context, bookingID string) (err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".FailPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	path := fmt.Sprintf("/bookings/%s/fail-payment", url.PathEscape(bookingID))
	if err = g.backend.Put(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("failed to report payment failure: %w", err)
	}

	return nil
}

func (g *gatewayImpl) CancelPayment(ctx context.Context, bookingID string) (err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".CancelPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	path := fmt.Sprintf("/bookings/%s/cancel-payment", url.PathEscape(bookingID))
	if err = g.backend.Put(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("failed to cancel payment hold: %w", err)
	}

	return nil
}

func (g *gatewayImpl) CancelDates(ctx context.Context, bookingID string, dates []string, userID string) (res []string, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".CancelDates")
	defer scope.End()
	defer scope.TraceIfError(err)

	body := map[string]any{
		"datesToCancel": dates,
		"userId":        userID,
	}

	var envelope struct {
		RemainingDates []string `json:"remainingDates"`
	}

	path := fmt.Sprintf("/bookings/%s/cancel-dates", url.PathEscape(bookingID))
	if err = g.backend.Put(ctx, path, body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to cancel booking dates: %w", err)
	}

	return envelope.RemainingDates, nil
}

func (g *gatewayImpl) ByUser(ctx context.Context, userID string) (res []model.Booking, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".ByUser")
	defer scope.End()
	defer scope.TraceIfError(err)

	return g.list(ctx, fmt.Sprintf("/bookings/user/%s", url.PathEscape(userID)))
}

func (g *gatewayImpl) ByOwner(ctx context.Context, ownerID string) (res []model.Booking, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".ByOwner")
	defer scope.End()
	defer scope.TraceIfError(err)

	return g.list(ctx, fmt.Sprintf("/bookings/owner/%s", url.PathEscape(ownerID)))
}

// UpdateStatus drives the owner actions accept, reject and complete.
func (g *gatewayImpl) UpdateStatus(ctx context.Context, bookingID, action, ownerID string) (err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	body := map[string]any{
		"ownerId": ownerID,
	}

	path := fmt.Sprintf("/bookings/%s/%s", url.PathEscape(bookingID), url.PathEscape(action))
	if err = g.backend.Put(ctx, path, body, nil); err != nil {
		return fmt.Errorf("failed to %s booking: %w", action, err)
	}

	return nil
}

func (g *gatewayImpl) list(ctx context.Context, path string) ([]model.Booking, error) {
	var envelope struct {
		Bookings []wireBooking `json:"bookings"`
	}

	if err := g.backend.Get(ctx, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]model.Booking, len(envelope.Bookings))
	for i, wire := range envelope.Bookings {
		bookings[i] = wire.toModel()
	}

	return bookings, nil
}
