package dto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"agrirent/internal/domains/booking/model"
	"agrirent/internal/domains/booking/model/dto"
)

func TestSelectionRequest_ToSelection(t *testing.T) {
	rangeReq := dto.SelectionRequest{
		Mode:      "range",
		StartDate: "2026-03-11",
		EndDate:   "2026-03-13",
	}
	sel := rangeReq.ToSelection()

	assert.Equal(t, model.ModeRange, sel.Mode)
	assert.Equal(t, "2026-03-11", sel.StartDate)
	assert.Equal(t, "2026-03-13", sel.EndDate)

	individualReq := dto.SelectionRequest{
		Mode:          "individual",
		SelectedDates: []string{"2026-03-13", "2026-03-11", "2026-03-11"},
	}
	sel = individualReq.ToSelection()

	assert.Equal(t, model.ModeIndividual, sel.Mode)
	assert.Equal(t, []string{"2026-03-11", "2026-03-13"}, sel.Dates)
}

func TestPaymentData_MaskCard(t *testing.T) {
	data := dto.PaymentData{
		CardNumber: "4242424242424242",
		CardName:   "Asep Sunandar",
	}

	masked := data.MaskCard()

	assert.Equal(t, "**** **** **** 4242", masked.CardNumber)
	assert.Equal(t, "Asep Sunandar", masked.CardName)

	// The original must stay untouched.
	assert.Equal(t, "4242424242424242", data.CardNumber)

	short := dto.PaymentData{CardNumber: "123"}
	assert.Equal(t, "123", short.MaskCard().CardNumber)
}

func TestHoldResponse_FromModel(t *testing.T) {
	hold := model.PaymentHold{
		BookingID: "booking-1",
		ExpiresAt: time.Date(2026, 3, 10, 12, 10, 0, 0, time.UTC),
	}

	var response dto.HoldResponse
	response.FromModel(hold, 9*time.Minute+30*time.Second)

	assert.Equal(t, "booking-1", response.BookingID)
	assert.Equal(t, "2026-03-10T12:10:00Z", response.ExpiresAt)
	assert.Equal(t, int64(570), response.RemainingSeconds)
}

func TestBookingResponse_FromModel(t *testing.T) {
	booking := model.Booking{
		ID:          "booking-1",
		EquipmentID: "equipment-1",
		Status:      model.BookingStatusConfirmed,
		TotalAmount: 1437.5,
		StartDate:   "2026-03-11",
		EndDate:     "2026-03-13",
	}

	var response dto.BookingResponse
	response.FromModel(booking)

	assert.Equal(t, "booking-1", response.ID)
	assert.Equal(t, "1437.50", response.TotalDisplay)
	assert.Empty(t, response.CreatedAt, "a zero CreatedAt must not render")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", dto.FormatAmount(0))
	assert.Equal(t, "600.00", dto.FormatAmount(600))
	assert.Equal(t, "300.00", dto.FormatAmount(12.5*24))
	assert.Equal(t, "1437.50", dto.FormatAmount(1437.5))
}
