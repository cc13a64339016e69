package dto

import (
	"fmt"
	"time"

	"agrirent/internal/domains/booking/model"
	"agrirent/shared/constant"
	"agrirent/shared/timezone"
)

type OpenFlowRequest struct {
	EquipmentID string `json:"equipment_id" validate:"required"`
}

type SelectionRequest struct {
	Mode          string   `json:"mode"           validate:"required,oneof=range individual"`
	StartDate     string   `json:"start_date"     validate:"omitempty,isodate"`
	EndDate       string   `json:"end_date"       validate:"omitempty,isodate"`
	SelectedDates []string `json:"selected_dates" validate:"omitempty,dive,isodate"`
}

func (r *SelectionRequest) ToSelection() model.Selection {
	if r.Mode == string(model.ModeRange) {
		return model.NewRangeSelection(r.StartDate, r.EndDate)
	}

	return model.NewIndividualSelection(r.SelectedDates)
}

type PaymentData struct {
	CardNumber string `json:"card_number" validate:"omitempty,min=12,max=19"`
	ExpiryDate string `json:"expiry_date" validate:"omitempty"`
	CardName   string `json:"card_name"   validate:"omitempty,max=100"`
}

// MaskCard keeps only the last four digits, mirroring what the payment form
// would submit.
func (p PaymentData) MaskCard() PaymentData {
	masked := p

	if len(p.CardNumber) >= 4 {
		masked.CardNumber = "**** **** **** " + p.CardNumber[len(p.CardNumber)-4:]
	}

	return masked
}

type ConfirmPaymentRequest struct {
	PaymentMethod string      `json:"payment_method" validate:"required,oneof=card upi netbanking"`
	PaymentData   PaymentData `json:"payment_data"`
}

type CancelDatesRequest struct {
	DatesToCancel []string `json:"dates_to_cancel" validate:"required,min=1,dive,isodate"`
}

type AvailabilityResponse struct {
	Available        bool     `json:"available"`
	AvailableUnits   int      `json:"available_units"`
	TotalUnits       int      `json:"total_units"`
	UnavailableDates []string `json:"unavailable_dates,omitempty"`
}

func (r *AvailabilityResponse) FromModel(av model.Availability) {
	r.Available = av.Available
	r.AvailableUnits = av.AvailableUnits
	r.TotalUnits = av.TotalUnits
	r.UnavailableDates = av.UnavailableDates
}

type HoldResponse struct {
	BookingID        string `json:"booking_id"`
	ExpiresAt        string `json:"expires_at"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

func (r *HoldResponse) FromModel(hold model.PaymentHold, remaining time.Duration) {
	r.BookingID = hold.BookingID
	r.ExpiresAt = hold.ExpiresAt.Format(time.RFC3339)
	r.RemainingSeconds = int64(remaining.Seconds())
}

type FlowResponse struct {
	ID            string                `json:"id"`
	EquipmentID   string                `json:"equipment_id"`
	EquipmentName string                `json:"equipment_name"`
	HourlyRate    float64               `json:"hourly_rate"`
	State         string                `json:"state"`
	Mode          string                `json:"mode,omitempty"`
	StartDate     string                `json:"start_date,omitempty"`
	EndDate       string                `json:"end_date,omitempty"`
	SelectedDates []string              `json:"selected_dates,omitempty"`
	TotalAmount   float64               `json:"total_amount"`
	TotalDisplay  string                `json:"total_display"`
	Unavailable   []string              `json:"unavailable_dates"`
	SnapshotError string                `json:"snapshot_error,omitempty"`
	Availability  *AvailabilityResponse `json:"availability,omitempty"`
	Hold          *HoldResponse         `json:"hold,omitempty"`
}

type BookingResponse struct {
	ID            string   `json:"id"`
	EquipmentID   string   `json:"equipment_id"`
	EquipmentName string   `json:"equipment_name,omitempty"`
	Status        string   `json:"status"`
	TotalAmount   float64  `json:"total_amount"`
	TotalDisplay  string   `json:"total_display"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	SelectedDates []string `json:"selected_dates,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

func (r *BookingResponse) FromModel(booking model.Booking) {
	r.ID = booking.ID
	r.EquipmentID = booking.EquipmentID
	r.EquipmentName = booking.EquipmentName
	r.Status = booking.Status
	r.TotalAmount = booking.TotalAmount
	r.TotalDisplay = FormatAmount(booking.TotalAmount)
	r.StartDate = booking.StartDate
	r.EndDate = booking.EndDate
	r.SelectedDates = booking.SelectedDates

	if !booking.CreatedAt.IsZero() {
		r.CreatedAt = timezone.Format(booking.CreatedAt, constant.DateOnlyFormat)
	}
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking) {
	r.TotalData = len(models)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

type CancelDatesResponse struct {
	RemainingDates []string `json:"remaining_dates"`
}

// FormatAmount renders an amount for display with two decimals. Amounts are
// never rounded anywhere else.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
