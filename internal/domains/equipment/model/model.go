package model

import "time"

const (
	EntityName = "equipment"
)

// Equipment is a rentable machine listed on the marketplace. Price is the
// hourly rental rate; bookings always bill full 24-hour days.
type Equipment struct {
	ID          string
	Name        string
	Description string
	Category    string
	Location    string
	Price       float64
	OwnerID     string
	OwnerName   string
	ImageURL    string
	TotalUnits  int
	Available   bool
	CreatedAt   time.Time
}
