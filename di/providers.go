package di

import (
	bookingService "agrirent/internal/domains/booking/service"
	"agrirent/transport/http"
)

// provideCleanup hooks the booking service's shutdown into the HTTP
// server's cleanup phase so active payment holds are cancelled before exit.
func provideCleanup(booking bookingService.BookingService) http.CleanupFunc {
	return booking.Shutdown
}
