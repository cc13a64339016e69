package failure

import (
	"errors"
	"net/http"
)

// Failure is a wrapper for error messages and codes using standard HTTP response codes.
// Dates carries the offending booking dates for date-related rejections so the
// caller can surface exactly which dates need adjusting.
type Failure struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Dates   []string `json:"dates,omitempty"`
}

var ForbiddenError = &Failure{Code: http.StatusForbidden, Message: "You don't have the required permissions"}
var ResourceRestrictedError = &Failure{Code: http.StatusForbidden, Message: "You don't have permission to access this resource"}

// Error returns the error message.
func (e *Failure) Error() string {
	return e.Message
}

// BadRequest returns a new Failure with code for bad requests.
func BadRequest(err error) error {
	if err != nil {
		return &Failure{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	return nil
}

// BadRequestFromString returns a new Failure with code for bad requests with message set from string.
func BadRequestFromString(msg string) error {
	return &Failure{
		Code:    http.StatusBadRequest,
		Message: msg,
	}
}

// Unauthorized returns a new Failure with code for unauthorized requests.
func Unauthorized(msg string) error {
	return &Failure{
		Code:    http.StatusUnauthorized,
		Message: msg,
	}
}

// InternalError returns a new Failure with code for internal error and message derived from an error interface.
func InternalError(err error) error {
	if err != nil {
		return &Failure{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		}
	}

	return nil
}

// NotFound returns a new Failure with code for entity not found.
func NotFound(entityName string) error {
	return &Failure{
		Code:    http.StatusNotFound,
		Message: entityName,
	}
}

// Conflict returns a new Failure with code for conflict situations.
func Conflict(message string) error {
	return &Failure{
		Code:    http.StatusConflict,
		Message: message,
	}
}

func Forbidden(msg string) error {
	return &Failure{
		Code:    http.StatusForbidden,
		Message: msg,
	}
}

// PolicyViolation reports a selection that breaks the booking-horizon policy.
// Caught client-side before any network call.
func PolicyViolation(msg string, dates []string) error {
	return &Failure{
		Code:    http.StatusUnprocessableEntity,
		Message: msg,
		Dates:   dates,
	}
}

// AvailabilityConflict reports dates the backend says are no longer free.
// Expected and recoverable: the user adjusts the selection.
func AvailabilityConflict(msg string, dates []string) error {
	return &Failure{
		Code:    http.StatusConflict,
		Message: msg,
		Dates:   dates,
	}
}

// HoldExpired reports a payment hold whose countdown reached zero. Terminal
// for the flow that owned the hold.
func HoldExpired(msg string) error {
	return &Failure{
		Code:    http.StatusGone,
		Message: msg,
	}
}

// Upstream reports a failed round trip to the marketplace backend, keeping
// the server-provided message when there is one.
func Upstream(msg string) error {
	if msg == "" {
		msg = "marketplace backend is unavailable"
	}

	return &Failure{
		Code:    http.StatusBadGateway,
		Message: msg,
	}
}

// InvalidHoldReference reports a payment action issued without a valid hold.
// This is a programming-invariant failure and should never be reachable
// through the state machine.
func InvalidHoldReference(msg string) error {
	return &Failure{
		Code:    http.StatusInternalServerError,
		Message: msg,
	}
}

// GetCode returns the error code of an error interface.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// GetDates returns the offending dates attached to an error, if any.
func GetDates(err error) []string {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Dates
	}

	return nil
}

// Is reports whether err carries the given HTTP code.
func Is(err error, code int) bool {
	return GetCode(err) == code
}
