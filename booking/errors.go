package booking

import "errors"

// Reject reasons. These are expected outcomes and are returned, never
// panicked; match them with errors.Is.
var (
	ErrPastDate       = errors.New("reservation time is in the past")
	ErrSlotTaken      = errors.New("table is already booked for this time")
	ErrUnauthorized   = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid reservation request")
)

var (
	// ErrStoreUnavailable wraps infrastructure failures coming out of a Store.
	ErrStoreUnavailable = errors.New("reservation store unavailable")
	// ErrConstraintViolation is returned by a Store when its uniqueness
	// constraint rejects a write.
	ErrConstraintViolation = errors.New("reservation store constraint violation")
	ErrInvalidTransition   = errors.New("invalid reservation state transition")
)

// Reason returns the reject-reason name for err, "Accepted" for nil and
// "Failure" for anything unclassified.
func Reason(err error) string {
	switch {
	case err == nil:
		return "Accepted"
	case errors.Is(err, ErrPastDate):
		return "PastDate"
	case errors.Is(err, ErrSlotTaken), errors.Is(err, ErrConstraintViolation):
		return "SlotTaken"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidRequest):
		return "InvalidRequest"
	case errors.Is(err, ErrStoreUnavailable):
		return "StoreUnavailable"
	default:
		return "Failure"
	}
}
