package booking

import (
	"fmt"

	"github.com/yeremiapane/restaurant-reservation/models"
)

// Allowed moves: draft -> confirmed on first persist, confirmed -> confirmed
// on a validated update, confirmed -> cancelled on delete. Cancelled is
// terminal.
var transitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.StatusDraft:     {models.StatusConfirmed},
	models.StatusConfirmed: {models.StatusConfirmed, models.StatusCancelled},
}

func CanTransition(from, to models.ReservationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves r to the next status or returns ErrInvalidTransition.
func Transition(r *models.Reservation, to models.ReservationStatus) error {
	from := r.Status
	if from == "" {
		from = models.StatusDraft
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	r.Status = to
	return nil
}
