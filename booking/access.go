package booking

import "github.com/yeremiapane/restaurant-reservation/models"

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID uint
	Roles  models.Role
}

func (a Actor) IsAdmin() bool { return a.Roles.Has(models.RoleAdmin) }

type Action uint8

const (
	ActionRead Action = iota + 1
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Authorize decides whether actor may perform action on r. Admins may do
// anything; everyone else only touches reservations they own. A reservation
// whose owner was detached is reachable by admins only.
func Authorize(actor Actor, r models.Reservation, action Action) bool {
	switch action {
	case ActionRead, ActionUpdate, ActionDelete:
	default:
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return actor.UserID != 0 && r.OwnedBy(actor.UserID)
}
