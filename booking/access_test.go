package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/restaurant-reservation/models"
)

func TestAuthorize(t *testing.T) {
	ownerID := uint(1)
	owned := models.Reservation{ID: 10, OwnerID: &ownerID}
	orphan := models.Reservation{ID: 11}

	tests := []struct {
		name   string
		actor  Actor
		r      models.Reservation
		action Action
		want   bool
	}{
		{"owner reads", Actor{UserID: 1}, owned, ActionRead, true},
		{"owner updates", Actor{UserID: 1}, owned, ActionUpdate, true},
		{"owner deletes", Actor{UserID: 1}, owned, ActionDelete, true},
		{"stranger reads", Actor{UserID: 2}, owned, ActionRead, false},
		{"stranger deletes", Actor{UserID: 2}, owned, ActionDelete, false},
		{"staff is not admin", Actor{UserID: 2, Roles: models.RoleStaff}, owned, ActionUpdate, false},
		{"admin deletes", Actor{UserID: 2, Roles: models.RoleAdmin}, owned, ActionDelete, true},
		{"admin with extra roles", Actor{UserID: 2, Roles: models.RoleAdmin | models.RoleStaff}, owned, ActionUpdate, true},
		{"orphan for user", Actor{UserID: 1}, orphan, ActionRead, false},
		{"orphan for anonymous", Actor{}, orphan, ActionRead, false},
		{"orphan for admin", Actor{UserID: 3, Roles: models.RoleAdmin}, orphan, ActionDelete, true},
		{"unknown action", Actor{UserID: 1}, owned, Action(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.actor, tt.r, tt.action))
			// pure function of ownership and role
			assert.Equal(t, tt.want, Authorize(tt.actor, tt.r, tt.action))
		})
	}
}
