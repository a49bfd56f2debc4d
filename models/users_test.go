package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleBitset(t *testing.T) {
	r := RoleNone.With(RoleStaff)
	assert.True(t, r.Has(RoleStaff))
	assert.False(t, r.Has(RoleAdmin))
	assert.False(t, r.Has(RoleNone), "the empty set is never held")

	r = r.With(RoleAdmin)
	assert.True(t, r.Has(RoleAdmin|RoleStaff))
	assert.Equal(t, []string{"admin", "staff"}, r.Names())
	assert.Equal(t, "admin,staff", r.String())

	r = r.Without(RoleAdmin)
	assert.Equal(t, "staff", r.String())
	assert.Empty(t, RoleNone.Names())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("chef")
	assert.False(t, ok)
}

func TestReservationOwnedBy(t *testing.T) {
	owner := uint(3)
	r := Reservation{OwnerID: &owner}
	assert.True(t, r.OwnedBy(3))
	assert.False(t, r.OwnedBy(4))
	assert.False(t, Reservation{}.OwnedBy(0))
}
