package models

import (
	"strings"
	"time"
)

// Role is a bitset of capability tags attached to a user.
type Role uint8

const (
	RoleAdmin Role = 1 << iota
	RoleStaff
)

// RoleNone is the role set of an ordinary customer account.
const RoleNone Role = 0

var roleNames = []struct {
	role Role
	name string
}{
	{RoleAdmin, "admin"},
	{RoleStaff, "staff"},
}

// Has reports whether every bit of other is set in r.
func (r Role) Has(other Role) bool {
	return other != 0 && r&other == other
}

func (r Role) With(other Role) Role    { return r | other }
func (r Role) Without(other Role) Role { return r &^ other }

// Names lists the tags set in r, in declaration order.
func (r Role) Names() []string {
	names := make([]string, 0, len(roleNames))
	for _, rn := range roleNames {
		if r.Has(rn.role) {
			names = append(names, rn.name)
		}
	}
	return names
}

func (r Role) String() string {
	return strings.Join(r.Names(), ",")
}

// ParseRole maps a tag name to its bit. The second result is false for
// unknown names.
func ParseRole(name string) (Role, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, rn := range roleNames {
		if rn.name == name {
			return rn.role, true
		}
	}
	return RoleNone, false
}

type User struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Email       string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName   string  `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName    string  `gorm:"type:varchar(50);not null" json:"last_name"`
	PhoneNumber *string `gorm:"type:varchar(35)" json:"phone_number,omitempty"`
	Avatar      *string `gorm:"type:varchar(255)" json:"avatar,omitempty"`
	Password    string  `gorm:"type:varchar(255);not null" json:"-"`
	Roles       Role    `gorm:"not null;default:0" json:"roles"`
	IsActive    bool    `gorm:"not null;default:false" json:"is_active"`
	// VerificationToken is single use and reset to NULL once the email
	// address is confirmed.
	VerificationToken *string   `gorm:"type:varchar(100);uniqueIndex" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
