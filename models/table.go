package models

import "time"

// Table is a physical seating unit. OwnerID is a weak reference to the
// user who registered it and is cleared when that user is removed.
type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Number      int       `gorm:"uniqueIndex;not null" json:"number"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	IsAvailable bool      `gorm:"not null;default:true" json:"is_available"`
	OwnerID     *uint     `gorm:"index" json:"owner_id,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
