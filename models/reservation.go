package models

import "time"

type ReservationStatus string

const (
	StatusDraft     ReservationStatus = "draft"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation books one table starting at ReservedAt. The occupied window
// is [ReservedAt, ReservedAt+service duration).
type Reservation struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	TableID         uint              `gorm:"not null;uniqueIndex:idx_reservation_table_slot" json:"table_id"`
	Table           Table             `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"table"`
	ReservedAt      time.Time         `gorm:"not null;index;uniqueIndex:idx_reservation_table_slot" json:"reserved_at"`
	CustomerName    string            `gorm:"type:varchar(100);not null" json:"customer_name"`
	CustomerContact string            `gorm:"type:varchar(100);not null" json:"customer_contact"`
	OwnerID         *uint             `gorm:"index" json:"owner_id,omitempty"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'confirmed'" json:"status"`
	CreatedAt       time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null" json:"updated_at"`
}

// OwnedBy reports whether the reservation's owner reference points at userID.
func (r Reservation) OwnedBy(userID uint) bool {
	return r.OwnerID != nil && *r.OwnerID == userID
}
