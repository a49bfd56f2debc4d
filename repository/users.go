package repository

import (
	"context"

	"github.com/yeremiapane/restaurant-reservation/booking"
	"github.com/yeremiapane/restaurant-reservation/models"
	"gorm.io/gorm"
)

// DetachOwner clears every weak owner reference pointing at userID. Tables
// and reservations survive their owner.
func DetachOwner(tx *gorm.DB, userID uint) error {
	if err := tx.Model(&models.Reservation{}).Where("owner_id = ?", userID).Update("owner_id", nil).Error; err != nil {
		return translate(err)
	}
	if err := tx.Model(&models.Table{}).Where("owner_id = ?", userID).Update("owner_id", nil).Error; err != nil {
		return translate(err)
	}
	return nil
}

// DeleteUser detaches the user's tables and reservations and removes the
// account in one transaction.
func DeleteUser(ctx context.Context, db *gorm.DB, userID uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := DetachOwner(tx, userID); err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, userID)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return booking.ErrNotFound
		}
		return nil
	})
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Reservation{},
	)
}
