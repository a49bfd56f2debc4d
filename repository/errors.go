package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yeremiapane/restaurant-reservation/booking"
	"gorm.io/gorm"
)

// translate maps gorm errors onto the booking error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return booking.ErrNotFound
	case IsDuplicateKey(err):
		return booking.ErrConstraintViolation
	default:
		return fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}
}

// isUniqueViolation catches drivers that do not implement gorm's error
// translator.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}

// IsDuplicateKey reports whether err came from a unique index.
func IsDuplicateKey(err error) bool {
	return err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err))
}
