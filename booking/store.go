package booking

import (
	"context"
	"time"

	"github.com/yeremiapane/restaurant-reservation/models"
)

// Store persists reservations. Implementations return ErrNotFound for
// missing rows, ErrConstraintViolation when a uniqueness constraint rejects a
// write and wrap every other failure with ErrStoreUnavailable.
type Store interface {
	GetTable(ctx context.Context, tableID uint) (models.Table, error)
	Get(ctx context.Context, id uint) (models.Reservation, error)
	// FindOverlapCandidates returns reservations on tableID starting inside
	// [windowStart, windowEnd], skipping excludeID when it is non-zero.
	FindOverlapCandidates(ctx context.Context, tableID uint, windowStart, windowEnd time.Time, excludeID uint) ([]models.Reservation, error)
	Insert(ctx context.Context, r *models.Reservation) error
	Update(ctx context.Context, r *models.Reservation) error
	Delete(ctx context.Context, id uint) error
	// ListInProgressOrFuture returns reservations starting at or after since,
	// ordered by table number then start time.
	ListInProgressOrFuture(ctx context.Context, since time.Time) ([]models.Reservation, error)
	// ListByOwner returns ownerID's reservations ordered by start time then table.
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Reservation, error)
	ListAll(ctx context.Context) ([]models.Reservation, error)
}
