package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/restaurant-reservation/booking"
	"github.com/yeremiapane/restaurant-reservation/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReservationStore implements booking.Store on top of gorm. The unique
// index on (table_id, reserved_at) backs up the policy's table lock when
// several processes share one database.
type ReservationStore struct {
	DB *gorm.DB
}

var _ booking.Store = (*ReservationStore)(nil)

func NewReservationStore(db *gorm.DB) *ReservationStore {
	return &ReservationStore{DB: db}
}

var (
	byTableNumber = clause.OrderByColumn{Column: clause.Column{Table: "Table", Name: "number"}}
	byReservedAt  = clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "reserved_at"}}
)

func (s *ReservationStore) GetTable(ctx context.Context, tableID uint) (models.Table, error) {
	var table models.Table
	if err := s.DB.WithContext(ctx).First(&table, tableID).Error; err != nil {
		return models.Table{}, translate(err)
	}
	return table, nil
}

func (s *ReservationStore) Get(ctx context.Context, id uint) (models.Reservation, error) {
	var r models.Reservation
	if err := s.DB.WithContext(ctx).Preload("Table").First(&r, id).Error; err != nil {
		return models.Reservation{}, translate(err)
	}
	return r, nil
}

func (s *ReservationStore) FindOverlapCandidates(ctx context.Context, tableID uint, windowStart, windowEnd time.Time, excludeID uint) ([]models.Reservation, error) {
	q := s.DB.WithContext(ctx).
		Where("table_id = ? AND reserved_at BETWEEN ? AND ?", tableID, windowStart.UTC(), windowEnd.UTC())
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var out []models.Reservation
	if err := q.Order("reserved_at").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *ReservationStore) Insert(ctx context.Context, r *models.Reservation) error {
	r.ReservedAt = r.ReservedAt.UTC()
	return translate(s.DB.WithContext(ctx).Omit(clause.Associations).Create(r).Error)
}

func (s *ReservationStore) Update(ctx context.Context, r *models.Reservation) error {
	r.ReservedAt = r.ReservedAt.UTC()
	r.UpdatedAt = time.Now().UTC()
	res := s.DB.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", r.ID).
		Updates(map[string]interface{}{
			"table_id":         r.TableID,
			"reserved_at":      r.ReservedAt,
			"customer_name":    r.CustomerName,
			"customer_contact": r.CustomerContact,
			"status":           r.Status,
			"updated_at":       r.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows for a no-op update.
		var n int64
		if err := s.DB.WithContext(ctx).Model(&models.Reservation{}).Where("id = ?", r.ID).Count(&n).Error; err != nil {
			return translate(err)
		}
		if n == 0 {
			return booking.ErrNotFound
		}
	}
	return nil
}

func (s *ReservationStore) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Reservation{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (s *ReservationStore) ListInProgressOrFuture(ctx context.Context, since time.Time) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.DB.WithContext(ctx).
		Joins("Table").
		Where("reservations.reserved_at >= ?", since.UTC()).
		Order(byTableNumber).
		Order(byReservedAt).
		Find(&out).Error
	return out, translate(err)
}

func (s *ReservationStore) ListByOwner(ctx context.Context, ownerID uint) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.DB.WithContext(ctx).
		Joins("Table").
		Where("reservations.owner_id = ?", ownerID).
		Order(byReservedAt).
		Order(byTableNumber).
		Find(&out).Error
	return out, translate(err)
}

func (s *ReservationStore) ListAll(ctx context.Context) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.DB.WithContext(ctx).
		Joins("Table").
		Order(byReservedAt).
		Order(byTableNumber).
		Find(&out).Error
	return out, translate(err)
}
