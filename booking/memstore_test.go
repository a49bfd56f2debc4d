package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yeremiapane/restaurant-reservation/models"
)

// memStore is a Store kept in a map. Each method locks on its own, so a
// caller that does check-then-write without its own critical section races.
type memStore struct {
	mu      sync.Mutex
	nextID  uint
	tables  map[uint]models.Table
	rows    map[uint]models.Reservation
	failing error
}

func newMemStore(tables ...models.Table) *memStore {
	s := &memStore{tables: make(map[uint]models.Table), rows: make(map[uint]models.Reservation)}
	for _, t := range tables {
		s.tables[t.ID] = t
	}
	return s
}

func (s *memStore) GetTable(_ context.Context, id uint) (models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing != nil {
		return models.Table{}, s.failing
	}
	t, ok := s.tables[id]
	if !ok {
		return models.Table{}, ErrNotFound
	}
	return t, nil
}

func (s *memStore) Get(_ context.Context, id uint) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing != nil {
		return models.Reservation{}, s.failing
	}
	r, ok := s.rows[id]
	if !ok {
		return models.Reservation{}, ErrNotFound
	}
	return r, nil
}

func (s *memStore) FindOverlapCandidates(_ context.Context, tableID uint, from, to time.Time, excludeID uint) ([]models.Reservation, error) {
	s.mu.Lock()
	if s.failing != nil {
		s.mu.Unlock()
		return nil, s.failing
	}
	var out []models.Reservation
	for _, r := range s.rows {
		if r.TableID != tableID || r.ID == excludeID {
			continue
		}
		if r.ReservedAt.Before(from) || r.ReservedAt.After(to) {
			continue
		}
		out = append(out, r)
	}
	s.mu.Unlock()
	// widen the window between check and write for racing callers
	time.Sleep(time.Millisecond)
	return out, nil
}

func (s *memStore) Insert(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing != nil {
		return s.failing
	}
	s.nextID++
	r.ID = s.nextID
	r.CreatedAt = time.Now()
	s.rows[r.ID] = *r
	return nil
}

func (s *memStore) Update(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[r.ID]; !ok {
		return ErrNotFound
	}
	s.rows[r.ID] = *r
	return nil
}

func (s *memStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *memStore) ListInProgressOrFuture(_ context.Context, since time.Time) ([]models.Reservation, error) {
	return s.filter(func(r models.Reservation) bool { return !r.ReservedAt.Before(since) }), nil
}

func (s *memStore) ListByOwner(_ context.Context, ownerID uint) ([]models.Reservation, error) {
	return s.filter(func(r models.Reservation) bool { return r.OwnedBy(ownerID) }), nil
}

func (s *memStore) ListAll(context.Context) ([]models.Reservation, error) {
	return s.filter(func(models.Reservation) bool { return true }), nil
}

func (s *memStore) filter(keep func(models.Reservation) bool) []models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reservation
	for _, r := range s.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservedAt.Before(out[j].ReservedAt) })
	return out
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
