package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservation/models"
)

const DefaultServiceDuration = 60 * time.Minute

type Config struct {
	// ServiceDuration is how long one reservation occupies its table.
	ServiceDuration time.Duration
}

func DefaultConfig() Config {
	return Config{ServiceDuration: DefaultServiceDuration}
}

const maxCustomerField = 100

// Request carries the editable fields of a reservation.
type Request struct {
	TableID         uint
	Start           time.Time
	CustomerName    string
	CustomerContact string
}

func (r Request) validate() error {
	switch {
	case r.TableID == 0:
		return fmt.Errorf("%w: table is required", ErrInvalidRequest)
	case r.Start.IsZero():
		return fmt.Errorf("%w: reservation time is required", ErrInvalidRequest)
	case strings.TrimSpace(r.CustomerName) == "":
		return fmt.Errorf("%w: customer name is required", ErrInvalidRequest)
	case strings.TrimSpace(r.CustomerContact) == "":
		return fmt.Errorf("%w: customer contact is required", ErrInvalidRequest)
	case utf8.RuneCountInString(r.CustomerName) > maxCustomerField || utf8.RuneCountInString(r.CustomerContact) > maxCustomerField:
		return fmt.Errorf("%w: customer fields are limited to %d characters", ErrInvalidRequest, maxCustomerField)
	}
	return nil
}

// Operation names reported to OnDecision.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpCancel = "cancel"
)

// Policy is the only write path for reservations. Submit and Cancel run
// their read-validate-write sequence inside a per-table critical section so
// concurrent requests for the same table cannot double-book it.
type Policy struct {
	store Store
	clock Clock
	cfg   Config
	locks *tableLocks

	Logger *logrus.Logger
	// OnDecision, when set, is called once per Submit/Cancel with the
	// operation name and its outcome.
	OnDecision func(op string, err error)
}

func NewPolicy(store Store, clock Clock, cfg Config) *Policy {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.ServiceDuration <= 0 {
		cfg.ServiceDuration = DefaultServiceDuration
	}
	return &Policy{
		store:  store,
		clock:  clock,
		cfg:    cfg,
		locks:  newTableLocks(),
		Logger: logrus.StandardLogger(),
	}
}

func (p *Policy) ServiceDuration() time.Duration { return p.cfg.ServiceDuration }

func (p *Policy) Now() time.Time { return p.clock.Now() }

// Submit creates a reservation owned by actor when editingID is zero, or
// re-validates and updates reservation editingID otherwise.
func (p *Policy) Submit(ctx context.Context, actor Actor, req Request, editingID uint) (models.Reservation, error) {
	op := OpCreate
	if editingID != 0 {
		op = OpUpdate
	}
	res, err := p.submit(ctx, actor, req, editingID)
	p.record(op, actor, req.TableID, res.ID, err)
	return res, err
}

func (p *Policy) submit(ctx context.Context, actor Actor, req Request, editingID uint) (models.Reservation, error) {
	if err := req.validate(); err != nil {
		return models.Reservation{}, err
	}
	start := req.Start.UTC()

	// Callers who may not edit the reservation never take the table lock.
	if editingID != 0 {
		if _, err := p.editable(ctx, actor, editingID); err != nil {
			return models.Reservation{}, err
		}
	}

	unlock := p.locks.lock(req.TableID)
	defer unlock()

	var current models.Reservation
	if editingID != 0 {
		var err error
		if current, err = p.editable(ctx, actor, editingID); err != nil {
			return models.Reservation{}, err
		}
	}

	if start.Before(p.clock.Now()) {
		return models.Reservation{}, ErrPastDate
	}

	table, err := p.store.GetTable(ctx, req.TableID)
	if err != nil {
		return models.Reservation{}, err
	}

	d := p.cfg.ServiceDuration
	candidates, err := p.store.FindOverlapCandidates(ctx, req.TableID, start.Add(-d), start.Add(d), editingID)
	if err != nil {
		return models.Reservation{}, err
	}
	candidate := Slot{ID: editingID, TableID: req.TableID, Start: start, Duration: d}
	if Conflicts(candidate, p.slots(candidates), editingID) {
		return models.Reservation{}, ErrSlotTaken
	}

	if editingID == 0 {
		r := models.Reservation{
			TableID:         req.TableID,
			ReservedAt:      start,
			CustomerName:    strings.TrimSpace(req.CustomerName),
			CustomerContact: strings.TrimSpace(req.CustomerContact),
			Status:          models.StatusDraft,
		}
		if actor.UserID != 0 {
			owner := actor.UserID
			r.OwnerID = &owner
		}
		if err := Transition(&r, models.StatusConfirmed); err != nil {
			return models.Reservation{}, err
		}
		if err := p.store.Insert(ctx, &r); err != nil {
			return models.Reservation{}, slotTakenOnConflict(err)
		}
		r.Table = table
		return r, nil
	}

	current.TableID = req.TableID
	current.ReservedAt = start
	current.CustomerName = strings.TrimSpace(req.CustomerName)
	current.CustomerContact = strings.TrimSpace(req.CustomerContact)
	if err := Transition(&current, models.StatusConfirmed); err != nil {
		return models.Reservation{}, err
	}
	if err := p.store.Update(ctx, &current); err != nil {
		return models.Reservation{}, slotTakenOnConflict(err)
	}
	current.Table = table
	return current, nil
}

func (p *Policy) editable(ctx context.Context, actor Actor, id uint) (models.Reservation, error) {
	r, err := p.store.Get(ctx, id)
	if err != nil {
		return models.Reservation{}, err
	}
	if !Authorize(actor, r, ActionUpdate) {
		return models.Reservation{}, ErrUnauthorized
	}
	return r, nil
}

// Cancel removes reservation id. The returned copy carries the cancelled
// status; the stored row is gone.
func (p *Policy) Cancel(ctx context.Context, actor Actor, id uint) (models.Reservation, error) {
	res, err := p.cancel(ctx, actor, id)
	p.record(OpCancel, actor, res.TableID, id, err)
	return res, err
}

func (p *Policy) cancel(ctx context.Context, actor Actor, id uint) (models.Reservation, error) {
	r, err := p.store.Get(ctx, id)
	if err != nil {
		return models.Reservation{}, err
	}
	if !Authorize(actor, r, ActionDelete) {
		return models.Reservation{}, ErrUnauthorized
	}

	unlock := p.locks.lock(r.TableID)
	defer unlock()

	if err := Transition(&r, models.StatusCancelled); err != nil {
		return models.Reservation{}, err
	}
	if err := p.store.Delete(ctx, id); err != nil {
		return models.Reservation{}, err
	}
	return r, nil
}

// Get returns reservation id if actor may read it.
func (p *Policy) Get(ctx context.Context, actor Actor, id uint) (models.Reservation, error) {
	r, err := p.store.Get(ctx, id)
	if err != nil {
		return models.Reservation{}, err
	}
	if !Authorize(actor, r, ActionRead) {
		return models.Reservation{}, ErrUnauthorized
	}
	return r, nil
}

// Queue is the shared operational view: every reservation that is in
// progress or still ahead, visible to any authenticated actor.
func (p *Policy) Queue(ctx context.Context) ([]models.Reservation, error) {
	since := p.clock.Now().Add(-p.cfg.ServiceDuration)
	return p.store.ListInProgressOrFuture(ctx, since)
}

// Personal lists the actor's own reservations; admins see all of them.
func (p *Policy) Personal(ctx context.Context, actor Actor) ([]models.Reservation, error) {
	if actor.IsAdmin() {
		return p.store.ListAll(ctx)
	}
	return p.store.ListByOwner(ctx, actor.UserID)
}

func (p *Policy) slots(rs []models.Reservation) []Slot {
	out := make([]Slot, 0, len(rs))
	for _, r := range rs {
		out = append(out, Slot{
			ID:       r.ID,
			TableID:  r.TableID,
			Start:    r.ReservedAt,
			Duration: p.cfg.ServiceDuration,
		})
	}
	return out
}

func slotTakenOnConflict(err error) error {
	if errors.Is(err, ErrConstraintViolation) {
		return ErrSlotTaken
	}
	return err
}

func (p *Policy) record(op string, actor Actor, tableID, reservationID uint, err error) {
	if p.OnDecision != nil {
		p.OnDecision(op, err)
	}
	if p.Logger == nil {
		return
	}
	entry := p.Logger.WithFields(logrus.Fields{
		"op":             op,
		"actor":          actor.UserID,
		"table_id":       tableID,
		"reservation_id": reservationID,
		"result":         Reason(err),
	})
	switch {
	case err == nil:
		entry.Info("reservation accepted")
	case errors.Is(err, ErrStoreUnavailable) || Reason(err) == "Failure":
		entry.WithError(err).Error("reservation failed")
	default:
		entry.Info("reservation rejected")
	}
}
