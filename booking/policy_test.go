package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservation/models"
)

var (
	alice = Actor{UserID: 1}
	bob   = Actor{UserID: 2}
	admin = Actor{UserID: 3, Roles: models.RoleAdmin}
)

func newTestPolicy(now time.Time) (*Policy, *memStore) {
	store := newMemStore(
		models.Table{ID: 5, Number: 5, Capacity: 4, IsAvailable: true},
		models.Table{ID: 6, Number: 6, Capacity: 2, IsAvailable: true},
	)
	p := NewPolicy(store, ClockFunc(func() time.Time { return now }), DefaultConfig())
	p.Logger = logrus.New()
	p.Logger.SetLevel(logrus.PanicLevel)
	return p, store
}

func req(tableID uint, start time.Time) Request {
	return Request{TableID: tableID, Start: start, CustomerName: "Ivan", CustomerContact: "+7 900 000 00 00"}
}

var now = time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)

func TestSubmitScenarioOverlapAndBoundary(t *testing.T) {
	p, _ := newTestPolicy(now)
	ctx := context.Background()

	_, err := p.Submit(ctx, alice, req(5, at("19:00")), 0)
	require.NoError(t, err)

	_, err = p.Submit(ctx, bob, req(5, at("19:30")), 0)
	assert.ErrorIs(t, err, ErrSlotTaken)

	r, err := p.Submit(ctx, bob, req(5, at("20:00")), 0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, r.Status)
	require.NotNil(t, r.OwnerID)
	assert.Equal(t, bob.UserID, *r.OwnerID)
	assert.Equal(t, 5, r.Table.Number)
}

func TestSubmitEarlierOverlap(t *testing.T) {
	p, _ := newTestPolicy(now)
	ctx := context.Background()

	_, err := p.Submit(ctx, alice, req(5, at("19:00")), 0)
	require.NoError(t, err)

	_, err = p.Submit(ctx, alice, req(5, at("18:30")), 0)
	assert.ErrorIs(t, err, ErrSlotTaken)
	_, err = p.Submit(ctx, alice, req(5, at("18:00")), 0)
	assert.NoError(t, err)
	_, err = p.Submit(ctx, alice, req(6, at("19:00")), 0)
	assert.NoError(t, err, "other tables are independent")
}

func TestSubmitPastDateIgnoresOccupancy(t *testing.T) {
	p, store := newTestPolicy(now)
	ctx := context.Background()

	_, err := p.Submit(ctx, alice, req(5, now.Add(-time.Minute)), 0)
	assert.ErrorIs(t, err, ErrPastDate)

	_, err = p.Submit(ctx, alice, req(5, now.Add(-48*time.Hour)), 0)
	assert.ErrorIs(t, err, ErrPastDate)
	assert.Equal(t, 0, store.count(), "rejections never write")

	_, err = p.Submit(ctx, alice, req(5, now), 0)
	assert.NoError(t, err, "starting exactly now is allowed")
}

func TestSubmitInvalidRequest(t *testing.T) {
	p, _ := newTestPolicy(now)
	ctx := context.Background()

	_, err := p.Submit(ctx, alice, Request{TableID: 5, Start: at("19:00")}, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = p.Submit(ctx, alice, Request{Start: at("19:00"), CustomerName: "a", CustomerContact: "b"}, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSubmitCustomerFieldLengthCountsCharacters(t *testing.T) {
	p, _ := newTestPolicy(now)
	ctx := context.Background()

	r := req(5, at("19:00"))
	r.CustomerName = strings.Repeat("Ж", 100)
	_, err := p.Submit(ctx, alice, r, 0)
	assert.NoError(t, err)

	r = req(5, at("21:00"))
	r.CustomerName = strings.Repeat("Ж", 101)
	_, err = p.Submit(ctx, alice, r, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	r = req(6, at("21:00"))
	r.CustomerContact = strings.Repeat("д", 101)
	_, err = p.Submit(ctx, alice, r, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSubmitUnknownTable(t *testing.T) {
	p, _ := newTestPolicy(now)
	_, err := p.Submit(context.Background(), alice, req(99, at("19:00")), 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditIdenticalFieldsDoesNotCollideWithItself(t *testing.T) {
	p, _ := newTestPolicy(now)
	ctx := context.Background()

	r, err := p.Submit(ctx, alice, req(5, at("19:00")), 0)
	require.NoError(t, err)

	updated, err := p.Submit(ctx, alice, req(5, at("19:00")), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, updated.ID)

	updated, err = p.Submit(ctx, alice, req(5, at("19:20")), r.ID)
	require.NoError(t, err)
	assert.True(t, updated.ReservedAt.Equal(at("19:20")))
}

func TestEditRevalidatesAgainstOthers(t *testing.T) {
	p, store := newTestPolicy(now)
	ctx := context.Background()

	first, err := p.Submit(ctx, alice, req(5, at("19:00")), 0)
	require.NoError(t, err)
	second, err := p.Submit(ctx, alice, req(5, at("21:00")), 0)
	require.NoError(t, err)

	_, err = p.Submit(ctx, alice, req(5, at("19:45")), second.ID)
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = p.Submit(ctx, alice, req(5, now.Add(-time.Hour)), first.ID)
	assert.ErrorIs(t, err, ErrPastDate)

	stored, err := store.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, stored.ReservedAt.Equal(at("21:00")), "rejected edits leave the row untouched")
}

func TestEditOwnership(t *testing.T) {
	p, _ := newTestPolicy(now)
	ctx := context.Background()

	r, err := p.Submit(ctx, alice, req(5, at("19:00")), 0)
	require.NoError(t, err)

	_, err = p.Submit(ctx, bob, req(5, at("19:00")), r.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	edited, err := p.Submit(ctx, admin, Request{TableID: 5, Start: at("19:00"), CustomerName: "Admin edit", CustomerContact: "x"}, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Admin edit", edited.CustomerName)
	assert.True(t, edited.OwnedBy(alice.UserID), "an admin edit keeps the original owner")

	_, err = p.Submit(ctx, alice, req(5, at("19:00")), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditByStrangerDoesNotWaitForTableLock(t *testing.T) {
	p, _ := newTestPolicy(now)
	ctx := context.Background()

	r, err := p.Submit(ctx, alice, req(5, at("19:00")), 0)
	require.NoError(t, err)

	unlock := p.locks.lock(5)
	defer unlock()

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(ctx, bob, req(5, at("20:00")), r.ID)
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrUnauthorized)
	case <-time.After(2 * time.Second):
		t.Fatal("unauthorized edit blocked on the table lock")
	}
}

func TestCancelScenario(t *testing.T) {
	p, store := newTestPolicy(now)
	ctx := context.Background()

	r, err := p.Submit(ctx, alice, req(5, at("19:00")), 0)
	require.NoError(t, err)

	_, err = p.Cancel(ctx, bob, r.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, store.count())

	cancelled, err := p.Cancel(ctx, admin, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 0, store.count())

	_, err = p.Cancel(ctx, admin, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelByOwner(t *testing.T) {
	p, store := newTestPolicy(now)
	ctx := context.Background()

	r, err := p.Submit(ctx, alice, req(6, at("13:00")), 0)
	require.NoError(t, err)
	_, err = p.Cancel(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, store.count())
}

func TestConcurrentSubmissionsExactlyOneWins(t *testing.T) {
	p, store := newTestPolicy(now)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = p.Submit(ctx, Actor{UserID: uint(i + 1)}, req(5, at("19:00")), 0)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSlotTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, taken)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, 0, p.locks.size())
}

func TestQueueScenario(t *testing.T) {
	T := at("19:00")
	p, store := newTestPolicy(T.Add(-3 * time.Hour))
	ctx := context.Background()

	old, err := p.Submit(ctx, alice, req(5, T.Add(-61*time.Minute)), 0)
	require.NoError(t, err)
	running, err := p.Submit(ctx, alice, req(6, T.Add(-59*time.Minute)), 0)
	require.NoError(t, err)
	future, err := p.Submit(ctx, bob, req(5, T.Add(time.Hour)), 0)
	require.NoError(t, err)
	require.Equal(t, 3, store.count())

	p.clock = ClockFunc(func() time.Time { return T })
	queue, err := p.Queue(ctx)
	require.NoError(t, err)

	ids := make([]uint, 0, len(queue))
	for _, r := range queue {
		ids = append(ids, r.ID)
	}
	assert.NotContains(t, ids, old.ID)
	assert.Contains(t, ids, running.ID)
	assert.Contains(t, ids, future.ID)
}

func TestPersonalView(t *testing.T) {
	p, _ := newTestPolicy(now)
	ctx := context.Background()

	_, err := p.Submit(ctx, alice, req(5, at("19:00")), 0)
	require.NoError(t, err)
	_, err = p.Submit(ctx, bob, req(6, at("19:00")), 0)
	require.NoError(t, err)

	mine, err := p.Personal(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].OwnedBy(alice.UserID))

	all, err := p.Personal(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetAuthorizesRead(t *testing.T) {
	p, _ := newTestPolicy(now)
	ctx := context.Background()

	r, err := p.Submit(ctx, alice, req(5, at("19:00")), 0)
	require.NoError(t, err)

	_, err = p.Get(ctx, bob, r.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	got, err := p.Get(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
}

func TestStoreFailurePropagates(t *testing.T) {
	p, store := newTestPolicy(now)
	store.failing = errors.Join(ErrStoreUnavailable, errors.New("connection refused"))

	var seen []string
	p.OnDecision = func(op string, err error) { seen = append(seen, op+":"+Reason(err)) }

	_, err := p.Submit(context.Background(), alice, req(5, at("19:00")), 0)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, []string{"create:StoreUnavailable"}, seen)
}

func TestConstraintViolationMapsToSlotTaken(t *testing.T) {
	assert.ErrorIs(t, slotTakenOnConflict(ErrConstraintViolation), ErrSlotTaken)
	other := errors.New("boom")
	assert.Equal(t, other, slotTakenOnConflict(other))
}
