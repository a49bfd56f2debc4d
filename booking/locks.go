package booking

import "sync"

// tableLocks hands out one mutex per table id. Entries are reference
// counted and dropped once nobody holds or waits on them.
type tableLocks struct {
	mu    sync.Mutex
	locks map[uint]*tableLock
}

type tableLock struct {
	mu   sync.Mutex
	refs int
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[uint]*tableLock)}
}

// lock blocks until the table's critical section is free and returns the
// matching unlock function.
func (l *tableLocks) lock(tableID uint) func() {
	l.mu.Lock()
	tl, ok := l.locks[tableID]
	if !ok {
		tl = &tableLock{}
		l.locks[tableID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()
	return func() {
		tl.mu.Unlock()
		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, tableID)
		}
		l.mu.Unlock()
	}
}

func (l *tableLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
