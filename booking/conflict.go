package booking

import "time"

// Slot is the occupancy of one table: [Start, Start+Duration).
type Slot struct {
	ID       uint
	TableID  uint
	Start    time.Time
	Duration time.Duration
}

func (s Slot) End() time.Time { return s.Start.Add(s.Duration) }

// Overlaps uses half-open semantics: a slot ending exactly when the other
// starts does not overlap it.
func (s Slot) Overlaps(other Slot) bool {
	return s.Start.Before(other.End()) && other.Start.Before(s.End())
}

// Conflicts reports whether candidate overlaps any slot in existing on the
// same table. A non-zero excludeID skips the slot with that id, which is how
// an edited reservation avoids colliding with itself.
func Conflicts(candidate Slot, existing []Slot, excludeID uint) bool {
	for _, other := range existing {
		if other.TableID != candidate.TableID {
			continue
		}
		if excludeID != 0 && other.ID == excludeID {
			continue
		}
		if candidate.Overlaps(other) {
			return true
		}
	}
	return false
}
