package availability

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"stayhub/internal/domain/shared/daterange"
)

// ErrDateConflict signals that a requested range overlaps a day that is
// already committed to another booking.
var ErrDateConflict = errors.New("availability: selected dates overlap dates that have already been booked")

// DayKey identifies one calendar day as the count of whole UTC days since
// the Unix epoch. The packed-key encoding replaces the legacy nested
// year/month/day document and is applied uniformly on the read and write
// paths.
type DayKey int64

// KeyOf computes the day key from a timestamp using UTC calendar fields.
func KeyOf(t time.Time) DayKey {
	return DayKey(daterange.Truncate(t).Unix() / 86_400)
}

// Date returns the midnight-UTC timestamp for the key.
func (k DayKey) Date() time.Time {
	return time.Unix(int64(k)*86_400, 0).UTC()
}

// Index is the set of booked days for one listing. The zero value is an
// empty calendar. Index values are never mutated in place: MergeRange
// derives a new value, so callers may keep comparing against the old one.
type Index struct {
	days map[DayKey]struct{}
}

// NewIndex returns an empty index.
func NewIndex() Index {
	return Index{days: make(map[DayKey]struct{})}
}

// FromKeys rebuilds an index from its stored day keys.
func FromKeys(keys []int64) Index {
	idx := Index{days: make(map[DayKey]struct{}, len(keys))}
	for _, k := range keys {
		idx.days[DayKey(k)] = struct{}{}
	}
	return idx
}

// Keys returns the booked days in ascending order for persistence.
func (idx Index) Keys() []int64 {
	keys := make([]int64, 0, len(idx.days))
	for k := range idx.days {
		keys = append(keys, int64(k))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len reports the number of booked days.
func (idx Index) Len() int {
	return len(idx.days)
}

// Has reports whether the day containing t is booked.
func (idx Index) Has(t time.Time) bool {
	_, ok := idx.days[KeyOf(t)]
	return ok
}

// MergeRange returns a new index containing every previously booked day
// plus every day of r, both endpoints inclusive. Days are visited in
// ascending order; the first already-booked day aborts the merge with
// ErrDateConflict and leaves the receiver untouched. The caller is
// responsible for ensuring r.CheckIn <= r.CheckOut (daterange.New does).
func (idx Index) MergeRange(r daterange.DateRange) (Index, error) {
	merged := Index{days: make(map[DayKey]struct{}, len(idx.days))}
	for k := range idx.days {
		merged.days[k] = struct{}{}
	}
	first := KeyOf(r.CheckIn)
	last := KeyOf(r.CheckOut)
	for day := first; day <= last; day++ {
		if _, taken := merged.days[day]; taken {
			return Index{}, fmt.Errorf("%w: %s", ErrDateConflict, day.Date().Format(daterange.Layout))
		}
		merged.days[day] = struct{}{}
	}
	return merged, nil
}
