package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"stayhub/internal/domain/shared/daterange"
)

func mustRange(t *testing.T, checkIn, checkOut string) daterange.DateRange {
	t.Helper()
	r, err := daterange.Parse(checkIn, checkOut)
	require.NoError(t, err)
	return r
}

func TestMergeRangeMarksEveryDayInclusive(t *testing.T) {
	idx := NewIndex()
	merged, err := idx.MergeRange(mustRange(t, "2026-03-01", "2026-03-03"))
	require.NoError(t, err)

	require.Equal(t, 3, merged.Len())
	for _, day := range []string{"2026-03-01", "2026-03-02", "2026-03-03"} {
		ts, parseErr := time.ParseInLocation(daterange.Layout, day, time.UTC)
		require.NoError(t, parseErr)
		require.True(t, merged.Has(ts), "expected %s to be booked", day)
	}
}

func TestMergeRangeSameDayCountsOneDay(t *testing.T) {
	idx := NewIndex()
	merged, err := idx.MergeRange(mustRange(t, "2026-03-01", "2026-03-01"))
	require.NoError(t, err)
	require.Equal(t, 1, merged.Len())
}

func TestMergeRangeConflictNamesFirstTakenDay(t *testing.T) {
	idx := NewIndex()
	idx, err := idx.MergeRange(mustRange(t, "2026-03-02", "2026-03-04"))
	require.NoError(t, err)

	_, err = idx.MergeRange(mustRange(t, "2026-03-01", "2026-03-05"))
	require.ErrorIs(t, err, ErrDateConflict)
	require.ErrorContains(t, err, "2026-03-02")
}

func TestMergeRangeNeverMutatesReceiver(t *testing.T) {
	idx := NewIndex()
	idx, err := idx.MergeRange(mustRange(t, "2026-03-10", "2026-03-12"))
	require.NoError(t, err)
	before := idx.Keys()

	_, err = idx.MergeRange(mustRange(t, "2026-03-05", "2026-03-08"))
	require.NoError(t, err)
	require.Equal(t, before, idx.Keys(), "successful merge must not touch the receiver")

	_, err = idx.MergeRange(mustRange(t, "2026-03-11", "2026-03-15"))
	require.ErrorIs(t, err, ErrDateConflict)
	require.Equal(t, before, idx.Keys(), "failed merge must not touch the receiver")
}

func TestFromKeysRoundTrip(t *testing.T) {
	keys := []int64{20500, 20501, 20510}
	idx := FromKeys(keys)
	require.Equal(t, keys, idx.Keys())
}

func TestKeyOfIgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2026, 3, 1, 4, 30, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	require.Equal(t, KeyOf(morning), KeyOf(evening))
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), KeyOf(morning).Date())
}

func drawRange(t *rapid.T, label string) daterange.DateRange {
	start := rapid.Int64Range(20000, 21000).Draw(t, label+"_start")
	length := rapid.Int64Range(0, 30).Draw(t, label+"_len")
	r, err := daterange.New(DayKey(start).Date(), DayKey(start+length).Date())
	if err != nil {
		t.Fatalf("building range: %v", err)
	}
	return r
}

func TestMergeRangeDisjointAndOverlapping(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawRange(t, "a")
		b := drawRange(t, "b")

		idx, err := NewIndex().MergeRange(a)
		if err != nil {
			t.Fatalf("first merge into empty index failed: %v", err)
		}
		lenA := idx.Len()

		merged, err := idx.MergeRange(b)
		overlaps := !b.CheckOut.Before(a.CheckIn) && !a.CheckOut.Before(b.CheckIn)
		if overlaps {
			if err == nil {
				t.Fatalf("expected conflict for %s against %s", b, a)
			}
			if idx.Len() != lenA {
				t.Fatalf("conflicting merge mutated the index")
			}
			return
		}
		if err != nil {
			t.Fatalf("disjoint merge failed: %v", err)
		}
		want := lenA + int(b.Nights()) + 1
		if merged.Len() != want {
			t.Fatalf("merged length = %d, want %d", merged.Len(), want)
		}
	})
}

func TestMergeRangeIdempotentConflict(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := drawRange(t, "r")
		idx, err := NewIndex().MergeRange(r)
		if err != nil {
			t.Fatalf("merge into empty index failed: %v", err)
		}
		if _, err := idx.MergeRange(r); err == nil {
			t.Fatalf("re-merging %s must conflict", r)
		}
	})
}
