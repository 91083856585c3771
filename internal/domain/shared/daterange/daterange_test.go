package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	r, err := Parse("2026-03-01", "2026-03-04")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), r.CheckIn)
	require.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), r.CheckOut)
	require.EqualValues(t, 3, r.Nights())
}

func TestParseRejectsReversedRange(t *testing.T) {
	_, err := Parse("2026-03-04", "2026-03-01")
	require.ErrorIs(t, err, ErrCheckOutBeforeCheckIn)
}

func TestParseRejectsMalformedDates(t *testing.T) {
	_, err := Parse("03/01/2026", "2026-03-04")
	require.Error(t, err)
}

func TestNewTruncatesToMidnightUTC(t *testing.T) {
	in := time.Date(2026, 3, 1, 15, 45, 0, 0, time.FixedZone("X", -5*3600))
	out := time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)
	r, err := New(in, out)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), r.CheckIn)
	require.EqualValues(t, 2, r.Nights())
}

func TestSameDayRangeIsValid(t *testing.T) {
	r, err := Parse("2026-03-01", "2026-03-01")
	require.NoError(t, err)
	require.EqualValues(t, 0, r.Nights())
}
