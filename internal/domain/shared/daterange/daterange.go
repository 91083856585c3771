package daterange

import (
	"errors"
	"time"
)

var (
	ErrCheckOutBeforeCheckIn = errors.New("daterange: check-out date is before check-in date")
	ErrZeroDate              = errors.New("daterange: check-in and check-out are required")
)

// Layout is the wire and storage format for calendar dates. Bookings carry
// no time-of-day component.
const Layout = "2006-01-02"

// DateRange is an inclusive pair of calendar dates. Both endpoints are
// normalized to midnight UTC so that day arithmetic never crosses a
// daylight-saving boundary.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New builds a range from two dates, truncating them to whole UTC days.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return DateRange{}, ErrZeroDate
	}
	in := Truncate(checkIn)
	out := Truncate(checkOut)
	if out.Before(in) {
		return DateRange{}, ErrCheckOutBeforeCheckIn
	}
	return DateRange{CheckIn: in, CheckOut: out}, nil
}

// Parse builds a range from two dates in the Layout format.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := time.ParseInLocation(Layout, checkIn, time.UTC)
	if err != nil {
		return DateRange{}, err
	}
	out, err := time.ParseInLocation(Layout, checkOut, time.UTC)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

// Truncate drops the time-of-day component using UTC calendar fields.
func Truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights is the number of whole 24-hour days between the endpoints. A
// same-day range counts zero nights between and one chargeable night.
func (r DateRange) Nights() int64 {
	const dayMillis = 86_400_000
	return (r.CheckOut.UnixMilli() - r.CheckIn.UnixMilli()) / dayMillis
}

func (r DateRange) String() string {
	return r.CheckIn.Format(Layout) + ".." + r.CheckOut.Format(Layout)
}
