package pricing

import (
	"errors"

	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
)

var ErrNegativeRate = errors.New("pricing: nightly rate must not be negative")

// Nights returns the chargeable nights for an inclusive range: the number
// of whole 24-hour days between the endpoints plus one, so a same-day
// check-in/check-out charges a single night.
func Nights(r daterange.DateRange) int64 {
	return r.Nights() + 1
}

// TotalPrice computes the full charge for a stay from the listing's nightly
// rate. No currency rounding happens here; that is the payment gateway's
// concern.
func TotalPrice(nightly money.Money, r daterange.DateRange) (money.Money, error) {
	if nightly.Amount < 0 {
		return money.Money{}, ErrNegativeRate
	}
	return nightly.Multiply(Nights(r)), nil
}
