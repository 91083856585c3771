package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
)

func TestTotalPrice(t *testing.T) {
	nightly := money.Must(100, "USD")

	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		want     int64
	}{
		{name: "same day charges one night", checkIn: "2026-03-01", checkOut: "2026-03-01", want: 100},
		{name: "three day stay", checkIn: "2026-03-01", checkOut: "2026-03-03", want: 300},
		{name: "full week", checkIn: "2026-03-01", checkOut: "2026-03-07", want: 700},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := daterange.Parse(tc.checkIn, tc.checkOut)
			require.NoError(t, err)
			total, err := TotalPrice(nightly, r)
			require.NoError(t, err)
			require.Equal(t, tc.want, total.Amount)
			require.Equal(t, "USD", total.Currency)
		})
	}
}

func TestTotalPriceRejectsNegativeRate(t *testing.T) {
	r, err := daterange.Parse("2026-03-01", "2026-03-03")
	require.NoError(t, err)
	_, err = TotalPrice(money.Money{Amount: -1, Currency: "USD"}, r)
	require.ErrorIs(t, err, ErrNegativeRate)
}
