package fees

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBorrowingFee(t *testing.T) {
	fee := decimal.RequireFromString("1.04")

	tests := []struct {
		name     string
		from, to time.Time
		want     int64
	}{
		{"seven day loan", day(2026, 1, 1), day(2026, 1, 8), 728},
		{"same day", day(2026, 1, 1), day(2026, 1, 1), 0},
		{"reversed dates clamp to zero", day(2026, 1, 8), day(2026, 1, 1), 0},
		{"month boundary", day(2026, 1, 30), day(2026, 2, 2), 312},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BorrowingFee(fee, tt.from, tt.to))
		})
	}
}

func TestLoanDays_FarFuture(t *testing.T) {
	from := day(2026, 10, 14)
	to := day(2400, 1, 1)

	assert.Equal(t, int64(136314), LoanDays(from, to))
	assert.Equal(t, int64(13631400), BorrowingFee(decimal.NewFromInt(1), from, to))
	assert.Equal(t, int64(136314*2*100), Fine(decimal.NewFromInt(1), from, to, 2))
}

func TestFine(t *testing.T) {
	fee := decimal.RequireFromString("1.04")
	expected := day(2026, 4, 10)

	assert.Equal(t, int64(624), Fine(fee, expected, day(2026, 4, 13), 2))
	assert.Equal(t, int64(0), Fine(fee, expected, expected, 2))
	assert.Equal(t, int64(0), Fine(fee, expected, day(2026, 4, 1), 2))
	assert.Equal(t, int64(936), Fine(fee, expected, day(2026, 4, 13), 3))
	// invalid multiplier falls back to the default
	assert.Equal(t, int64(624), Fine(fee, expected, day(2026, 4, 13), 0))
}

func TestToMinorUnits_Rounding(t *testing.T) {
	assert.Equal(t, int64(101), ToMinorUnits(decimal.RequireFromString("1.005")))
	assert.Equal(t, int64(100), ToMinorUnits(decimal.RequireFromString("1.004")))
	assert.Equal(t, int64(-101), ToMinorUnits(decimal.RequireFromString("-1.005")))
	assert.Equal(t, int64(1999), ToMinorUnits(decimal.RequireFromString("19.99")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "7.28 USD", Format(728, "usd"))
	assert.Equal(t, "0.05", Format(5, ""))
	assert.True(t, FromMinorUnits(624).Equal(decimal.RequireFromString("6.24")))
}
