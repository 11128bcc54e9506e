// Package fees computes borrowing charges and late-return fines.
//
// Amounts are computed on fixed-point decimals, rounded to cents half away
// from zero and handed out in minor currency units.
package fees

import (
	"strings"
	"time"

	"library/internal/models"

	"github.com/shopspring/decimal"
)

// ToMinorUnits rounds amount to two decimal places and converts it to minor units.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

// LoanDays is the number of charged days between borrow and expected return, never negative.
func LoanDays(borrowDate, expectedReturnDate time.Time) int64 {
	return clampDays(models.DaysBetween(borrowDate, expectedReturnDate))
}

// OverdueDays is the number of days a return happened after the expected date, never negative.
func OverdueDays(expectedReturnDate, returnDate time.Time) int64 {
	return clampDays(models.DaysBetween(expectedReturnDate, returnDate))
}

// BorrowingFee is daily_fee × loan days.
func BorrowingFee(dailyFee decimal.Decimal, borrowDate, expectedReturnDate time.Time) int64 {
	days := LoanDays(borrowDate, expectedReturnDate)
	return ToMinorUnits(dailyFee.Mul(decimal.NewFromInt(days)))
}

// Fine is daily_fee × overdue days × multiplier. A multiplier below one falls back to the default.
func Fine(dailyFee decimal.Decimal, expectedReturnDate, returnDate time.Time, multiplier int) int64 {
	if multiplier < 1 {
		multiplier = models.DefaultFineMultiplier
	}
	days := OverdueDays(expectedReturnDate, returnDate)
	return ToMinorUnits(dailyFee.Mul(decimal.NewFromInt(days)).Mul(decimal.NewFromInt(int64(multiplier))))
}

// Format renders minor units as "7.28 USD".
func Format(amountMinor int64, currency string) string {
	s := FromMinorUnits(amountMinor).StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + strings.ToUpper(currency)
}

func clampDays(days int) int64 {
	if days < 0 {
		return 0
	}
	return int64(days)
}
