package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	from := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 7, DaysBetween(from, time.Date(2026, 3, 8, 0, 1, 0, 0, time.UTC)))
	assert.Equal(t, 0, DaysBetween(from, from))
	assert.Equal(t, -2, DaysBetween(from, from.AddDate(0, 0, -2)))
	// calendar dates are taken in the value's own location
	loc := time.FixedZone("UTC+3", 3*3600)
	assert.Equal(t, 1, DaysBetween(time.Date(2026, 3, 28, 1, 0, 0, 0, loc), time.Date(2026, 3, 29, 1, 0, 0, 0, loc)))
	// spans longer than time.Duration can hold
	assert.Equal(t, 136314, DaysBetween(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -119355, DaysBetween(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestBorrowing_States(t *testing.T) {
	today := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	t.Run("ActiveOverdue", func(t *testing.T) {
		b := &Borrowing{ExpectedReturnDate: today}
		assert.True(t, b.IsActive())
		assert.True(t, b.IsOverdue(today))
		assert.False(t, b.IsOverdue(today.AddDate(0, 0, -1)))
	})

	t.Run("ReturnedIsNeverOverdue", func(t *testing.T) {
		returned := today
		b := &Borrowing{ExpectedReturnDate: today.AddDate(0, 0, -3), ActualReturnDate: &returned}
		assert.False(t, b.IsActive())
		assert.False(t, b.IsOverdue(today))
		assert.True(t, b.ReturnedLate())
	})

	t.Run("ReturnedOnTime", func(t *testing.T) {
		returned := today
		b := &Borrowing{ExpectedReturnDate: today, ActualReturnDate: &returned}
		assert.False(t, b.ReturnedLate())
	})
}

func TestUser_DisplayName(t *testing.T) {
	var nilUser *User
	assert.Equal(t, "unknown user", nilUser.DisplayName())
	assert.Equal(t, "a@b.c", (&User{Email: "a@b.c", Username: "ab"}).DisplayName())
	assert.Equal(t, "@ab", (&User{Username: "ab"}).DisplayName())
	assert.Equal(t, "Ann Lee", (&User{FirstName: "Ann", LastName: "Lee"}).DisplayName())
	assert.Equal(t, "user #7", (&User{ID: 7}).DisplayName())
}

func TestBook_Validate(t *testing.T) {
	valid := Book{ID: 1, Title: "Dune", Cover: CoverHard, Inventory: 2, DailyFee: decimal.RequireFromString("1.04")}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		edit func(b *Book)
	}{
		{"zero id", func(b *Book) { b.ID = 0 }},
		{"empty title", func(b *Book) { b.Title = "  " }},
		{"bad cover", func(b *Book) { b.Cover = "PAPER" }},
		{"negative inventory", func(b *Book) { b.Inventory = -1 }},
		{"negative fee", func(b *Book) { b.DailyFee = decimal.RequireFromString("-0.5") }},
		{"three decimals", func(b *Book) { b.DailyFee = decimal.RequireFromString("1.045") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.edit(&b)
			assert.Error(t, b.Validate())
		})
	}
}
