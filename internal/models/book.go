package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Cover string

const (
	CoverHard Cover = "HARD"
	CoverSoft Cover = "SOFT"
)

func (c Cover) Valid() bool {
	return c == CoverHard || c == CoverSoft
}

type Book struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Cover     Cover           `json:"cover"`
	Inventory int64           `json:"inventory"`
	DailyFee  decimal.Decimal `json:"daily_fee"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Available reports whether at least one copy can be borrowed.
func (b *Book) Available() bool {
	return b.Inventory > 0
}

func (b *Book) Validate() error {
	if b.ID <= 0 {
		return fmt.Errorf("book %q has invalid id %d", b.Title, b.ID)
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("book %d has empty title", b.ID)
	}
	if !b.Cover.Valid() {
		return fmt.Errorf("book %d has unknown cover %q", b.ID, b.Cover)
	}
	if b.Inventory < 0 {
		return fmt.Errorf("book %d has negative inventory", b.ID)
	}
	if b.DailyFee.IsNegative() {
		return fmt.Errorf("book %d has negative daily fee", b.ID)
	}
	if !b.DailyFee.Equal(b.DailyFee.Round(2)) {
		return fmt.Errorf("book %d daily fee %s has more than 2 decimals", b.ID, b.DailyFee)
	}
	return nil
}

// BookFilter narrows catalog listings. Empty fields match everything.
type BookFilter struct {
	Title  string
	Author string
}
