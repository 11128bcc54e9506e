package database

import (
	"context"
	"testing"

	"library/internal/domain"
	"library/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	seedBook(t, db, 1, 5, "1.04")

	book, err := db.GetBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Book 1.04", book.Title)
	assert.Equal(t, models.CoverHard, book.Cover)
	assert.True(t, decimal.RequireFromString("1.04").Equal(book.DailyFee))
	assert.Equal(t, int64(5), book.Inventory)

	_, err = db.GetBook(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpsertBook_KeepsInventory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	seedBook(t, db, 1, 5, "1.00")

	updated := &models.Book{
		ID:        1,
		Title:     "Renamed",
		Author:    "Other",
		Cover:     models.CoverSoft,
		Inventory: 99,
		DailyFee:  decimal.RequireFromString("2.50"),
	}
	require.NoError(t, db.UpsertBook(ctx, updated))

	book, err := db.GetBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", book.Title)
	assert.Equal(t, models.CoverSoft, book.Cover)
	assert.Equal(t, "2.50", book.DailyFee.StringFixed(2))
	assert.Equal(t, int64(5), book.Inventory)
}

func TestUpsertBook_Invalid(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.UpsertBook(context.Background(), &models.Book{ID: 1, Title: "x", Cover: "PAPER"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListBooks_Filters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	books := []*models.Book{
		{ID: 1, Title: "The Go Programming Language", Author: "Donovan", Cover: models.CoverHard, Inventory: 1, DailyFee: decimal.RequireFromString("1.00")},
		{ID: 2, Title: "Concurrency in Go", Author: "Cox-Buday", Cover: models.CoverSoft, Inventory: 1, DailyFee: decimal.RequireFromString("0.50")},
		{ID: 3, Title: "Dune", Author: "Herbert", Cover: models.CoverSoft, Inventory: 0, DailyFee: decimal.RequireFromString("0.25")},
	}
	for _, b := range books {
		require.NoError(t, db.UpsertBook(ctx, b))
	}

	all, err := db.ListBooks(ctx, models.BookFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID)

	goBooks, err := db.ListBooks(ctx, models.BookFilter{Title: "GO"})
	require.NoError(t, err)
	assert.Len(t, goBooks, 2)

	byAuthor, err := db.ListBooks(ctx, models.BookFilter{Author: "herb"})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Dune", byAuthor[0].Title)

	none, err := db.ListBooks(ctx, models.BookFilter{Title: "go", Author: "herbert"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAdjustInventory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	seedBook(t, db, 1, 1, "1.00")

	err := db.WithTx(ctx, func(tx domain.Tx) error {
		book, err := tx.AdjustInventory(ctx, 1, -1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), book.Inventory)

		_, err = tx.AdjustInventory(ctx, 1, -1)
		assert.ErrorIs(t, err, domain.ErrUnavailable)

		_, err = tx.AdjustInventory(ctx, 42, -1)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		book, err = tx.AdjustInventory(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), book.Inventory)
		return nil
	})
	require.NoError(t, err)
}
