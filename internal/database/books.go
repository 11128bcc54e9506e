package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"library/internal/domain"
	"library/internal/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
	Rebind(query string) string
}

type bookRow struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Author    string    `db:"author"`
	Cover     string    `db:"cover"`
	Inventory int64     `db:"inventory"`
	DailyFee  string    `db:"daily_fee"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r bookRow) toModel() (*models.Book, error) {
	fee, err := decimal.NewFromString(r.DailyFee)
	if err != nil {
		return nil, fmt.Errorf("book %d has malformed daily fee %q: %w", r.ID, r.DailyFee, err)
	}
	return &models.Book{
		ID:        r.ID,
		Title:     r.Title,
		Author:    r.Author,
		Cover:     models.Cover(r.Cover),
		Inventory: r.Inventory,
		DailyFee:  fee,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func booksDataset(d goqu.DialectWrapper) *goqu.SelectDataset {
	return d.From("books").Select(
		goqu.I("id"),
		goqu.I("title"),
		goqu.I("author"),
		goqu.I("cover"),
		goqu.I("inventory"),
		goqu.L("CAST(daily_fee AS TEXT)").As("daily_fee"),
		goqu.I("created_at"),
		goqu.I("updated_at"),
	)
}

func getBook(ctx context.Context, q queryer, d goqu.DialectWrapper, id int64) (*models.Book, error) {
	query, args, err := toSQL(booksDataset(d).Where(goqu.I("id").Eq(id)))
	if err != nil {
		return nil, err
	}

	var row bookRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return row.toModel()
}

func (db *DB) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	return getBook(ctx, db.DB, db.dialect, id)
}

// ListBooks returns the catalog ordered by id. Filters match case-insensitive substrings.
func (db *DB) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	ds := booksDataset(db.dialect).Order(goqu.I("id").Asc())
	if filter.Title != "" {
		ds = ds.Where(containsFold("title", filter.Title))
	}
	if filter.Author != "" {
		ds = ds.Where(containsFold("author", filter.Author))
	}

	query, args, err := toSQL(ds)
	if err != nil {
		return nil, err
	}

	var rows []bookRow
	if err := sqlx.SelectContext(ctx, db.DB, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	books := make([]*models.Book, 0, len(rows))
	for _, r := range rows {
		b, err := r.toModel()
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

// UpsertBook inserts the book or refreshes its descriptive fields. Inventory is only written on insert.
func (db *DB) UpsertBook(ctx context.Context, book *models.Book) error {
	if err := book.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	query := `INSERT INTO books (id, title, author, cover, inventory, daily_fee, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT (id) DO UPDATE SET
                title = excluded.title,
                author = excluded.author,
                cover = excluded.cover,
                daily_fee = excluded.daily_fee,
                updated_at = excluded.updated_at`
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, db.Rebind(query),
		book.ID,
		book.Title,
		book.Author,
		string(book.Cover),
		book.Inventory,
		book.DailyFee.StringFixed(2),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert book: %w", err)
	}
	return nil
}

func (t *Tx) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	return getBook(ctx, t.tx, t.dialect, id)
}

// AdjustInventory applies delta with a conditional update so the count never goes below zero.
func (t *Tx) AdjustInventory(ctx context.Context, bookID int64, delta int64) (*models.Book, error) {
	query := `UPDATE books SET inventory = inventory + ?, updated_at = ?
              WHERE id = ? AND inventory + ? >= 0
              RETURNING inventory`
	var inventory int64
	err := t.tx.QueryRowxContext(ctx, t.tx.Rebind(query), delta, time.Now().UTC(), bookID, delta).Scan(&inventory)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to adjust inventory: %w", err)
		}
		var count int
		if err := t.tx.GetContext(ctx, &count, t.tx.Rebind(`SELECT COUNT(*) FROM books WHERE id = ?`), bookID); err != nil {
			return nil, fmt.Errorf("failed to check book: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("book %d: %w", bookID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("book %d: %w", bookID, domain.ErrUnavailable)
	}

	return getBook(ctx, t.tx, t.dialect, bookID)
}
