package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"library/internal/domain"
	"library/internal/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// borrowingRow is a borrowing joined with its book and owner.
type borrowingRow struct {
	ID                 int64        `db:"id"`
	UserID             int64        `db:"user_id"`
	BookID             int64        `db:"book_id"`
	BorrowDate         time.Time    `db:"borrow_date"`
	ExpectedReturnDate time.Time    `db:"expected_return_date"`
	ActualReturnDate   sql.NullTime `db:"actual_return_date"`
	CreatedAt          time.Time    `db:"created_at"`

	BookTitle     string `db:"book_title"`
	BookAuthor    string `db:"book_author"`
	BookCover     string `db:"book_cover"`
	BookInventory int64  `db:"book_inventory"`
	BookDailyFee  string `db:"book_daily_fee"`

	UserTelegramID int64  `db:"user_telegram_id"`
	UserUsername   string `db:"user_username"`
	UserFirstName  string `db:"user_first_name"`
	UserLastName   string `db:"user_last_name"`
	UserEmail      string `db:"user_email"`
	UserIsStaff    bool   `db:"user_is_staff"`
}

func (r borrowingRow) toModel() (*models.Borrowing, error) {
	fee, err := decimal.NewFromString(r.BookDailyFee)
	if err != nil {
		return nil, fmt.Errorf("book %d has malformed daily fee %q: %w", r.BookID, r.BookDailyFee, err)
	}

	b := &models.Borrowing{
		ID:                 r.ID,
		UserID:             r.UserID,
		BookID:             r.BookID,
		BorrowDate:         models.DateOf(r.BorrowDate),
		ExpectedReturnDate: models.DateOf(r.ExpectedReturnDate),
		CreatedAt:          r.CreatedAt,
		Book: &models.Book{
			ID:        r.BookID,
			Title:     r.BookTitle,
			Author:    r.BookAuthor,
			Cover:     models.Cover(r.BookCover),
			Inventory: r.BookInventory,
			DailyFee:  fee,
		},
		User: &models.User{
			ID:         r.UserID,
			TelegramID: r.UserTelegramID,
			Username:   r.UserUsername,
			FirstName:  r.UserFirstName,
			LastName:   r.UserLastName,
			Email:      r.UserEmail,
			IsStaff:    r.UserIsStaff,
		},
	}
	if r.ActualReturnDate.Valid {
		returned := models.DateOf(r.ActualReturnDate.Time)
		b.ActualReturnDate = &returned
	}
	return b, nil
}

func borrowingsDataset(d goqu.DialectWrapper) *goqu.SelectDataset {
	return d.From(goqu.T("borrowings").As("br")).
		InnerJoin(goqu.T("books").As("bk"), goqu.On(goqu.I("bk.id").Eq(goqu.I("br.book_id")))).
		InnerJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("br.user_id")))).
		Select(
			goqu.I("br.id"),
			goqu.I("br.user_id"),
			goqu.I("br.book_id"),
			goqu.I("br.borrow_date"),
			goqu.I("br.expected_return_date"),
			goqu.I("br.actual_return_date"),
			goqu.I("br.created_at"),
			goqu.I("bk.title").As("book_title"),
			goqu.I("bk.author").As("book_author"),
			goqu.I("bk.cover").As("book_cover"),
			goqu.I("bk.inventory").As("book_inventory"),
			goqu.L("CAST(bk.daily_fee AS TEXT)").As("book_daily_fee"),
			goqu.I("u.telegram_id").As("user_telegram_id"),
			goqu.I("u.username").As("user_username"),
			goqu.I("u.first_name").As("user_first_name"),
			goqu.I("u.last_name").As("user_last_name"),
			goqu.I("u.email").As("user_email"),
			goqu.I("u.is_staff").As("user_is_staff"),
		)
}

func selectBorrowings(ctx context.Context, q queryer, ds *goqu.SelectDataset) ([]*models.Borrowing, error) {
	query, args, err := toSQL(ds)
	if err != nil {
		return nil, err
	}

	var rows []borrowingRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query borrowings: %w", err)
	}

	out := make([]*models.Borrowing, 0, len(rows))
	for _, r := range rows {
		b, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func getBorrowing(ctx context.Context, q queryer, d goqu.DialectWrapper, id int64) (*models.Borrowing, error) {
	list, err := selectBorrowings(ctx, q, borrowingsDataset(d).Where(goqu.I("br.id").Eq(id)))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("borrowing %d: %w", id, domain.ErrNotFound)
	}

	b := list[0]
	b.Payments, err = selectPayments(ctx, q, paymentsDataset(d).Where(goqu.I("p.borrowing_id").Eq(id)))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBorrowing returns the borrowing with its book, owner and payments attached.
func (db *DB) GetBorrowing(ctx context.Context, id int64) (*models.Borrowing, error) {
	return getBorrowing(ctx, db.DB, db.dialect, id)
}

func (db *DB) ListBorrowings(ctx context.Context, filter models.BorrowingFilter) ([]*models.Borrowing, error) {
	ds := borrowingsDataset(db.dialect).Order(goqu.I("br.id").Desc())
	if filter.UserID != 0 {
		ds = ds.Where(goqu.I("br.user_id").Eq(filter.UserID))
	}
	if filter.ActiveOnly {
		ds = ds.Where(goqu.I("br.actual_return_date").IsNull())
	}
	return selectBorrowings(ctx, db.DB, ds)
}

// ListOverdueBorrowings returns active borrowings expected back on or before today.
func (db *DB) ListOverdueBorrowings(ctx context.Context, today time.Time) ([]*models.Borrowing, error) {
	ds := borrowingsDataset(db.dialect).
		Where(
			goqu.I("br.actual_return_date").IsNull(),
			goqu.I("br.expected_return_date").Lte(models.FormatDate(today)),
		).
		Order(goqu.I("br.expected_return_date").Asc(), goqu.I("br.id").Asc())
	return selectBorrowings(ctx, db.DB, ds)
}

func (t *Tx) GetBorrowing(ctx context.Context, id int64) (*models.Borrowing, error) {
	return getBorrowing(ctx, t.tx, t.dialect, id)
}

func (t *Tx) CreateBorrowing(ctx context.Context, borrowing *models.Borrowing) error {
	query := `INSERT INTO borrowings (user_id, book_id, borrow_date, expected_return_date, created_at)
              VALUES (?, ?, ?, ?, ?) RETURNING id`
	now := time.Now().UTC()
	var id int64
	err := t.tx.QueryRowxContext(ctx, t.tx.Rebind(query),
		borrowing.UserID,
		borrowing.BookID,
		models.FormatDate(borrowing.BorrowDate),
		models.FormatDate(borrowing.ExpectedReturnDate),
		now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create borrowing: %w", err)
	}

	borrowing.ID = id
	borrowing.CreatedAt = now
	return nil
}

// MarkReturned sets the actual return date only while the borrowing is still active.
func (t *Tx) MarkReturned(ctx context.Context, borrowingID int64, date time.Time) error {
	query := `UPDATE borrowings SET actual_return_date = ? WHERE id = ? AND actual_return_date IS NULL`
	result, err := t.tx.ExecContext(ctx, t.tx.Rebind(query), models.FormatDate(date), borrowingID)
	if err != nil {
		return fmt.Errorf("failed to mark borrowing returned: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var count int
	if err := t.tx.GetContext(ctx, &count, t.tx.Rebind(`SELECT COUNT(*) FROM borrowings WHERE id = ?`), borrowingID); err != nil {
		return fmt.Errorf("failed to check borrowing: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("borrowing %d: %w", borrowingID, domain.ErrNotFound)
	}
	return fmt.Errorf("borrowing %d: %w", borrowingID, domain.ErrAlreadyReturned)
}
