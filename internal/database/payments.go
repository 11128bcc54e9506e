package database

import (
	"context"
	"fmt"
	"time"

	"library/internal/domain"
	"library/internal/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

type paymentRow struct {
	ID          int64     `db:"id"`
	BorrowingID int64     `db:"borrowing_id"`
	Status      string    `db:"status"`
	Type        string    `db:"type"`
	SessionID   string    `db:"session_id"`
	SessionURL  string    `db:"session_url"`
	MoneyToPay  int64     `db:"money_to_pay"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r paymentRow) toModel() *models.Payment {
	return &models.Payment{
		ID:          r.ID,
		BorrowingID: r.BorrowingID,
		Status:      models.PaymentStatus(r.Status),
		Type:        models.PaymentType(r.Type),
		SessionID:   r.SessionID,
		SessionURL:  r.SessionURL,
		AmountMinor: r.MoneyToPay,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func paymentsDataset(d goqu.DialectWrapper) *goqu.SelectDataset {
	return d.From(goqu.T("payments").As("p")).
		InnerJoin(goqu.T("borrowings").As("br"), goqu.On(goqu.I("br.id").Eq(goqu.I("p.borrowing_id")))).
		Select(
			goqu.I("p.id"),
			goqu.I("p.borrowing_id"),
			goqu.I("p.status"),
			goqu.I("p.type"),
			goqu.I("p.session_id"),
			goqu.I("p.session_url"),
			goqu.I("p.money_to_pay"),
			goqu.I("p.created_at"),
			goqu.I("p.updated_at"),
		).
		Order(goqu.I("p.id").Asc())
}

func selectPayments(ctx context.Context, q queryer, ds *goqu.SelectDataset) ([]*models.Payment, error) {
	query, args, err := toSQL(ds)
	if err != nil {
		return nil, err
	}

	var rows []paymentRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}

	out := make([]*models.Payment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (db *DB) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	list, err := selectPayments(ctx, db.DB, paymentsDataset(db.dialect).Where(goqu.I("p.id").Eq(id)))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("payment %d: %w", id, domain.ErrNotFound)
	}
	return list[0], nil
}

func (db *DB) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error) {
	ds := paymentsDataset(db.dialect)
	if filter.UserID != 0 {
		ds = ds.Where(goqu.I("br.user_id").Eq(filter.UserID))
	}
	if filter.BorrowingID != 0 {
		ds = ds.Where(goqu.I("p.borrowing_id").Eq(filter.BorrowingID))
	}
	return selectPayments(ctx, db.DB, ds)
}

func (db *DB) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	query := `UPDATE payments SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, db.Rebind(query), string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("payment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (t *Tx) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `INSERT INTO payments (borrowing_id, status, type, session_id, session_url, money_to_pay, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	now := time.Now().UTC()
	var id int64
	err := t.tx.QueryRowxContext(ctx, t.tx.Rebind(query),
		payment.BorrowingID,
		string(payment.Status),
		string(payment.Type),
		payment.SessionID,
		payment.SessionURL,
		payment.AmountMinor,
		now,
		now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	payment.ID = id
	payment.CreatedAt = now
	payment.UpdatedAt = now
	return nil
}
