package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

type PaymentType string

const (
	PaymentTypePayment PaymentType = "PAYMENT"
	PaymentTypeFine    PaymentType = "FINE"
)

type Payment struct {
	ID          int64         `json:"id"`
	BorrowingID int64         `json:"borrowing_id"`
	Status      PaymentStatus `json:"status"`
	Type        PaymentType   `json:"type"`
	SessionID   string        `json:"session_id"`
	SessionURL  string        `json:"session_url"`
	AmountMinor int64         `json:"money_to_pay"` // minor currency units
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// PaymentFilter narrows payment listings. Zero UserID means all users.
type PaymentFilter struct {
	UserID      int64
	BorrowingID int64
}
