package models

import "time"

type Borrowing struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	BookID             int64      `json:"book_id"`
	BorrowDate         time.Time  `json:"borrow_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`

	Book     *Book      `json:"book,omitempty"`
	User     *User      `json:"user,omitempty"`
	Payments []*Payment `json:"payments,omitempty"`
}

// IsActive reports whether the book has not been returned yet.
func (b *Borrowing) IsActive() bool {
	return b.ActualReturnDate == nil
}

// IsOverdue is true for active borrowings whose expected return date is today or earlier.
func (b *Borrowing) IsOverdue(today time.Time) bool {
	return b.IsActive() && !DateOf(b.ExpectedReturnDate).After(DateOf(today))
}

func (b *Borrowing) ReturnedLate() bool {
	return b.ActualReturnDate != nil && DateOf(*b.ActualReturnDate).After(DateOf(b.ExpectedReturnDate))
}

// BorrowingFilter narrows borrowing listings. Zero UserID means all users.
type BorrowingFilter struct {
	UserID     int64
	ActiveOnly bool
}
