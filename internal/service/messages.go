package service

import (
	"fmt"
	"strings"

	"library/internal/fees"
	"library/internal/models"
)

const NoOverdueMessage = "No borrowings overdue today!"

func BorrowingCreatedMessage(b *models.Borrowing, currency string) string {
	var sb strings.Builder
	sb.WriteString("New borrowing created!\n")
	fmt.Fprintf(&sb, "User: %s\n", b.User.DisplayName())
	fmt.Fprintf(&sb, "Book: %s\n", bookTitle(b))
	fmt.Fprintf(&sb, "Borrow date: %s\n", models.FormatDate(b.BorrowDate))
	fmt.Fprintf(&sb, "Expected return date: %s", models.FormatDate(b.ExpectedReturnDate))
	for _, p := range b.Payments {
		if p.Type == models.PaymentTypePayment {
			fmt.Fprintf(&sb, "\nTo pay: %s", fees.Format(p.AmountMinor, currency))
		}
	}
	return sb.String()
}

func OverdueMessage(b *models.Borrowing) string {
	return fmt.Sprintf("User: %s has an overdue book!\nBook Title: %s\nExpected Return Date: %s\nBorrow Date: %s",
		b.User.DisplayName(),
		bookTitle(b),
		models.FormatDate(b.ExpectedReturnDate),
		models.FormatDate(b.BorrowDate),
	)
}

func FineMessage(b *models.Borrowing, fine *models.Payment, currency string) string {
	var days int64
	if b.ActualReturnDate != nil {
		days = fees.OverdueDays(b.ExpectedReturnDate, *b.ActualReturnDate)
	}
	return fmt.Sprintf("User: %s returned a book late!\nBook Title: %s\nDays overdue: %d\nFine: %s",
		b.User.DisplayName(),
		bookTitle(b),
		days,
		fees.Format(fine.AmountMinor, currency),
	)
}

func bookTitle(b *models.Borrowing) string {
	if b.Book != nil && b.Book.Title != "" {
		return b.Book.Title
	}
	return fmt.Sprintf("book #%d", b.BookID)
}
