package bot

import (
	"fmt"
	"strings"

	"library/internal/fees"
	"library/internal/models"
)

func formatBookLine(book *models.Book, currency string) string {
	return fmt.Sprintf("#%d %s by %s (%s), %s/day, %d available",
		book.ID, book.Title, book.Author, book.Cover,
		fees.Format(fees.ToMinorUnits(book.DailyFee), currency), book.Inventory)
}

func formatBook(book *models.Book, currency string) string {
	return fmt.Sprintf("📘 %s\nAuthor: %s\nCover: %s\nDaily fee: %s\nAvailable copies: %d",
		book.Title, book.Author, book.Cover,
		fees.Format(fees.ToMinorUnits(book.DailyFee), currency), book.Inventory)
}

func formatBorrowingLine(b *models.Borrowing) string {
	title := fmt.Sprintf("book #%d", b.BookID)
	if b.Book != nil {
		title = b.Book.Title
	}
	status := "until " + models.FormatDate(b.ExpectedReturnDate)
	if b.ActualReturnDate != nil {
		status = "returned " + models.FormatDate(*b.ActualReturnDate)
	}
	return fmt.Sprintf("#%d %s, %s", b.ID, title, status)
}

func formatBorrowing(b *models.Borrowing, currency string) string {
	var sb strings.Builder
	sb.WriteString(formatBorrowingLine(b))
	fmt.Fprintf(&sb, "\nBorrowed: %s", models.FormatDate(b.BorrowDate))
	for _, p := range b.Payments {
		if p.Status == models.PaymentStatusPaid {
			continue
		}
		fmt.Fprintf(&sb, "\n%s #%d: %s, pay here: %s",
			strings.ToLower(string(p.Type)), p.ID, fees.Format(p.AmountMinor, currency), p.SessionURL)
	}
	return sb.String()
}

func formatPaymentLine(p *models.Payment, currency string) string {
	return fmt.Sprintf("#%d %s for borrowing #%d: %s, %s",
		p.ID, strings.ToLower(string(p.Type)), p.BorrowingID, fees.Format(p.AmountMinor, currency), p.Status)
}
