package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"library/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const helpText = `Welcome to the library!

/books [query] - search the catalog by title
/book <id> - book details
/borrow <book_id> <YYYY-MM-DD> - borrow a book until the date
/return <borrowing_id> - return a book
/my [active] - your borrowings
/payments - your payments
/paid <payment_id> - check a payment`

const staffHelpText = `
/overdue - overdue borrowings (staff)`

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	l := zerolog.Ctx(ctx)
	chatID := msg.Chat.ID

	l.Debug().
		Int64("user_id", msg.From.ID).
		Str("username", msg.From.UserName).
		Str("text", msg.Text).
		Msg("Handling message")

	if !msg.IsCommand() {
		b.sendMessage(chatID, "Send /help to see the available commands.")
		return
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	command := msg.Command()
	args := strings.Fields(msg.CommandArguments())
	b.metrics.Command(command)

	switch command {
	case "start", "help":
		b.handleStart(chatID, user)
	case "books":
		b.handleBooks(ctx, chatID, strings.Join(args, " "))
	case "book":
		b.handleBook(ctx, chatID, args)
	case "borrow":
		b.handleBorrow(ctx, chatID, user, args)
	case "return":
		b.handleReturn(ctx, chatID, user, args)
	case "my":
		b.handleMyBorrowings(ctx, chatID, user, args)
	case "payments":
		b.handlePayments(ctx, chatID, user)
	case "paid":
		b.handlePaid(ctx, chatID, user, args)
	case "overdue":
		b.handleOverdue(ctx, chatID, user)
	default:
		b.sendMessage(chatID, "Unknown command. Send /help to see the available commands.")
	}
}

func (b *Bot) handleStart(chatID int64, user *models.User) {
	text := helpText
	if user.IsStaff {
		text += staffHelpText
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) handleBooks(ctx context.Context, chatID int64, query string) {
	books, err := b.bookService.ListBooks(ctx, models.BookFilter{Title: query})
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if len(books) == 0 {
		b.sendMessage(chatID, "No books found.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 Books:\n")
	for i, book := range books {
		if i == b.listLimit() {
			fmt.Fprintf(&sb, "...and %d more, refine the query", len(books)-i)
			break
		}
		sb.WriteString(formatBookLine(book, b.config.Payments.Currency))
		sb.WriteString("\n")
	}
	b.sendMessage(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) handleBook(ctx context.Context, chatID int64, args []string) {
	id, ok := b.parseID(chatID, args, "/book <id>")
	if !ok {
		return
	}
	book, err := b.bookService.GetBook(ctx, id)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.sendMessage(chatID, formatBook(book, b.config.Payments.Currency))
}

func (b *Bot) handleBorrow(ctx context.Context, chatID int64, user *models.User, args []string) {
	if len(args) != 2 {
		b.sendMessage(chatID, "Usage: /borrow <book_id> <YYYY-MM-DD>")
		return
	}
	bookID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || bookID <= 0 {
		b.sendMessage(chatID, "Usage: /borrow <book_id> <YYYY-MM-DD>")
		return
	}
	expected, err := models.ParseDate(args[1])
	if err != nil {
		b.sendMessage(chatID, "⚠️ Invalid date, use the YYYY-MM-DD format.")
		return
	}

	borrowing, err := b.borrowingService.CreateBorrowing(ctx, user, bookID, expected)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.sendMessage(chatID, "✅ Borrowing created!\n"+formatBorrowing(borrowing, b.config.Payments.Currency))
}

func (b *Bot) handleReturn(ctx context.Context, chatID int64, user *models.User, args []string) {
	id, ok := b.parseID(chatID, args, "/return <borrowing_id>")
	if !ok {
		return
	}

	borrowing, err := b.borrowingService.ReturnBorrowing(ctx, id, user)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	text := "✅ Book returned, thank you!\n" + formatBorrowing(borrowing, b.config.Payments.Currency)
	if borrowing.ReturnedLate() {
		text += "\n⚠️ The book was returned late, a fine was issued."
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) handleMyBorrowings(ctx context.Context, chatID int64, user *models.User, args []string) {
	filter := models.BorrowingFilter{UserID: user.ID}
	if len(args) > 0 && strings.EqualFold(args[0], "active") {
		filter.ActiveOnly = true
	}

	borrowings, err := b.borrowingService.ListBorrowings(ctx, user, filter)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if len(borrowings) == 0 {
		b.sendMessage(chatID, "You have no borrowings.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📖 Your borrowings:\n")
	for i, br := range borrowings {
		if i == b.listLimit() {
			break
		}
		sb.WriteString(formatBorrowingLine(br))
		sb.WriteString("\n")
	}
	b.sendMessage(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) handlePayments(ctx context.Context, chatID int64, user *models.User) {
	payments, err := b.paymentService.ListPayments(ctx, user)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if len(payments) == 0 {
		b.sendMessage(chatID, "You have no payments.")
		return
	}

	var sb strings.Builder
	sb.WriteString("💳 Payments:\n")
	for i, p := range payments {
		if i == b.listLimit() {
			break
		}
		sb.WriteString(formatPaymentLine(p, b.config.Payments.Currency))
		sb.WriteString("\n")
	}
	b.sendMessage(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) handlePaid(ctx context.Context, chatID int64, user *models.User, args []string) {
	id, ok := b.parseID(chatID, args, "/paid <payment_id>")
	if !ok {
		return
	}

	payment, err := b.paymentService.RefreshPayment(ctx, user, id)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if payment.Status == models.PaymentStatusPaid {
		b.sendMessage(chatID, fmt.Sprintf("✅ Payment #%d is paid.", payment.ID))
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("⏳ Payment #%d is still pending.\n%s", payment.ID, payment.SessionURL))
}

func (b *Bot) handleOverdue(ctx context.Context, chatID int64, user *models.User) {
	if !user.IsStaff {
		b.sendMessage(chatID, "⛔ This command is available to library staff only.")
		return
	}

	overdue, err := b.borrowingService.ListOverdue(ctx, user)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if len(overdue) == 0 {
		b.sendMessage(chatID, "No borrowings overdue today!")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⏰ Overdue borrowings: %d\n", len(overdue))
	for i, br := range overdue {
		if i == b.listLimit() {
			break
		}
		fmt.Fprintf(&sb, "%s, %s\n", formatBorrowingLine(br), br.User.DisplayName())
	}
	b.sendMessage(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) parseID(chatID int64, args []string, usage string) (int64, bool) {
	if len(args) != 1 {
		b.sendMessage(chatID, "Usage: "+usage)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		b.sendMessage(chatID, "Usage: "+usage)
		return 0, false
	}
	return id, true
}

func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	zerolog.Ctx(ctx).Warn().Err(err).Int64("chat_id", chatID).Msg("Command failed")
	b.sendMessage(chatID, b.getErrorMessage(err))
}

func (b *Bot) listLimit() int {
	if b.config.Bot.ListLimit > 0 {
		return b.config.Bot.ListLimit
	}
	return models.DefaultListLimit
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
