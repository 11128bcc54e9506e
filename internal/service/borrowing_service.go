package service

import (
	"context"
	"fmt"
	"time"

	"library/internal/config"
	"library/internal/domain"
	"library/internal/fees"
	"library/internal/metrics"
	"library/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BorrowingOptions groups the settings of BorrowingService that come from configuration.
type BorrowingOptions struct {
	Payments       config.PaymentsConfig
	FineMultiplier int
	// Now defaults to time.Now. "Today" is its UTC calendar date.
	Now     func() time.Time
	Metrics *metrics.Metrics
}

// BorrowingService owns the borrowing lifecycle: create, return and the overdue check.
type BorrowingService struct {
	repo           domain.Repository
	gateway        domain.PaymentGateway
	notifier       domain.Notifier
	payments       config.PaymentsConfig
	fineMultiplier int
	now            func() time.Time
	metrics        *metrics.Metrics
	logger         *zerolog.Logger
}

func NewBorrowingService(
	repo domain.Repository,
	gateway domain.PaymentGateway,
	notifier domain.Notifier,
	opts BorrowingOptions,
	logger *zerolog.Logger,
) *BorrowingService {
	if opts.FineMultiplier < 1 {
		opts.FineMultiplier = models.DefaultFineMultiplier
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BorrowingService{
		repo:           repo,
		gateway:        gateway,
		notifier:       notifier,
		payments:       opts.Payments,
		fineMultiplier: opts.FineMultiplier,
		now:            opts.Now,
		metrics:        opts.Metrics,
		logger:         logger,
	}
}

func (s *BorrowingService) today() time.Time {
	return models.DateOf(s.now().UTC())
}

// CreateBorrowing takes one copy of the book, records the borrowing and opens a payment session
// for daily_fee × days, all in one transaction.
func (s *BorrowingService) CreateBorrowing(ctx context.Context, user *models.User, bookID int64, expectedReturnDate time.Time) (*models.Borrowing, error) {
	if user == nil || user.ID == 0 {
		return nil, fmt.Errorf("%w: borrower is required", domain.ErrValidation)
	}

	today := s.today()
	expected := models.DateOf(expectedReturnDate)
	if expected.Before(today) {
		return nil, fmt.Errorf("%w: expected return date %s is before today %s",
			domain.ErrValidation, models.FormatDate(expected), models.FormatDate(today))
	}

	var created *models.Borrowing
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		book, err := tx.AdjustInventory(ctx, bookID, -1)
		if err != nil {
			return err
		}

		b := &models.Borrowing{
			UserID:             user.ID,
			BookID:             bookID,
			BorrowDate:         today,
			ExpectedReturnDate: expected,
		}
		if err := tx.CreateBorrowing(ctx, b); err != nil {
			return err
		}
		b.Book = book
		b.User = user

		amount := fees.BorrowingFee(book.DailyFee, today, expected)
		payment, err := s.charge(ctx, tx, b, models.PaymentTypePayment, amount)
		if err != nil {
			return err
		}
		if payment != nil {
			b.Payments = append(b.Payments, payment)
		}

		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BorrowingCreated()
	s.logger.Info().
		Int64("borrowing_id", created.ID).
		Int64("book_id", bookID).
		Int64("user_id", user.ID).
		Str("expected_return_date", models.FormatDate(expected)).
		Msg("Borrowing created")

	s.notify(ctx, models.NotificationKindBorrowingCreated, BorrowingCreatedMessage(created, s.payments.Currency))
	return created, nil
}

// ReturnBorrowing closes an active borrowing of the actor. A late return also opens a FINE session.
func (s *BorrowingService) ReturnBorrowing(ctx context.Context, borrowingID int64, actor *models.User) (*models.Borrowing, error) {
	today := s.today()

	var (
		returned *models.Borrowing
		fine     *models.Payment
	)
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		b, err := tx.GetBorrowing(ctx, borrowingID)
		if err != nil {
			return err
		}
		// Вернуть книгу может только тот, кто её взял
		if actor == nil || b.UserID != actor.ID {
			return fmt.Errorf("borrowing %d: %w", borrowingID, domain.ErrForbidden)
		}
		if !b.IsActive() {
			return fmt.Errorf("borrowing %d: %w", borrowingID, domain.ErrAlreadyReturned)
		}

		if err := tx.MarkReturned(ctx, borrowingID, today); err != nil {
			return err
		}
		book, err := tx.AdjustInventory(ctx, b.BookID, 1)
		if err != nil {
			return err
		}
		b.ActualReturnDate = &today
		b.Book = book

		if today.After(b.ExpectedReturnDate) {
			amount := fees.Fine(book.DailyFee, b.ExpectedReturnDate, today, s.fineMultiplier)
			fine, err = s.charge(ctx, tx, b, models.PaymentTypeFine, amount)
			if err != nil {
				return err
			}
			if fine != nil {
				b.Payments = append(b.Payments, fine)
			}
		}

		returned = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BorrowingReturned()
	s.logger.Info().
		Int64("borrowing_id", borrowingID).
		Bool("late", returned.ReturnedLate()).
		Msg("Borrowing returned")

	if fine != nil {
		s.metrics.FineCreated()
		s.notify(ctx, models.NotificationKindFine, FineMessage(returned, fine, s.payments.Currency))
	}
	return returned, nil
}

// CheckOverdue reports active borrowings expected back today or earlier. It never mutates state.
func (s *BorrowingService) CheckOverdue(ctx context.Context) ([]*models.Borrowing, error) {
	today := s.today()
	overdue, err := s.repo.ListOverdueBorrowings(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue borrowings: %w", err)
	}

	s.metrics.SetOverdue(len(overdue))
	s.logger.Info().Int("count", len(overdue)).Str("today", models.FormatDate(today)).Msg("Overdue check finished")

	if len(overdue) == 0 {
		s.notify(ctx, models.NotificationKindOverdue, NoOverdueMessage)
		return overdue, nil
	}
	for _, b := range overdue {
		s.notify(ctx, models.NotificationKindOverdue, OverdueMessage(b))
	}
	return overdue, nil
}

// ListOverdue is the staff view of what CheckOverdue would report, without sending anything.
func (s *BorrowingService) ListOverdue(ctx context.Context, actor *models.User) ([]*models.Borrowing, error) {
	if actor == nil || !actor.IsStaff {
		return nil, fmt.Errorf("%w: overdue list is staff only", domain.ErrForbidden)
	}
	overdue, err := s.repo.ListOverdueBorrowings(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue borrowings: %w", err)
	}
	return overdue, nil
}

// GetBorrowing hides borrowings of other users from non-staff actors.
func (s *BorrowingService) GetBorrowing(ctx context.Context, id int64, actor *models.User) (*models.Borrowing, error) {
	b, err := s.repo.GetBorrowing(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, b) {
		return nil, fmt.Errorf("borrowing %d: %w", id, domain.ErrNotFound)
	}
	return b, nil
}

// ListBorrowings returns the actor's own borrowings, or any user's for staff.
func (s *BorrowingService) ListBorrowings(ctx context.Context, actor *models.User, filter models.BorrowingFilter) ([]*models.Borrowing, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: actor is required", domain.ErrForbidden)
	}
	if !actor.IsStaff {
		filter.UserID = actor.ID
	}
	return s.repo.ListBorrowings(ctx, filter)
}

// charge opens a gateway session and stores the payment inside a savepoint.
// Gateway failures are logged and leave the borrowing without that payment.
// A zero amount creates nothing.
func (s *BorrowingService) charge(
	ctx context.Context,
	tx domain.Tx,
	b *models.Borrowing,
	paymentType models.PaymentType,
	amount int64,
) (*models.Payment, error) {
	if amount <= 0 || s.gateway == nil {
		return nil, nil
	}

	var (
		payment    *models.Payment
		gatewayErr error
	)
	err := tx.Savepoint(ctx, "payment_step", func() error {
		session, err := s.gateway.CreateSession(ctx, domain.SessionRequest{
			AmountMinor:    amount,
			Description:    paymentDescription(b, paymentType),
			SuccessURL:     s.payments.SuccessURL,
			CancelURL:      s.payments.CancelURL,
			IdempotencyKey: uuid.NewString(),
		})
		if err != nil {
			gatewayErr = err
			return err
		}

		p := &models.Payment{
			BorrowingID: b.ID,
			Status:      models.PaymentStatusPending,
			Type:        paymentType,
			SessionID:   session.ID,
			SessionURL:  session.URL,
			AmountMinor: amount,
		}
		if err := tx.CreatePayment(ctx, p); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err == nil {
		return payment, nil
	}

	if gatewayErr != nil && err == gatewayErr { // savepoint rolled back cleanly
		s.metrics.PaymentFailed(string(paymentType))
		s.logger.Error().Err(err).
			Int64("borrowing_id", b.ID).
			Str("type", string(paymentType)).
			Int64("amount", amount).
			Msg("Payment session failed, borrowing kept without payment")
		return nil, nil
	}
	return nil, err
}

func (s *BorrowingService) notify(ctx context.Context, kind, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, kind, message); err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Msg("Failed to enqueue notification")
	}
}

func paymentDescription(b *models.Borrowing, paymentType models.PaymentType) string {
	if paymentType == models.PaymentTypeFine {
		return fmt.Sprintf("Late return fine: %s", bookTitle(b))
	}
	return fmt.Sprintf("Borrowing: %s (%s to %s)",
		bookTitle(b), models.FormatDate(b.BorrowDate), models.FormatDate(b.ExpectedReturnDate))
}

func canView(actor *models.User, b *models.Borrowing) bool {
	return actor != nil && (actor.IsStaff || actor.ID == b.UserID)
}
