package service

import (
	"context"
	"fmt"

	"library/internal/domain"
	"library/internal/models"

	"github.com/rs/zerolog"
)

type PaymentService struct {
	repo    domain.Repository
	gateway domain.PaymentGateway
	logger  *zerolog.Logger
}

func NewPaymentService(repo domain.Repository, gateway domain.PaymentGateway, logger *zerolog.Logger) *PaymentService {
	return &PaymentService{repo: repo, gateway: gateway, logger: logger}
}

// ListPayments returns the actor's payments, or every payment for staff.
func (s *PaymentService) ListPayments(ctx context.Context, actor *models.User) ([]*models.Payment, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: actor is required", domain.ErrForbidden)
	}
	filter := models.PaymentFilter{}
	if !actor.IsStaff {
		filter.UserID = actor.ID
	}
	return s.repo.ListPayments(ctx, filter)
}

// RefreshPayment asks the gateway about the session and marks the payment PAID once it is settled.
func (s *PaymentService) RefreshPayment(ctx context.Context, actor *models.User, paymentID int64) (*models.Payment, error) {
	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	borrowing, err := s.repo.GetBorrowing(ctx, payment.BorrowingID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, borrowing) {
		return nil, fmt.Errorf("payment %d: %w", paymentID, domain.ErrNotFound)
	}

	if payment.Status == models.PaymentStatusPaid || s.gateway == nil {
		return payment, nil
	}

	status, err := s.gateway.SessionStatus(ctx, payment.SessionID)
	if err != nil {
		return nil, err
	}
	if status != models.PaymentStatusPaid {
		return payment, nil
	}

	if err := s.repo.UpdatePaymentStatus(ctx, paymentID, models.PaymentStatusPaid); err != nil {
		return nil, err
	}
	payment.Status = models.PaymentStatusPaid

	s.logger.Info().Int64("payment_id", paymentID).Str("type", string(payment.Type)).Msg("Payment settled")
	return payment, nil
}
