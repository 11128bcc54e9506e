// Package payments adapts the Stripe checkout API to the borrowing services.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"library/internal/config"
	"library/internal/domain"
	"library/internal/models"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type sessionClient interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type StripeGateway struct {
	sessions sessionClient
	currency string
	logger   *zerolog.Logger
}

// NewStripeGateway builds a gateway with its own client; nothing is stored in stripe package globals.
func NewStripeGateway(cfg config.PaymentsConfig, backends *stripe.Backends, logger *zerolog.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("payments secret key is required")
	}
	sc := &client.API{}
	sc.Init(cfg.SecretKey, backends)
	return newGateway(sc.CheckoutSessions, cfg.Currency, logger), nil
}

func newGateway(sessions sessionClient, currency string, logger *zerolog.Logger) *StripeGateway {
	if currency == "" {
		currency = "usd"
	}
	return &StripeGateway{sessions: sessions, currency: strings.ToLower(currency), logger: logger}
}

// CreateSession opens a one-off checkout session for the amount in minor units.
func (g *StripeGateway) CreateSession(ctx context.Context, req domain.SessionRequest) (*domain.Session, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: session amount must be positive, got %d", domain.ErrValidation, req.AmountMinor)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(req.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := g.sessions.New(params)
	if err != nil {
		g.logger.Error().Err(err).Int64("amount", req.AmountMinor).Msg("Failed to create checkout session")
		return nil, fmt.Errorf("%w: create session: %v", domain.ErrGateway, err)
	}

	g.logger.Debug().Str("session_id", s.ID).Int64("amount", req.AmountMinor).Msg("Checkout session created")
	return &domain.Session{ID: s.ID, URL: s.URL}, nil
}

// SessionStatus maps the checkout payment status onto PENDING or PAID.
func (g *StripeGateway) SessionStatus(ctx context.Context, sessionID string) (models.PaymentStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("%w: get session %s: %v", domain.ErrGateway, sessionID, err)
	}

	switch s.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return models.PaymentStatusPaid, nil
	default:
		return models.PaymentStatusPending, nil
	}
}
