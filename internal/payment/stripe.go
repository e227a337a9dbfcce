// Package payment wraps the Stripe integration: Checkout Session creation
// for the booking handoff and webhook handling for the payment outcome.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ms-reservations/internal/booking"
	"ms-reservations/internal/config"
	"ms-reservations/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
	ErrInvalidAmount          = errors.New("invalid payment amount")
)

// StripeService creates Checkout Sessions. The orchestrator only consumes
// the returned redirect URL.
type StripeService struct {
	client *client.API
	cfg    config.StripeConfig
	log    *logger.Logger
}

func NewStripeService(cfg config.StripeConfig, log *logger.Logger) (*StripeService, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.SecretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY is not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(cfg.SecretKey, nil)
	log.Info("STRIPE", "Stripe client initialized")
	return &StripeService{client: sc, cfg: cfg, log: log}, nil
}

// CreateCheckoutSession creates a payment session for the computed booking
// total and returns its redirect URL.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, req booking.CheckoutRequest) (booking.CheckoutSession, error) {
	if req.Amount <= 0 {
		s.log.Error("STRIPE", fmt.Sprintf("invalid amount %.2f for reference %s", req.Amount, req.Reference))
		return booking.CheckoutSession{}, fmt.Errorf("%w: %.2f", ErrInvalidAmount, req.Amount)
	}

	amountInCents := int64(math.Round(req.Amount * 100))

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Table reservation"),
					},
					UnitAmount: stripe.Int64(amountInCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(req.Reference),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("checkout session creation failed for %s: %v", req.Reference, err))
		return booking.CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}

	s.log.Info("STRIPE", fmt.Sprintf("created checkout session %s for %s (%.2f %s)", sess.ID, req.Reference, req.Amount, s.cfg.Currency))
	return booking.CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}
