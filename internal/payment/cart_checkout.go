package payment

import (
	"context"
	"fmt"

	"ms-reservations/internal/booking"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"

	"github.com/google/uuid"
)

// CartCheckout turns a cart into a paid order by opening a Checkout
// Session for the cart total. It satisfies the cart store's checkout
// collaborator.
type CartCheckout struct {
	Payments *StripeService
	Log      *logger.Logger
}

func NewCartCheckout(payments *StripeService, log *logger.Logger) *CartCheckout {
	if log == nil {
		log = logger.NewNop()
	}
	return &CartCheckout{Payments: payments, Log: log}
}

func (c *CartCheckout) Checkout(ctx context.Context, lines []models.CartLine) (string, error) {
	total := 0.0
	for _, l := range lines {
		total += l.Subtotal()
	}

	orderRef := uuid.New().String()
	session, err := c.Payments.CreateCheckoutSession(ctx, booking.CheckoutRequest{
		Amount:    total,
		Reference: orderRef,
		Metadata:  map[string]string{"order_ref": orderRef, "kind": "cart"},
	})
	if err != nil {
		return "", fmt.Errorf("cart checkout failed: %w", err)
	}

	c.Log.Info("STRIPE", fmt.Sprintf("cart order %s handed off to session %s", orderRef, session.SessionID))
	return orderRef, nil
}
