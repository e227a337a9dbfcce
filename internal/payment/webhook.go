package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-reservations/internal/booking/db"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// WebhookError classifies a webhook failure and separates what is safe to
// expose from what belongs in the logs.
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

// StatusUpdater is the slice of the booking DB the webhook needs.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, next models.BookingStatus) (*models.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, next models.PaymentStatus) (*models.Booking, error)
}

// WebhookHandler closes the payment loop: Stripe reports the checkout
// outcome and the booking's payment axis is updated accordingly.
type WebhookHandler struct {
	DB            StatusUpdater
	WebhookSecret string
	Log           *logger.Logger
}

func NewWebhookHandler(db StatusUpdater, webhookSecret string, log *logger.Logger) *WebhookHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &WebhookHandler{DB: db, WebhookSecret: webhookSecret, Log: log}
}

// ServeHTTP handles POST /webhooks/stripe.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.process(r); err != nil {
		var whErr *WebhookError
		if e, ok := err.(*WebhookError); ok {
			whErr = e
		} else {
			whErr = &WebhookError{
				Category:      "processing",
				StatusCode:    http.StatusInternalServerError,
				PublicError:   "Webhook processing error",
				InternalError: err.Error(),
			}
		}
		h.Log.Error("WEBHOOK", whErr.InternalError)
		http.Error(w, whErr.PublicError, whErr.StatusCode)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) process(r *http.Request) error {
	if h.WebhookSecret == "" {
		return &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("failed to read webhook payload: %v", err),
			OriginalErr:   err,
		}
	}

	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.WebhookSecret, opts)
	if err != nil {
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook signature",
			InternalError: fmt.Sprintf("webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	h.Log.Info("WEBHOOK", "processing Stripe event: "+string(event.Type))

	switch event.Type {
	case "checkout.session.completed":
		return h.handleCheckoutOutcome(r.Context(), event.Data.Raw, true)
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		return h.handleCheckoutOutcome(r.Context(), event.Data.Raw, false)
	default:
		// unrecognized events are acknowledged, not errored, so Stripe does
		// not retry them forever
		h.Log.Debug("WEBHOOK", "ignoring event type "+string(event.Type))
		return nil
	}
}

func (h *WebhookHandler) handleCheckoutOutcome(ctx context.Context, raw json.RawMessage, succeeded bool) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid event data",
			InternalError: fmt.Sprintf("failed to unmarshal checkout session: %v", err),
			OriginalErr:   err,
		}
	}

	if session.Metadata["kind"] == "cart" {
		// cart orders have no booking row to update; the order ref is
		// settled by the session itself
		h.Log.Info("WEBHOOK", "acknowledged cart checkout "+session.Metadata["order_ref"])
		return nil
	}

	bookingID := session.Metadata["booking_id"]
	if bookingID == "" {
		bookingID = session.ClientReferenceID
	}
	if bookingID == "" {
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid checkout session data",
			InternalError: "checkout session carries no booking reference",
		}
	}

	if !succeeded {
		if _, err := h.DB.UpdatePaymentStatus(ctx, bookingID, models.PaymentFailed); err != nil {
			return fmt.Errorf("failed to mark payment failed for %s: %w", bookingID, err)
		}
		h.Log.LogBooking("PAYMENT_FAILED", bookingID, "checkout session did not complete")
		return nil
	}

	if _, err := h.DB.UpdatePaymentStatus(ctx, bookingID, models.PaymentCompleted); err != nil {
		return fmt.Errorf("failed to mark payment completed for %s: %w", bookingID, err)
	}
	if _, err := h.DB.UpdateStatus(ctx, bookingID, models.BookingConfirmed); err != nil {
		// Stripe delivers at-least-once: a redelivered completion finds the
		// booking already past pending. That is not a failure; answering
		// non-2xx would make Stripe retry a settled booking forever.
		if errors.Is(err, db.ErrIllegalTransition) {
			h.Log.Info("WEBHOOK", "duplicate completion delivery for booking "+bookingID+", already past pending")
			return nil
		}
		return fmt.Errorf("failed to confirm booking %s: %w", bookingID, err)
	}
	h.Log.LogBooking("PAYMENT_COMPLETED", bookingID, "checkout session completed, booking confirmed")
	return nil
}
