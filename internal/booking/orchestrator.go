package booking

import (
	"context"
	"fmt"
	"time"

	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/validation"

	"github.com/google/uuid"
)

// Outcome classifies the result of a submission.
type Outcome string

const (
	OutcomeCreated              Outcome = "created"
	OutcomeValidationFailed     Outcome = "validation_failed"
	OutcomeBackendFailed        Outcome = "backend_failed"
	OutcomePaymentHandoffFailed Outcome = "payment_handoff_failed"
)

// SubmitResult is what the UI layer gets back from Submit. On
// OutcomeCreated, PaymentURL is where the guest is redirected; control
// leaves the application at that point.
type SubmitResult struct {
	Outcome    Outcome                 `json:"outcome"`
	Errors     []validation.FieldError `json:"errors,omitempty"`
	Booking    models.Booking          `json:"booking,omitempty"`
	PaymentURL string                  `json:"payment_url,omitempty"`
	Message    string                  `json:"message,omitempty"`
}

// IdentifierService issues passport IDs. Idempotency is not required; a
// failed issuance fails the whole submission, which is then retried whole.
type IdentifierService interface {
	GeneratePassportID(ctx context.Context) (string, error)
}

// CheckoutRequest is the payment handoff contract.
type CheckoutRequest struct {
	Amount    float64
	Reference string
	Metadata  map[string]string
}

// CheckoutSession is the payment collaborator's response; the orchestrator
// only consumes the redirect URL.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// PaymentService creates a payment session for a computed total.
type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
}

// Creator persists new bookings. *db.DB satisfies it.
type Creator interface {
	CreateBooking(ctx context.Context, booking models.Booking) error
	SetPaymentRef(ctx context.Context, id, ref string) error
}

// Orchestrator sequences the create-and-pay flow. Each step is gated on
// the previous one; no step is retried automatically.
type Orchestrator struct {
	DB        Creator
	IDs       IdentifierService
	Payments  PaymentService
	Events    Publisher
	Log       *logger.Logger
	BasePrice float64
	AddOnFee  float64
	Clock     func() time.Time
}

func NewOrchestrator(db Creator, ids IdentifierService, payments PaymentService, events Publisher, log *logger.Logger, basePrice, addOnFee float64) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Orchestrator{
		DB:        db,
		IDs:       ids,
		Payments:  payments,
		Events:    events,
		Log:       log,
		BasePrice: basePrice,
		AddOnFee:  addOnFee,
		Clock:     time.Now,
	}
}

// Submit runs the full sequence for one draft and, on success, merges the
// created booking into the store under the async contract. A failure at
// any gate leaves nothing visible to the guest; a booking created in the
// DB but failing at the payment gate stays server-side as pending/pending
// for operational reconciliation.
func (o *Orchestrator) Submit(ctx context.Context, s *Store, draft models.BookingDraft) SubmitResult {
	// Gate 1: validation. No collaborator is called on an invalid draft.
	if res := validation.ValidateBookingDraft(draft, o.Clock()); !res.Valid {
		return SubmitResult{Outcome: OutcomeValidationFailed, Errors: res.Errors}
	}

	var result SubmitResult
	err := s.inner.Async(ctx, func(ctx context.Context) (func(State) State, error) {
		r, err := o.run(ctx, s.GuestID(), draft)
		result = r
		if err != nil {
			return nil, err
		}
		return func(st State) State {
			st.Bookings = append([]models.Booking{r.Booking}, st.Bookings...)
			st.Current = models.WithBooking(r.Booking)
			st.Draft = models.NoDraft()
			return st
		}, nil
	})
	if err != nil {
		result.Message = err.Error()
	}
	return result
}

func (o *Orchestrator) run(ctx context.Context, guestID string, draft models.BookingDraft) (SubmitResult, error) {
	// Gate 2: passport issuance, fatal on failure. The add-on flag can not
	// be silently dropped.
	passportID := ""
	if draft.PassportEnabled {
		id, err := o.IDs.GeneratePassportID(ctx)
		if err != nil {
			o.Log.Error("ORCHESTRATOR", "passport issuance failed: "+err.Error())
			return SubmitResult{Outcome: OutcomeBackendFailed}, fmt.Errorf("passport issuance failed: %w", err)
		}
		passportID = id
	}

	// Gate 3: price computation.
	total := o.BasePrice * float64(draft.Guests)
	if draft.PassportEnabled {
		total += o.AddOnFee
	}

	// Gate 4: create the booking pending/pending.
	now := o.Clock().UTC()
	booking := models.Booking{
		BookingID:       uuid.New().String(),
		GuestID:         guestID,
		ExperienceType:  draft.ExperienceType,
		Date:            draft.Date,
		TimeSlot:        draft.TimeSlot,
		Guests:          draft.Guests,
		Name:            draft.Name,
		Email:           draft.Email,
		Phone:           draft.Phone,
		SpecialRequests: draft.SpecialRequests,
		SectorTags:      draft.SectorTags,
		PassportEnabled: draft.PassportEnabled,
		PassportID:      passportID,
		TotalAmount:     total,
		Status:          models.BookingPending,
		PaymentStatus:   models.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := o.DB.CreateBooking(ctx, booking); err != nil {
		o.Log.Error("ORCHESTRATOR", "booking create failed: "+err.Error())
		return SubmitResult{Outcome: OutcomeBackendFailed}, fmt.Errorf("booking create failed: %w", err)
	}

	// Gate 5: payment session. On failure the pending booking stays
	// server-side but is not surfaced.
	session, err := o.Payments.CreateCheckoutSession(ctx, CheckoutRequest{
		Amount:    total,
		Reference: booking.BookingID,
		Metadata: map[string]string{
			"booking_id": booking.BookingID,
			"guest_id":   guestID,
		},
	})
	if err != nil {
		o.Log.Error("ORCHESTRATOR", "payment handoff failed for "+booking.BookingID+": "+err.Error())
		return SubmitResult{Outcome: OutcomePaymentHandoffFailed}, fmt.Errorf("payment handoff failed: %w", err)
	}
	booking.PaymentRef = session.SessionID
	if err := o.DB.SetPaymentRef(ctx, booking.BookingID, session.SessionID); err != nil {
		// the session exists; losing the ref is recoverable via metadata
		o.Log.Warn("ORCHESTRATOR", "payment ref write failed for "+booking.BookingID+": "+err.Error())
	}

	// Step 6: post-commit event, best-effort. A publish failure never
	// rolls back the booking or the payment session.
	if o.Events != nil {
		if err := o.Events.PublishBookingCreated(booking); err != nil {
			o.Log.Warn("ORCHESTRATOR", "booking event publish failed for "+booking.BookingID+": "+err.Error())
		}
	}

	o.Log.LogBooking("CREATED", booking.BookingID, fmt.Sprintf("%s %s x%d, total %.2f", booking.Date, booking.TimeSlot, booking.Guests, total))
	return SubmitResult{
		Outcome:    OutcomeCreated,
		Booking:    booking,
		PaymentURL: session.URL,
	}, nil
}
