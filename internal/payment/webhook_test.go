package payment_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bookingdb "ms-reservations/internal/booking/db"
	"ms-reservations/internal/models"
	"ms-reservations/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82/webhook"
)

const whSecret = "whsec_test"

type MockStatusUpdater struct {
	mock.Mock
}

func (m *MockStatusUpdater) UpdateStatus(ctx context.Context, id string, next models.BookingStatus) (*models.Booking, error) {
	args := m.Called(ctx, id, next)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockStatusUpdater) UpdatePaymentStatus(ctx context.Context, id string, next models.PaymentStatus) (*models.Booking, error) {
	args := m.Called(ctx, id, next)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func signedRequest(t *testing.T, eventType, sessionJSON string) *http.Request {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","type":%q,"data":{"object":%s}}`, eventType, sessionJSON))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    whSecret,
		Timestamp: time.Now(),
	})
	r := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(signed.Payload))
	r.Header.Set("Stripe-Signature", signed.Header)
	return r
}

func TestWebhookCompletedConfirmsBooking(t *testing.T) {
	db := new(MockStatusUpdater)
	h := payment.NewWebhookHandler(db, whSecret, nil)

	db.On("UpdatePaymentStatus", mock.Anything, "bk-1", models.PaymentCompleted).
		Return(&models.Booking{BookingID: "bk-1", PaymentStatus: models.PaymentCompleted}, nil)
	db.On("UpdateStatus", mock.Anything, "bk-1", models.BookingConfirmed).
		Return(&models.Booking{BookingID: "bk-1", Status: models.BookingConfirmed}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, signedRequest(t, "checkout.session.completed",
		`{"id":"cs_1","client_reference_id":"bk-1","metadata":{"booking_id":"bk-1"}}`))

	assert.Equal(t, http.StatusOK, w.Code)
	db.AssertExpectations(t)
}

func TestWebhookCompletedRedeliveryIsAcknowledged(t *testing.T) {
	db := new(MockStatusUpdater)
	h := payment.NewWebhookHandler(db, whSecret, nil)

	// at-least-once delivery: the booking was confirmed by the first
	// delivery, so the status update now rejects the transition
	db.On("UpdatePaymentStatus", mock.Anything, "bk-1", models.PaymentCompleted).
		Return(&models.Booking{BookingID: "bk-1", PaymentStatus: models.PaymentCompleted}, nil)
	db.On("UpdateStatus", mock.Anything, "bk-1", models.BookingConfirmed).
		Return(nil, fmt.Errorf("%w: confirmed -> confirmed", bookingdb.ErrIllegalTransition))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, signedRequest(t, "checkout.session.completed",
		`{"id":"cs_1","client_reference_id":"bk-1","metadata":{"booking_id":"bk-1"}}`))

	assert.Equal(t, http.StatusOK, w.Code)
	db.AssertExpectations(t)
}

func TestWebhookExpiredMarksPaymentFailed(t *testing.T) {
	db := new(MockStatusUpdater)
	h := payment.NewWebhookHandler(db, whSecret, nil)

	db.On("UpdatePaymentStatus", mock.Anything, "bk-2", models.PaymentFailed).
		Return(&models.Booking{BookingID: "bk-2", PaymentStatus: models.PaymentFailed}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, signedRequest(t, "checkout.session.expired",
		`{"id":"cs_2","client_reference_id":"bk-2"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	db.AssertExpectations(t)
	db.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	db := new(MockStatusUpdater)
	h := payment.NewWebhookHandler(db, whSecret, nil)

	r := httptest.NewRequest(http.MethodPost, "/webhooks/stripe",
		bytes.NewReader([]byte(`{"id":"evt_x","type":"checkout.session.completed"}`)))
	r.Header.Set("Stripe-Signature", "t=1,v1=bogus")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	db.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookAcknowledgesUnknownEvents(t *testing.T) {
	db := new(MockStatusUpdater)
	h := payment.NewWebhookHandler(db, whSecret, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, signedRequest(t, "customer.created", `{"id":"cus_1"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	db.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookAcknowledgesCartCheckouts(t *testing.T) {
	db := new(MockStatusUpdater)
	h := payment.NewWebhookHandler(db, whSecret, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, signedRequest(t, "checkout.session.completed",
		`{"id":"cs_3","client_reference_id":"order-9","metadata":{"kind":"cart","order_ref":"order-9"}}`))

	assert.Equal(t, http.StatusOK, w.Code)
	db.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
	db.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
