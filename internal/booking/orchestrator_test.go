package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-reservations/internal/booking"
	"ms-reservations/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCreator struct {
	mock.Mock
}

func (m *MockCreator) CreateBooking(ctx context.Context, b models.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockCreator) SetPaymentRef(ctx context.Context, id, ref string) error {
	args := m.Called(ctx, id, ref)
	return args.Error(0)
}

type MockIdentifierService struct {
	mock.Mock
}

func (m *MockIdentifierService) GeneratePassportID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateCheckoutSession(ctx context.Context, req booking.CheckoutRequest) (booking.CheckoutSession, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(booking.CheckoutSession), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingCreated(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockPublisher) PublishBookingCancelled(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

var orchNow = time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)

func draftForTomorrow() models.BookingDraft {
	return models.BookingDraft{
		ExperienceType: "tasting",
		Date:           orchNow.AddDate(0, 0, 1).Format("2006-01-02"),
		TimeSlot:       "19:00",
		Guests:         2,
		Name:           "Ana",
		Email:          "a@b.com",
		Phone:          "+15551234567",
	}
}

func newOrchestrator(db *MockCreator, ids *MockIdentifierService, payments *MockPaymentService, events *MockPublisher) *booking.Orchestrator {
	var pub booking.Publisher
	if events != nil {
		pub = events
	}
	o := booking.NewOrchestrator(db, ids, payments, pub, nil, 45, 12)
	o.Clock = func() time.Time { return orchNow }
	return o
}

func TestInvalidDraftInvokesNoCollaborator(t *testing.T) {
	db := new(MockCreator)
	ids := new(MockIdentifierService)
	payments := new(MockPaymentService)
	events := new(MockPublisher)
	o := newOrchestrator(db, ids, payments, events)
	s := booking.NewStore("guest-1", nil, nil)

	draft := draftForTomorrow()
	draft.Guests = 0
	draft.Email = "nope"

	res := o.Submit(context.Background(), s, draft)

	assert.Equal(t, booking.OutcomeValidationFailed, res.Outcome)
	assert.NotEmpty(t, res.Errors)
	db.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	ids.AssertNotCalled(t, "GeneratePassportID", mock.Anything)
	payments.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "PublishBookingCreated", mock.Anything)
	assert.True(t, s.State().IsEmpty)
}

func TestHappyPathEndToEnd(t *testing.T) {
	db := new(MockCreator)
	ids := new(MockIdentifierService)
	payments := new(MockPaymentService)
	events := new(MockPublisher)
	o := newOrchestrator(db, ids, payments, events)
	s := booking.NewStore("guest-1", nil, nil)

	db.On("CreateBooking", mock.Anything, mock.MatchedBy(func(b models.Booking) bool {
		return b.Status == models.BookingPending &&
			b.PaymentStatus == models.PaymentPending &&
			b.TotalAmount == 90 // 45 x 2 guests, no add-on
	})).Return(nil)
	db.On("SetPaymentRef", mock.Anything, mock.Anything, "cs_123").Return(nil)
	payments.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(booking.CheckoutSession{SessionID: "cs_123", URL: "https://pay.example/cs_123"}, nil)
	events.On("PublishBookingCreated", mock.Anything).Return(nil)

	res := o.Submit(context.Background(), s, draftForTomorrow())

	require.Equal(t, booking.OutcomeCreated, res.Outcome)
	assert.Equal(t, "https://pay.example/cs_123", res.PaymentURL)

	st := s.State()
	require.Len(t, st.Bookings, 1)
	assert.Equal(t, "cs_123", st.Bookings[0].PaymentRef)
	assert.Equal(t, models.PaymentPending, st.Bookings[0].PaymentStatus)
	assert.False(t, st.Draft.Present())
	cur, ok := st.Current.Get()
	require.True(t, ok)
	assert.Equal(t, res.Booking.BookingID, cur.BookingID)
	db.AssertExpectations(t)
	payments.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestPassportAddOnPricingAndIssuance(t *testing.T) {
	db := new(MockCreator)
	ids := new(MockIdentifierService)
	payments := new(MockPaymentService)
	o := newOrchestrator(db, ids, payments, nil)
	s := booking.NewStore("guest-1", nil, nil)

	ids.On("GeneratePassportID", mock.Anything).Return("PP-777", nil)
	db.On("CreateBooking", mock.Anything, mock.MatchedBy(func(b models.Booking) bool {
		return b.PassportID == "PP-777" && b.TotalAmount == 102 // 45x2 + 12
	})).Return(nil)
	db.On("SetPaymentRef", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	payments.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req booking.CheckoutRequest) bool {
		return req.Amount == 102
	})).Return(booking.CheckoutSession{SessionID: "cs_1", URL: "https://pay.example/cs_1"}, nil)

	draft := draftForTomorrow()
	draft.PassportEnabled = true

	res := o.Submit(context.Background(), s, draft)
	require.Equal(t, booking.OutcomeCreated, res.Outcome)
	assert.Equal(t, "PP-777", res.Booking.PassportID)
	ids.AssertExpectations(t)
}

func TestPassportIssuanceFailureIsFatal(t *testing.T) {
	db := new(MockCreator)
	ids := new(MockIdentifierService)
	payments := new(MockPaymentService)
	o := newOrchestrator(db, ids, payments, nil)
	s := booking.NewStore("guest-1", nil, nil)

	ids.On("GeneratePassportID", mock.Anything).Return("", errors.New("id service down"))

	draft := draftForTomorrow()
	draft.PassportEnabled = true

	res := o.Submit(context.Background(), s, draft)
	assert.Equal(t, booking.OutcomeBackendFailed, res.Outcome)
	db.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	assert.True(t, s.State().IsEmpty)
	assert.NotEmpty(t, s.Err())
}

func TestBookingCreateFailureSkipsPayment(t *testing.T) {
	db := new(MockCreator)
	payments := new(MockPaymentService)
	o := newOrchestrator(db, new(MockIdentifierService), payments, nil)
	s := booking.NewStore("guest-1", nil, nil)

	db.On("CreateBooking", mock.Anything, mock.Anything).Return(errors.New("db down"))

	res := o.Submit(context.Background(), s, draftForTomorrow())
	assert.Equal(t, booking.OutcomeBackendFailed, res.Outcome)
	payments.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	assert.True(t, s.State().IsEmpty)
}

func TestPaymentHandoffFailureLeavesNoVisibleBooking(t *testing.T) {
	db := new(MockCreator)
	payments := new(MockPaymentService)
	events := new(MockPublisher)
	o := newOrchestrator(db, new(MockIdentifierService), payments, events)
	s := booking.NewStore("guest-1", nil, nil)

	db.On("CreateBooking", mock.Anything, mock.Anything).Return(nil)
	payments.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(booking.CheckoutSession{}, errors.New("stripe unavailable"))

	res := o.Submit(context.Background(), s, draftForTomorrow())

	assert.Equal(t, booking.OutcomePaymentHandoffFailed, res.Outcome)
	// booking exists server-side as pending/pending but is not surfaced
	db.AssertCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	assert.True(t, s.State().IsEmpty)
	assert.NotEmpty(t, s.Err())
	events.AssertNotCalled(t, "PublishBookingCreated", mock.Anything)
}

func TestEventPublishFailureIsSwallowed(t *testing.T) {
	db := new(MockCreator)
	payments := new(MockPaymentService)
	events := new(MockPublisher)
	o := newOrchestrator(db, new(MockIdentifierService), payments, events)
	s := booking.NewStore("guest-1", nil, nil)

	db.On("CreateBooking", mock.Anything, mock.Anything).Return(nil)
	db.On("SetPaymentRef", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	payments.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(booking.CheckoutSession{SessionID: "cs_9", URL: "https://pay.example/cs_9"}, nil)
	events.On("PublishBookingCreated", mock.Anything).Return(errors.New("kafka down"))

	res := o.Submit(context.Background(), s, draftForTomorrow())

	assert.Equal(t, booking.OutcomeCreated, res.Outcome)
	require.Len(t, s.State().Bookings, 1)
	assert.Empty(t, s.Err())
}
