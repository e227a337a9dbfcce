package notification_test

import (
	"errors"
	"testing"

	"ms-reservations/internal/config"
	"ms-reservations/internal/kafka"
	"ms-reservations/internal/models"
	"ms-reservations/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(recipient, subject, message string) error {
	args := m.Called(recipient, subject, message)
	return args.Error(0)
}

func sampleBooking() models.Booking {
	return models.Booking{
		BookingID:      "bk-1",
		GuestID:        "guest-1",
		ExperienceType: "dining",
		Date:           "2026-10-01",
		TimeSlot:       "19:00",
		Guests:         2,
		Name:           "Ada",
		Email:          "ada@example.com",
		TotalAmount:    90,
		Status:         models.BookingPending,
		PaymentStatus:  models.PaymentPending,
	}
}

func TestWorkerSendsConfirmation(t *testing.T) {
	n := new(MockNotifier)
	w := notification.NewWorker(n, nil)

	n.On("Notify", "ada@example.com", mock.Anything, mock.MatchedBy(func(body string) bool {
		return assert.Contains(t, body, "bk-1") && assert.Contains(t, body, "19:00")
	})).Return(nil)

	w.Handle(kafka.BookingEvent{Type: kafka.EventBookingCreated, Booking: sampleBooking()})
	n.AssertExpectations(t)
}

func TestWorkerMentionsPassportWhenEnabled(t *testing.T) {
	n := new(MockNotifier)
	w := notification.NewWorker(n, nil)

	b := sampleBooking()
	b.PassportEnabled = true
	b.PassportID = "PP-ABCD1234"

	n.On("Notify", b.Email, mock.Anything, mock.MatchedBy(func(body string) bool {
		return assert.Contains(t, body, "PP-ABCD1234")
	})).Return(nil)

	w.Handle(kafka.BookingEvent{Type: kafka.EventBookingCreated, Booking: b})
	n.AssertExpectations(t)
}

func TestWorkerCancellationMentionsRefundForPaidBookings(t *testing.T) {
	n := new(MockNotifier)
	w := notification.NewWorker(n, nil)

	b := sampleBooking()
	b.Status = models.BookingCancelled
	b.PaymentStatus = models.PaymentRefunded

	n.On("Notify", b.Email, mock.Anything, mock.MatchedBy(func(body string) bool {
		return assert.Contains(t, body, "refund")
	})).Return(nil)

	w.Handle(kafka.BookingEvent{Type: kafka.EventBookingCancelled, Booking: b})
	n.AssertExpectations(t)
}

func TestWorkerSkipsBookingWithoutEmail(t *testing.T) {
	n := new(MockNotifier)
	w := notification.NewWorker(n, nil)

	b := sampleBooking()
	b.Email = ""

	w.Handle(kafka.BookingEvent{Type: kafka.EventBookingCreated, Booking: b})
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkerSwallowsDeliveryFailure(t *testing.T) {
	n := new(MockNotifier)
	w := notification.NewWorker(n, nil)

	n.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	// must not panic or propagate
	w.Handle(kafka.BookingEvent{Type: kafka.EventBookingCreated, Booking: sampleBooking()})
	n.AssertExpectations(t)
}

func TestForConfigFallsBackToConsole(t *testing.T) {
	n := notification.ForConfig(config.EmailConfig{}, nil)
	_, ok := n.(*notification.ConsoleNotifier)
	assert.True(t, ok, "unconfigured SMTP must select the console notifier")

	n = notification.ForConfig(config.EmailConfig{SMTPUsername: "mailer", SMTPHost: "smtp.venue.example"}, nil)
	_, ok = n.(*notification.SMTPNotifier)
	assert.True(t, ok, "configured SMTP credentials must select the SMTP notifier")
}

func TestWorkerIgnoresUnknownEventTypes(t *testing.T) {
	n := new(MockNotifier)
	w := notification.NewWorker(n, nil)

	w.Handle(kafka.BookingEvent{Type: "booking.teleported", Booking: sampleBooking()})
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}
