package notification

import (
	"fmt"

	"ms-reservations/internal/kafka"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
)

// Worker turns booking events into guest-facing messages. Delivery
// failures are logged and dropped; notifications never block or fail
// the booking flow that produced them.
type Worker struct {
	notifier Notifier
	log      *logger.Logger
}

func NewWorker(notifier Notifier, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Worker{notifier: notifier, log: log}
}

// Handle is the kafka consumer callback.
func (w *Worker) Handle(event kafka.BookingEvent) {
	b := event.Booking
	if b.Email == "" {
		w.log.Warn("NOTIFY", "booking "+b.BookingID+" has no guest email, skipping")
		return
	}

	var subject, body string
	switch event.Type {
	case kafka.EventBookingCreated:
		subject = "Your reservation is in"
		body = confirmationBody(b)
	case kafka.EventBookingCancelled:
		subject = "Your reservation was cancelled"
		body = cancellationBody(b)
	default:
		w.log.Warn("NOTIFY", "unknown event type: "+event.Type)
		return
	}

	if err := w.notifier.Notify(b.Email, subject, body); err != nil {
		w.log.Error("NOTIFY", fmt.Sprintf("delivery failed for booking %s: %v", b.BookingID, err))
		return
	}
	w.log.Info("NOTIFY", fmt.Sprintf("sent %s notice for booking %s", event.Type, b.BookingID))
}

func confirmationBody(b models.Booking) string {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour %s reservation for %d guest(s) on %s at %s is confirmed once payment completes.\nBooking reference: %s\nTotal: %.2f\n",
		b.Name, b.ExperienceType, b.Guests, b.Date, b.TimeSlot, b.BookingID, b.TotalAmount,
	)
	if b.PassportEnabled && b.PassportID != "" {
		body += fmt.Sprintf("\nYour venue passport %s is ready. Scan sector stamps during your visit to unlock rewards.\n", b.PassportID)
	}
	return body
}

func cancellationBody(b models.Booking) string {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour reservation %s on %s at %s has been cancelled.\n",
		b.Name, b.BookingID, b.Date, b.TimeSlot,
	)
	if b.PaymentStatus == models.PaymentRefunded {
		body += "\nA refund for your payment has been initiated and should arrive within a few business days.\n"
	}
	return body
}
