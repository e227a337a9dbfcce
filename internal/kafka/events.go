package kafka

import (
	"time"

	"ms-reservations/internal/models"
)

// Event types carried on the booking topics.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is the envelope published after a booking state change has
// committed. Consumers must treat unknown event types as ignorable.
type BookingEvent struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Booking    models.Booking `json:"booking"`
}
