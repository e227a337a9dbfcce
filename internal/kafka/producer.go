package kafka

import (
	"context"
	"encoding/json"
	"time"

	"ms-reservations/internal/models"

	"github.com/segmentio/kafka-go"
)

// Producer publishes booking events. Publishing happens strictly after the
// booking change has committed; a publish failure is the caller's to log
// and swallow, never to roll back.
type Producer struct {
	createdWriter   *kafka.Writer
	cancelledWriter *kafka.Writer
}

func NewProducer(brokers []string, createdTopic, cancelledTopic string) *Producer {
	return &Producer{
		createdWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   createdTopic,
		}),
		cancelledWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   cancelledTopic,
		}),
	}
}

func (p *Producer) PublishBookingCreated(booking models.Booking) error {
	return publish(p.createdWriter, BookingEvent{
		Type:       EventBookingCreated,
		OccurredAt: time.Now().UTC(),
		Booking:    booking,
	})
}

func (p *Producer) PublishBookingCancelled(booking models.Booking) error {
	return publish(p.cancelledWriter, BookingEvent{
		Type:       EventBookingCancelled,
		OccurredAt: time.Now().UTC(),
		Booking:    booking,
	})
}

func publish(w *kafka.Writer, event BookingEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return w.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(event.Booking.BookingID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	if err := p.createdWriter.Close(); err != nil {
		return err
	}
	return p.cancelledWriter.Close()
}
