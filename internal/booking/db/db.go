package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-reservations/internal/models"

	"github.com/uptrace/bun"
)

// ErrIllegalTransition is returned when a status update is not in the
// booking transition table.
var ErrIllegalTransition = errors.New("illegal booking status transition")

// ErrNotFound is returned when no booking matches the given id.
var ErrNotFound = errors.New("booking not found")

// DB is the bun-backed source of truth for booking status and payment
// status. Bookings are never deleted; cancellation is a status.
type DB struct {
	Bun *bun.DB
}

// CreateBooking inserts a new booking row.
func (d *DB) CreateBooking(ctx context.Context, booking models.Booking) error {
	_, err := d.Bun.NewInsert().Model(&booking).Exec(ctx)
	return err
}

// GetBookingByID fetches one booking by its id.
func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBookingsByGuest fetches a guest's bookings, newest first.
func (d *DB) GetBookingsByGuest(ctx context.Context, guestID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("guest_id = ?", guestID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatus transitions a booking's lifecycle status. The transition
// table is enforced here so an illegal move never reaches the row. Only
// the status column and updated_at change; guest-entered fields are never
// touched. Returns the updated booking.
func (d *DB) UpdateStatus(ctx context.Context, id string, next models.BookingStatus) (*models.Booking, error) {
	booking, err := d.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, booking.Status, next)
	}

	booking.Status = next
	booking.UpdatedAt = time.Now().UTC()
	_, err = d.Bun.NewUpdate().
		Model(booking).
		Column("status", "updated_at").
		Where("booking_id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdatePaymentStatus sets the payment axis of a booking. Returns the
// updated booking.
func (d *DB) UpdatePaymentStatus(ctx context.Context, id string, next models.PaymentStatus) (*models.Booking, error) {
	booking, err := d.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	booking.PaymentStatus = next
	booking.UpdatedAt = time.Now().UTC()
	_, err = d.Bun.NewUpdate().
		Model(booking).
		Column("payment_status", "updated_at").
		Where("booking_id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// SetPaymentRef records the payment session reference on a booking.
func (d *DB) SetPaymentRef(ctx context.Context, id, ref string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("payment_ref = ?", ref).
		Set("updated_at = ?", time.Now().UTC()).
		Where("booking_id = ?", id).
		Exec(ctx)
	return err
}
