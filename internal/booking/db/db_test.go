package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-reservations/internal/booking/db"
	"ms-reservations/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Booking)(nil)).Exec(context.Background())
	require.NoError(t, err)

	return &db.DB{Bun: bunDB}, bunDB
}

func testBooking() models.Booking {
	return models.Booking{
		BookingID:      uuid.New().String(),
		GuestID:        "guest-1",
		ExperienceType: "tasting",
		Date:           "2025-06-11",
		TimeSlot:       "19:00",
		Guests:         2,
		Name:           "Ana",
		Email:          "a@b.com",
		Phone:          "+15551234567",
		TotalAmount:    90,
		Status:         models.BookingPending,
		PaymentStatus:  models.PaymentPending,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
}

func TestCreateAndGetBooking(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	b := testBooking()
	require.NoError(t, bookingDB.CreateBooking(ctx, b))

	got, err := bookingDB.GetBookingByID(ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, b.BookingID, got.BookingID)
	assert.Equal(t, models.BookingPending, got.Status)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
}

func TestGetBookingNotFound(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	_, err := bookingDB.GetBookingByID(context.Background(), "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestGetBookingsByGuestNewestFirst(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	older := testBooking()
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testBooking()

	require.NoError(t, bookingDB.CreateBooking(ctx, older))
	require.NoError(t, bookingDB.CreateBooking(ctx, newer))

	got, err := bookingDB.GetBookingsByGuest(ctx, "guest-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.BookingID, got[0].BookingID)
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	b := testBooking()
	require.NoError(t, bookingDB.CreateBooking(ctx, b))

	updated, err := bookingDB.UpdateStatus(ctx, b.BookingID, models.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)

	updated, err = bookingDB.UpdateStatus(ctx, b.BookingID, models.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, updated.Status)

	// completed is terminal
	_, err = bookingDB.UpdateStatus(ctx, b.BookingID, models.BookingPending)
	assert.ErrorIs(t, err, db.ErrIllegalTransition)
}

func TestUpdateStatusRejectsIllegalMove(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	b := testBooking()
	require.NoError(t, bookingDB.CreateBooking(ctx, b))

	_, err := bookingDB.UpdateStatus(ctx, b.BookingID, models.BookingCompleted)
	assert.ErrorIs(t, err, db.ErrIllegalTransition)

	// row is untouched
	got, err := bookingDB.GetBookingByID(ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, got.Status)
}

func TestUpdateStatusOnlyTouchesStatus(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	b := testBooking()
	require.NoError(t, bookingDB.CreateBooking(ctx, b))

	_, err := bookingDB.UpdateStatus(ctx, b.BookingID, models.BookingCancelled)
	require.NoError(t, err)

	got, err := bookingDB.GetBookingByID(ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, b.Name, got.Name)
	assert.Equal(t, b.Email, got.Email)
	assert.Equal(t, b.TotalAmount, got.TotalAmount)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
}

func TestUpdatePaymentStatusAndRef(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	b := testBooking()
	require.NoError(t, bookingDB.CreateBooking(ctx, b))

	require.NoError(t, bookingDB.SetPaymentRef(ctx, b.BookingID, "cs_test_123"))
	updated, err := bookingDB.UpdatePaymentStatus(ctx, b.BookingID, models.PaymentCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, updated.PaymentStatus)

	got, err := bookingDB.GetBookingByID(ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", got.PaymentRef)
	assert.Equal(t, models.PaymentCompleted, got.PaymentStatus)
}
