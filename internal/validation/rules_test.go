package validation_test

import (
	"testing"
	"time"

	"ms-reservations/internal/models"
	"ms-reservations/internal/validation"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)

func validDraft() models.BookingDraft {
	return models.BookingDraft{
		ExperienceType: "tasting",
		Date:           "2025-06-11",
		TimeSlot:       "19:00",
		Guests:         2,
		Name:           "Ana",
		Email:          "a@b.com",
		Phone:          "+15551234567",
	}
}

func fieldsOf(res validation.Result) []string {
	fields := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestValidDraftPasses(t *testing.T) {
	res := validation.ValidateBookingDraft(validDraft(), testNow)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidationIsPure(t *testing.T) {
	d := validDraft()
	first := validation.ValidateBookingDraft(d, testNow)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, validation.ValidateBookingDraft(d, testNow))
	}
}

func TestErrorsAccumulate(t *testing.T) {
	d := models.BookingDraft{
		Date:     "not-a-date",
		TimeSlot: "25:99",
		Guests:   0,
		Name:     " A ",
		Email:    "nope",
		Phone:    "abc",
	}
	res := validation.ValidateBookingDraft(d, testNow)
	assert.False(t, res.Valid)
	assert.ElementsMatch(t,
		[]string{"date", "time_slot", "guests", "name", "email", "phone"},
		fieldsOf(res))
}

func TestGuestCountBoundaries(t *testing.T) {
	cases := map[int]bool{0: false, 1: true, 20: true, 21: false}
	for guests, want := range cases {
		d := validDraft()
		d.Guests = guests
		res := validation.ValidateBookingDraft(d, testNow)
		assert.Equal(t, want, res.Valid, "guests=%d", guests)
	}
}

func TestFutureInstantBoundary(t *testing.T) {
	d := validDraft()
	d.Date = testNow.Format("2006-01-02")

	d.TimeSlot = testNow.Add(-time.Minute).Format("15:04")
	res := validation.ValidateBookingDraft(d, testNow)
	assert.False(t, res.Valid)
	assert.Contains(t, fieldsOf(res), "date")

	d.TimeSlot = testNow.Add(time.Minute).Format("15:04")
	res = validation.ValidateBookingDraft(d, testNow)
	assert.True(t, res.Valid)

	// exactly now is not strictly in the future
	d.TimeSlot = testNow.Format("15:04")
	res = validation.ValidateBookingDraft(d, testNow)
	assert.False(t, res.Valid)
}

func TestCalendarDateMustBeReal(t *testing.T) {
	d := validDraft()
	d.Date = "2025-02-30"
	res := validation.ValidateBookingDraft(d, testNow)
	assert.False(t, res.Valid)
}

func TestPhoneSeparatorsStripped(t *testing.T) {
	d := validDraft()
	for _, phone := range []string{"+1 (555) 123-4567", "1555 123 4567", "+441632960961"} {
		d.Phone = phone
		assert.True(t, validation.ValidateBookingDraft(d, testNow).Valid, "phone=%q", phone)
	}
	for _, phone := range []string{"0123456", "+0123", "phone", ""} {
		d.Phone = phone
		assert.False(t, validation.ValidateBookingDraft(d, testNow).Valid, "phone=%q", phone)
	}
}

func TestEmailSingleAt(t *testing.T) {
	d := validDraft()
	for _, email := range []string{"a@b@c.com", "a b@c.com", "nope", "@b.com"} {
		d.Email = email
		assert.False(t, validation.ValidateBookingDraft(d, testNow).Valid, "email=%q", email)
	}
}

func TestValidateCartLine(t *testing.T) {
	line := models.CartLine{ItemID: "espresso", Name: "Espresso", UnitPrice: 3.5, Quantity: 1}
	assert.True(t, validation.ValidateCartLine(line).Valid)

	line.Quantity = 0
	assert.False(t, validation.ValidateCartLine(line).Valid)

	line.Quantity = 1
	line.UnitPrice = 0
	assert.False(t, validation.ValidateCartLine(line).Valid)
}

func TestValidateCartRejectsFreeOrder(t *testing.T) {
	lines := []models.CartLine{
		{ItemID: "a", UnitPrice: 5, Quantity: 2},
	}
	assert.True(t, validation.ValidateCart(lines).Valid)

	assert.False(t, validation.ValidateCart(nil).Valid)
}
