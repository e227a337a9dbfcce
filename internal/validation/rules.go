package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"ms-reservations/internal/models"
)

const (
	MinGuests = 1
	MaxGuests = 20
	MinName   = 2
)

var (
	timeRe  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)
	// characters stripped from a phone number before matching
	phoneSep = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// FieldError is one validation failure, addressed to a single field so the
// UI can render it inline.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result carries the outcome of a validation run. All rules are evaluated;
// errors accumulate rather than short-circuit.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

func (r *Result) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// ValidateBookingDraft checks every rule against the draft. It is pure:
// the same draft and evaluation time always yield the same result.
func ValidateBookingDraft(d models.BookingDraft, now time.Time) Result {
	var res Result

	parsedDate, dateErr := time.ParseInLocation("2006-01-02", d.Date, now.Location())
	if dateErr != nil {
		res.add("date", "date must be a real calendar date in YYYY-MM-DD format")
	}

	if !timeRe.MatchString(d.TimeSlot) {
		res.add("time_slot", "time must be HH:MM on a 24-hour clock")
	}

	if d.Guests < MinGuests || d.Guests > MaxGuests {
		res.add("guests", fmt.Sprintf("guest count must be between %d and %d", MinGuests, MaxGuests))
	}

	if len(strings.TrimSpace(d.Name)) < MinName {
		res.add("name", fmt.Sprintf("name must be at least %d characters", MinName))
	}

	if !emailRe.MatchString(d.Email) {
		res.add("email", "email address is not valid")
	}

	if !phoneRe.MatchString(phoneSep.Replace(d.Phone)) {
		res.add("phone", "phone number is not valid")
	}

	// The combined instant must be strictly in the future. Only checkable
	// once both parts parsed.
	if dateErr == nil && timeRe.MatchString(d.TimeSlot) {
		hh := int(d.TimeSlot[0]-'0')*10 + int(d.TimeSlot[1]-'0')
		mm := int(d.TimeSlot[3]-'0')*10 + int(d.TimeSlot[4]-'0')
		instant := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), hh, mm, 0, 0, now.Location())
		if !instant.After(now) {
			res.add("date", "reservation must be in the future")
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// ValidateCartLine checks a single cart line.
func ValidateCartLine(l models.CartLine) Result {
	var res Result
	if l.ItemID == "" {
		res.add("item_id", "item id is required")
	}
	if l.Quantity <= 0 {
		res.add("quantity", "quantity must be greater than zero")
	}
	if l.UnitPrice <= 0 {
		res.add("unit_price", "unit price must be greater than zero")
	}
	res.Valid = len(res.Errors) == 0
	return res
}

// ValidateCart checks every line and the cart as a whole. A cart whose
// total resolves to zero or less is invalid even if each line passes,
// which guards against a price-computation bug producing a free order.
func ValidateCart(lines []models.CartLine) Result {
	var res Result
	total := 0.0
	for i, l := range lines {
		lr := ValidateCartLine(l)
		for _, e := range lr.Errors {
			res.add(fmt.Sprintf("lines[%d].%s", i, e.Field), e.Message)
		}
		total += l.Subtotal()
	}
	if total <= 0 {
		res.add("total", "cart total must be greater than zero")
	}
	res.Valid = len(res.Errors) == 0
	return res
}
