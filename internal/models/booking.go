package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// BookingDraft holds guest-entered reservation input before it is persisted.
// Date is "2006-01-02", TimeSlot is "HH:MM" on a 24-hour clock.
type BookingDraft struct {
	ExperienceType  string   `json:"experience_type"`
	Date            string   `json:"date"`
	TimeSlot        string   `json:"time_slot"`
	Guests          int      `json:"guests"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	SpecialRequests string   `json:"special_requests,omitempty"`
	SectorTags      []string `json:"sector_tags,omitempty"`
	PassportEnabled bool     `json:"passport_enabled"`
}

// GuestProfile is the signed-in guest data used to pre-fill a draft.
type GuestProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// DraftFromProfile returns a fresh draft pre-filled with the guest's
// contact details.
func DraftFromProfile(p GuestProfile) BookingDraft {
	return BookingDraft{
		Guests: 1,
		Name:   p.Name,
		Email:  p.Email,
		Phone:  p.Phone,
	}
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID       string        `bun:"booking_id,pk" json:"booking_id"`
	GuestID         string        `bun:"guest_id" json:"guest_id"`
	ExperienceType  string        `bun:"experience_type" json:"experience_type"`
	Date            string        `bun:"date" json:"date"`
	TimeSlot        string        `bun:"time_slot" json:"time_slot"`
	Guests          int           `bun:"guests" json:"guests"`
	Name            string        `bun:"name" json:"name"`
	Email           string        `bun:"email" json:"email"`
	Phone           string        `bun:"phone" json:"phone"`
	SpecialRequests string        `bun:"special_requests" json:"special_requests,omitempty"`
	SectorTags      []string      `bun:"sector_tags,array" json:"sector_tags,omitempty"`
	PassportEnabled bool          `bun:"passport_enabled" json:"passport_enabled"`
	PassportID      string        `bun:"passport_id" json:"passport_id,omitempty"`
	TotalAmount     float64       `bun:"total_amount" json:"total_amount"`
	Status          BookingStatus `bun:"status" json:"status"`
	PaymentStatus   PaymentStatus `bun:"payment_status" json:"payment_status"`
	PaymentRef      string        `bun:"payment_ref" json:"payment_ref,omitempty"`
	CreatedAt       time.Time     `bun:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `bun:"updated_at" json:"updated_at"`
}

// DraftSlot makes the "no current draft" case explicit. Consumers must go
// through Get and handle the absent case; there is no nil to chase.
type DraftSlot struct {
	draft   BookingDraft
	present bool
}

func NoDraft() DraftSlot {
	return DraftSlot{}
}

func WithDraft(d BookingDraft) DraftSlot {
	return DraftSlot{draft: d, present: true}
}

// Get returns the draft and whether one is present.
func (s DraftSlot) Get() (BookingDraft, bool) {
	return s.draft, s.present
}

func (s DraftSlot) Present() bool {
	return s.present
}

type draftSlotJSON struct {
	Present bool          `json:"present"`
	Draft   *BookingDraft `json:"draft,omitempty"`
}

func (s DraftSlot) MarshalJSON() ([]byte, error) {
	out := draftSlotJSON{Present: s.present}
	if s.present {
		d := s.draft
		out.Draft = &d
	}
	return json.Marshal(out)
}

func (s *DraftSlot) UnmarshalJSON(data []byte) error {
	var in draftSlotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Present && in.Draft != nil {
		*s = WithDraft(*in.Draft)
		return nil
	}
	*s = NoDraft()
	return nil
}

// BookingSlot is the optional "current focus" booking, mirrored by status
// transition operations when the focused record is the one transitioned.
type BookingSlot struct {
	booking Booking
	present bool
}

func NoBooking() BookingSlot {
	return BookingSlot{}
}

func WithBooking(b Booking) BookingSlot {
	return BookingSlot{booking: b, present: true}
}

func (s BookingSlot) Get() (Booking, bool) {
	return s.booking, s.present
}

func (s BookingSlot) Present() bool {
	return s.present
}

type bookingSlotJSON struct {
	Present bool     `json:"present"`
	Booking *Booking `json:"booking,omitempty"`
}

func (s BookingSlot) MarshalJSON() ([]byte, error) {
	out := bookingSlotJSON{Present: s.present}
	if s.present {
		b := s.booking
		out.Booking = &b
	}
	return json.Marshal(out)
}

func (s *BookingSlot) UnmarshalJSON(data []byte) error {
	var in bookingSlotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Present && in.Booking != nil {
		*s = WithBooking(*in.Booking)
		return nil
	}
	*s = NoBooking()
	return nil
}
