// Package booking instantiates the session store pattern for reservations
// and hosts the submit orchestration.
package booking

import (
	"context"
	"encoding/json"

	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/store"
)

// State is the booking store's session state. Aggregates are recomputed
// atomically with every collection change.
type State struct {
	Bookings []models.Booking   `json:"bookings"`
	Current  models.BookingSlot `json:"current"`
	Draft    models.DraftSlot   `json:"draft"`

	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
	IsEmpty     bool    `json:"is_empty"`
}

// snapshot is the durable subset: the collection, the focused booking and
// the in-progress draft. Aggregates and transient flags are rebuilt.
type snapshot struct {
	Bookings []models.Booking   `json:"bookings"`
	Current  models.BookingSlot `json:"current"`
	Draft    models.DraftSlot   `json:"draft"`
}

func derive(s State) State {
	s.Count = len(s.Bookings)
	s.TotalAmount = 0
	for _, b := range s.Bookings {
		if b.Status != models.BookingCancelled {
			s.TotalAmount += b.TotalAmount
		}
	}
	s.IsEmpty = s.Count == 0
	return s
}

// Backend is the persistence collaborator for the store's async
// operations. *db.DB satisfies it.
type Backend interface {
	GetBookingsByGuest(ctx context.Context, guestID string) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, next models.BookingStatus) (*models.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, next models.PaymentStatus) (*models.Booking, error)
}

// Publisher emits post-commit booking events. Failures are logged and
// swallowed; the committed state change stands.
type Publisher interface {
	PublishBookingCreated(booking models.Booking) error
	PublishBookingCancelled(booking models.Booking) error
}

type Store struct {
	inner   *store.Store[State]
	guestID string
	log     *logger.Logger
}

// NewStore builds a booking store scoped to one guest session.
func NewStore(guestID string, snap store.Snapshotter, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	key := ""
	if snap != nil {
		key = "reservation:bookings:" + guestID
	}
	inner := store.New(store.Config[State]{
		Initial: State{Current: models.NoBooking(), Draft: models.NoDraft()},
		Derive:  derive,
		Key:     key,
		Snap:    snap,
		Durable: func(s State) any {
			return snapshot{Bookings: s.Bookings, Current: s.Current, Draft: s.Draft}
		},
		Restore: func(s State, raw []byte) (State, error) {
			var snap snapshot
			if err := json.Unmarshal(raw, &snap); err != nil {
				return s, err
			}
			s.Bookings = snap.Bookings
			s.Current = snap.Current
			s.Draft = snap.Draft
			return s, nil
		},
		Log: log,
	})
	return &Store{inner: inner, guestID: guestID, log: log}
}

func (s *Store) Hydrate(ctx context.Context) { s.inner.Hydrate(ctx) }
func (s *Store) State() State                { return s.inner.State() }
func (s *Store) Loading() bool               { return s.inner.Loading() }
func (s *Store) Err() string                 { return s.inner.Err() }
func (s *Store) GuestID() string             { return s.guestID }

// StartDraft replaces any existing draft with a fresh one pre-filled from
// the guest profile.
func (s *Store) StartDraft(profile models.GuestProfile) State {
	return s.inner.Apply(func(st State) State {
		st.Draft = models.WithDraft(models.DraftFromProfile(profile))
		return st
	})
}

// UpdateDraft mutates the current draft field-by-field. A missing draft is
// created empty first, so a form can start typing without an explicit
// StartDraft.
func (s *Store) UpdateDraft(mutate func(models.BookingDraft) models.BookingDraft) State {
	return s.inner.Apply(func(st State) State {
		draft, _ := st.Draft.Get()
		st.Draft = models.WithDraft(mutate(draft))
		return st
	})
}

// ClearDraft discards the draft, as on submit success or explicit cancel.
func (s *Store) ClearDraft() State {
	return s.inner.Apply(func(st State) State {
		st.Draft = models.NoDraft()
		return st
	})
}

// Focus sets the current booking to the matching record, if present.
func (s *Store) Focus(bookingID string) State {
	return s.inner.Apply(func(st State) State {
		for _, b := range st.Bookings {
			if b.BookingID == bookingID {
				st.Current = models.WithBooking(b)
				break
			}
		}
		return st
	})
}

func (s *Store) Blur() State {
	return s.inner.Apply(func(st State) State {
		st.Current = models.NoBooking()
		return st
	})
}

// Refresh reloads the guest's bookings from the backend under the async
// contract. The backend response wins over anything held locally.
func (s *Store) Refresh(ctx context.Context, backend Backend) error {
	return s.inner.Async(ctx, func(ctx context.Context) (func(State) State, error) {
		bookings, err := backend.GetBookingsByGuest(ctx, s.guestID)
		if err != nil {
			return nil, err
		}
		return func(st State) State {
			st.Bookings = bookings
			if cur, ok := st.Current.Get(); ok {
				st.Current = models.NoBooking()
				for _, b := range bookings {
					if b.BookingID == cur.BookingID {
						st.Current = models.WithBooking(b)
						break
					}
				}
			}
			return st
		}, nil
	})
}

// Confirm transitions a booking to confirmed.
func (s *Store) Confirm(ctx context.Context, backend Backend, bookingID string) error {
	return s.transition(ctx, backend, bookingID, models.BookingConfirmed, nil)
}

// Complete transitions a booking to completed.
func (s *Store) Complete(ctx context.Context, backend Backend, bookingID string) error {
	return s.transition(ctx, backend, bookingID, models.BookingCompleted, nil)
}

// Cancel transitions a booking to cancelled. A booking whose payment had
// completed gets a refund marker in the same operation, so a cancelled
// booking never carries a completed payment without one.
func (s *Store) Cancel(ctx context.Context, backend Backend, publisher Publisher, bookingID string) error {
	return s.transition(ctx, backend, bookingID, models.BookingCancelled, func(updated *models.Booking) {
		if publisher == nil {
			return
		}
		if err := publisher.PublishBookingCancelled(*updated); err != nil {
			s.log.Warn("BOOKING", "cancel event publish failed for "+bookingID+": "+err.Error())
		}
	})
}

// transition runs one status change under the async contract. The merge
// only replaces the status fields of the matching record and mirrors the
// change into the focused booking when it is the same record.
func (s *Store) transition(ctx context.Context, backend Backend, bookingID string, next models.BookingStatus, committed func(*models.Booking)) error {
	var updated *models.Booking
	err := s.inner.Async(ctx, func(ctx context.Context) (func(State) State, error) {
		b, err := backend.UpdateStatus(ctx, bookingID, next)
		if err != nil {
			return nil, err
		}
		if next == models.BookingCancelled && b.PaymentStatus == models.PaymentCompleted {
			b, err = backend.UpdatePaymentStatus(ctx, bookingID, models.PaymentRefunded)
			if err != nil {
				return nil, err
			}
		}
		updated = b
		return func(st State) State {
			st.Bookings = mergeStatus(st.Bookings, *b)
			if cur, ok := st.Current.Get(); ok && cur.BookingID == b.BookingID {
				cur.Status = b.Status
				cur.PaymentStatus = b.PaymentStatus
				cur.UpdatedAt = b.UpdatedAt
				st.Current = models.WithBooking(cur)
			}
			return st
		}, nil
	})
	if err != nil {
		return err
	}
	if committed != nil {
		committed(updated)
	}
	return nil
}

// ApplyCreated merges a freshly created booking into the collection and
// discards the draft that produced it. Called by the orchestrator after
// the payment handoff succeeded.
func (s *Store) ApplyCreated(booking models.Booking) State {
	return s.inner.Apply(func(st State) State {
		st.Bookings = append([]models.Booking{booking}, st.Bookings...)
		st.Current = models.WithBooking(booking)
		st.Draft = models.NoDraft()
		return st
	})
}

// mergeStatus rewrites the collection with the backend's status fields for
// the matching record; guest-entered fields keep their local values.
func mergeStatus(bookings []models.Booking, updated models.Booking) []models.Booking {
	out := make([]models.Booking, len(bookings))
	for i, b := range bookings {
		if b.BookingID == updated.BookingID {
			b.Status = updated.Status
			b.PaymentStatus = updated.PaymentStatus
			b.UpdatedAt = updated.UpdatedAt
		}
		out[i] = b
	}
	return out
}
