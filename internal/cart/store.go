// Package cart instantiates the session store pattern for the menu cart.
// Line identity is (item id, customization); a zero-quantity line never
// survives a mutation.
package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/store"
	"ms-reservations/internal/validation"
)

type State struct {
	Lines      []models.CartLine `json:"lines"`
	ItemCount  int               `json:"item_count"`
	TotalPrice float64           `json:"total_price"`
	IsEmpty    bool              `json:"is_empty"`
}

// snapshot is the durable subset; aggregates are recomputed on rehydration.
type snapshot struct {
	Lines []models.CartLine `json:"lines"`
}

func derive(s State) State {
	s.ItemCount = 0
	s.TotalPrice = 0
	for _, l := range s.Lines {
		s.ItemCount += l.Quantity
		s.TotalPrice += l.Subtotal()
	}
	s.IsEmpty = len(s.Lines) == 0
	return s
}

// CheckoutService is the backend collaborator that turns the cart into an
// order. Opaque to the store.
type CheckoutService interface {
	Checkout(ctx context.Context, lines []models.CartLine) (orderRef string, err error)
}

type Store struct {
	inner *store.Store[State]
	log   *logger.Logger
}

// NewStore builds a cart store scoped to one guest session. Pass a nil
// snapshotter to disable persistence (tests).
func NewStore(sessionID string, snap store.Snapshotter, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	key := ""
	if snap != nil {
		key = "reservation:cart:" + sessionID
	}
	inner := store.New(store.Config[State]{
		Initial: State{},
		Derive:  derive,
		Key:     key,
		Snap:    snap,
		Durable: func(s State) any { return snapshot{Lines: s.Lines} },
		Restore: func(s State, raw []byte) (State, error) {
			var snap snapshot
			if err := json.Unmarshal(raw, &snap); err != nil {
				return s, err
			}
			s.Lines = snap.Lines
			return s, nil
		},
		Log: log,
	})
	return &Store{inner: inner, log: log}
}

func (s *Store) Hydrate(ctx context.Context) { s.inner.Hydrate(ctx) }
func (s *Store) State() State                { return s.inner.State() }
func (s *Store) Loading() bool               { return s.inner.Loading() }
func (s *Store) Err() string                 { return s.inner.Err() }

// AddLine merges the line into the cart. An existing line with the same
// (item id, customization) absorbs the quantity; otherwise a new line is
// appended.
func (s *Store) AddLine(line models.CartLine) (State, error) {
	if res := validation.ValidateCartLine(line); !res.Valid {
		return s.State(), fmt.Errorf("invalid cart line: %s", res.Errors[0].Message)
	}
	next := s.inner.Apply(func(st State) State {
		st.Lines = mergeLine(st.Lines, line)
		return st
	})
	return next, nil
}

// Increment bumps the quantity of an existing line by one. Unknown lines
// are left alone.
func (s *Store) Increment(itemID, customization string) State {
	return s.setQuantityDelta(itemID, customization, +1)
}

// Decrement lowers the quantity by one; reaching zero removes the line.
func (s *Store) Decrement(itemID, customization string) State {
	return s.setQuantityDelta(itemID, customization, -1)
}

// SetQuantity sets an absolute quantity; zero or less removes the line.
func (s *Store) SetQuantity(itemID, customization string, quantity int) State {
	key := (models.CartLine{ItemID: itemID, Customization: customization}).Key()
	return s.inner.Apply(func(st State) State {
		st.Lines = withQuantity(st.Lines, key, quantity)
		return st
	})
}

// Remove drops the line regardless of quantity.
func (s *Store) Remove(itemID, customization string) State {
	return s.SetQuantity(itemID, customization, 0)
}

// Clear empties the cart in bulk, as on checkout completion.
func (s *Store) Clear() State {
	return s.inner.Apply(func(st State) State {
		st.Lines = nil
		return st
	})
}

// Checkout validates the cart, runs the backend round-trip under the async
// contract, and clears the cart on success. On failure the lines are left
// untouched and the error is recorded on the store.
func (s *Store) Checkout(ctx context.Context, svc CheckoutService) (string, error) {
	lines := s.State().Lines
	if res := validation.ValidateCart(lines); !res.Valid {
		return "", fmt.Errorf("cart is not valid: %s", res.Errors[0].Message)
	}

	var ref string
	err := s.inner.Async(ctx, func(ctx context.Context) (func(State) State, error) {
		r, err := svc.Checkout(ctx, lines)
		if err != nil {
			return nil, err
		}
		ref = r
		return func(st State) State {
			st.Lines = nil
			return st
		}, nil
	})
	if err != nil {
		return "", err
	}
	s.log.Info("CART", "checkout completed, order "+ref)
	return ref, nil
}

func (s *Store) setQuantityDelta(itemID, customization string, delta int) State {
	key := (models.CartLine{ItemID: itemID, Customization: customization}).Key()
	return s.inner.Apply(func(st State) State {
		for _, l := range st.Lines {
			if l.Key() == key {
				st.Lines = withQuantity(st.Lines, key, l.Quantity+delta)
				break
			}
		}
		return st
	})
}

func mergeLine(lines []models.CartLine, line models.CartLine) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines)+1)
	merged := false
	for _, l := range lines {
		if l.Key() == line.Key() {
			l.Quantity += line.Quantity
			merged = true
		}
		out = append(out, l)
	}
	if !merged {
		out = append(out, line)
	}
	return out
}

// withQuantity rewrites the collection with the line at the given quantity,
// eliminating it entirely at zero or below.
func withQuantity(lines []models.CartLine, key string, quantity int) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Key() != key {
			out = append(out, l)
			continue
		}
		if quantity > 0 {
			l.Quantity = quantity
			out = append(out, l)
		}
	}
	return out
}
