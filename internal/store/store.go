// Package store implements the session-scoped state container shared by the
// booking and cart domains. Every mutation is a single reducer applied under
// one lock, followed by an aggregate recomputation in the same critical
// section, so a consumer can never observe a collection without its derived
// aggregates already reflecting it.
package store

import (
	"context"

	"sync"

	"ms-reservations/internal/logger"
)

// Snapshotter persists the durable subset of a store's state under a
// namespaced key. Implementations must tolerate being handed arbitrary
// JSON-marshalable payloads.
type Snapshotter interface {
	Write(ctx context.Context, key string, payload any) error
	Read(ctx context.Context, key string, into any) error
}

// Config wires one Store instance. Stores are constructed explicitly per
// session and injected; there are no package-level singletons.
type Config[S any] struct {
	Initial S
	// Derive recomputes aggregates from the collection. It runs after every
	// reducer inside the same critical section.
	Derive func(S) S
	// Key is the snapshot namespace, e.g. "reservation:cart:<session>".
	// Empty disables persistence.
	Key  string
	Snap Snapshotter
	// Durable selects the persisted subset of state. Nil persists all of S.
	Durable func(S) any
	// Restore merges a previously persisted snapshot into the initial
	// state. Nil disables rehydration.
	Restore func(S, []byte) (S, error)
	Log     *logger.Logger
}

// Store holds state S plus the transient loading/error flags of the async
// operation contract. The flags are never persisted.
type Store[S any] struct {
	mu      sync.Mutex
	state   S
	loading bool
	err     string

	cfg Config[S]
}

func New[S any](cfg Config[S]) *Store[S] {
	if cfg.Log == nil {
		cfg.Log = logger.NewNop()
	}
	s := &Store[S]{cfg: cfg}
	s.state = cfg.Initial
	if cfg.Derive != nil {
		s.state = cfg.Derive(s.state)
	}
	return s
}

// Hydrate restores the persisted snapshot, if any. Called once after
// construction; a missing or unreadable snapshot leaves the initial state.
func (s *Store[S]) Hydrate(ctx context.Context) {
	if s.cfg.Snap == nil || s.cfg.Key == "" || s.cfg.Restore == nil {
		return
	}
	var raw []byte
	if err := s.cfg.Snap.Read(ctx, s.cfg.Key, &raw); err != nil {
		s.cfg.Log.Warn("STORE", "snapshot read failed for "+s.cfg.Key+": "+err.Error())
		return
	}
	if len(raw) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	restored, err := s.cfg.Restore(s.state, raw)
	if err != nil {
		s.cfg.Log.Warn("STORE", "snapshot decode failed for "+s.cfg.Key+": "+err.Error())
		return
	}
	s.state = restored
	if s.cfg.Derive != nil {
		s.state = s.cfg.Derive(s.state)
	}
}

// Apply runs one reducer atomically: collection change and aggregate
// recomputation commit together, then the snapshot write fires
// best-effort. Returns the new state.
func (s *Store[S]) Apply(reduce func(S) S) S {
	s.mu.Lock()
	next := reduce(s.state)
	if s.cfg.Derive != nil {
		next = s.cfg.Derive(next)
	}
	s.state = next
	s.mu.Unlock()

	s.persist(next)
	return next
}

// Async runs one backend round-trip under the three-phase contract:
// loading=true/error cleared, one call, then either the returned reducer is
// applied (backend response wins) or the error is recorded with the prior
// state untouched. The error never escapes to the caller unconverted.
func (s *Store[S]) Async(ctx context.Context, op func(context.Context) (func(S) S, error)) error {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	reduce, err := op(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
		s.mu.Unlock()
		return err
	}
	next := s.state
	if reduce != nil {
		next = reduce(next)
		if s.cfg.Derive != nil {
			next = s.cfg.Derive(next)
		}
		s.state = next
	}
	s.mu.Unlock()

	if reduce != nil {
		s.persist(next)
	}
	return nil
}

// State returns a copy of the current state.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store[S]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the message of the last failed async operation, or "".
func (s *Store[S]) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// persist writes the durable subset. Failures are logged only; in-memory
// state stays authoritative for the session.
func (s *Store[S]) persist(state S) {
	if s.cfg.Snap == nil || s.cfg.Key == "" {
		return
	}
	payload := any(state)
	if s.cfg.Durable != nil {
		payload = s.cfg.Durable(state)
	}
	if err := s.cfg.Snap.Write(context.Background(), s.cfg.Key, payload); err != nil {
		s.cfg.Log.Warn("STORE", "snapshot write failed for "+s.cfg.Key+": "+err.Error())
	}
}
