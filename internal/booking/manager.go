package booking

import (
	"context"
	"sync"

	"ms-reservations/internal/logger"
	"ms-reservations/internal/store"
)

// Manager hands out one Store per guest. Stores are created lazily and
// hydrated from their snapshot on first use.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store
	snap   store.Snapshotter
	log    *logger.Logger
}

func NewManager(snap store.Snapshotter, log *logger.Logger) *Manager {
	return &Manager{
		stores: make(map[string]*Store),
		snap:   snap,
		log:    log,
	}
}

// For returns the guest's store, creating and hydrating it if this is
// the first request for that guest since startup.
func (m *Manager) For(ctx context.Context, guestID string) *Store {
	m.mu.Lock()
	s, ok := m.stores[guestID]
	if !ok {
		s = NewStore(guestID, m.snap, m.log)
		m.stores[guestID] = s
	}
	m.mu.Unlock()

	if !ok {
		s.Hydrate(ctx)
	}
	return s
}
