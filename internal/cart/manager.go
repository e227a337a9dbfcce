package cart

import (
	"context"
	"sync"

	"ms-reservations/internal/logger"
	"ms-reservations/internal/store"
)

// Manager hands out one cart Store per session, created lazily and
// hydrated from its snapshot on first use.
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

func (m *Manager) For(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	s, ok := m.stores[sessionID]
	if !ok {
		s = NewStore(sessionID, m.snap, m.log)
		m.stores[sessionID] = s
	}
	m.mu.Unlock()

	if !ok {
		s.Hydrate(ctx)
	}
	return s
}
