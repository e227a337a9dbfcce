// Package passport tracks a guest's progress through the venue's eight
// sectors and surfaces achievements authored server-side.
package passport

import (
	"context"
	"fmt"
	"sync"

	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
)

// Origin says what produced a sector interaction.
type Origin string

const (
	OriginQRScan Origin = "qr_scan"
	OriginNFCTap Origin = "nfc_tap"
)

// LedgerService is the backend progress ledger. It is the sole writer of
// the visit counters.
type LedgerService interface {
	RecordSectorInteraction(ctx context.Context, guestID, sectorID string, nfcTap bool) error
	FetchProgress(ctx context.Context, guestID string) ([]models.SectorProgress, error)
	FetchAchievements(ctx context.Context, guestID string) ([]models.Achievement, error)
}

// Overview is the aggregate progress view for one guest.
type Overview struct {
	Sectors           []models.SectorProgress `json:"sectors"`
	CompletedSectors  int                     `json:"completed_sectors"`
	CompletionPercent float64                 `json:"completion_percent"`
	MasterUnlocked    bool                    `json:"master_unlocked"`
}

// Tracker derives completion state from the ledger. Completion is sticky
// within a session: once a sector has been surfaced as completed it stays
// completed here even if the backend later reports a lower visit count.
type Tracker struct {
	ledger LedgerService
	log    *logger.Logger

	mu     sync.Mutex
	sticky map[string]map[string]bool // guestID -> sectorID -> completed
}

func NewTracker(ledger LedgerService, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Tracker{
		ledger: ledger,
		log:    log,
		sticky: make(map[string]map[string]bool),
	}
}

// RecordInteraction forwards one scan/tap event to the ledger. Unknown
// sectors are rejected before any backend call.
func (t *Tracker) RecordInteraction(ctx context.Context, guestID, sectorID string, origin Origin) error {
	if !models.KnownSector(sectorID) {
		return fmt.Errorf("unknown sector %q", sectorID)
	}
	if err := t.ledger.RecordSectorInteraction(ctx, guestID, sectorID, origin == OriginNFCTap); err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	t.log.Info("PASSPORT", fmt.Sprintf("guest %s interacted with sector %s (%s)", guestID, sectorID, origin))
	return nil
}

// Progress fetches the guest's ledger entries and derives completion. Every
// sector appears in the result, lazily zero-valued if the guest has never
// interacted with it.
func (t *Tracker) Progress(ctx context.Context, guestID string) (Overview, error) {
	entries, err := t.ledger.FetchProgress(ctx, guestID)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to fetch progress: %w", err)
	}

	byID := make(map[string]models.SectorProgress, len(entries))
	for _, e := range entries {
		byID[e.SectorID] = e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	seen := t.sticky[guestID]
	if seen == nil {
		seen = make(map[string]bool)
		t.sticky[guestID] = seen
	}

	var overview Overview
	for _, id := range models.SectorIDs {
		p, ok := byID[id]
		if !ok {
			p = models.SectorProgress{GuestID: guestID, SectorID: id}
		}
		p.Completed = p.VisitCount >= models.CompletionThreshold || seen[id]
		if p.Completed {
			seen[id] = true
			overview.CompletedSectors++
		}
		overview.Sectors = append(overview.Sectors, p)
	}

	overview.CompletionPercent = float64(overview.CompletedSectors) / float64(models.SectorCount) * 100
	overview.MasterUnlocked = overview.CompletedSectors == models.SectorCount
	return overview, nil
}

// Achievements returns the server-authored achievement records. The
// tracker never invents these locally; MasterUnlocked in Overview is
// informational only.
func (t *Tracker) Achievements(ctx context.Context, guestID string) ([]models.Achievement, error) {
	achievements, err := t.ledger.FetchAchievements(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch achievements: %w", err)
	}
	return achievements, nil
}
