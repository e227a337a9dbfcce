package passport

import (
	"context"
	"time"

	"ms-reservations/internal/models"

	"github.com/uptrace/bun"
)

// Ledger is the bun-backed progress ledger. Counters only ever move up;
// unlock_date is written once when the threshold is first crossed.
type Ledger struct {
	Bun *bun.DB
}

func (l *Ledger) RecordSectorInteraction(ctx context.Context, guestID, sectorID string, nfcTap bool) error {
	now := time.Now().UTC()
	entry := models.SectorProgress{
		GuestID:     guestID,
		SectorID:    sectorID,
		VisitCount:  1,
		NFCTapCount: 0,
	}
	if nfcTap {
		entry.NFCTapCount = 1
	}

	q := l.Bun.NewInsert().
		Model(&entry).
		On("CONFLICT (guest_id, sector_id) DO UPDATE").
		Set("visit_count = sector_progress.visit_count + 1")
	if nfcTap {
		q = q.Set("nfc_tap_count = sector_progress.nfc_tap_count + 1")
	}
	if _, err := q.Exec(ctx); err != nil {
		return err
	}

	// stamp completion once the threshold is crossed; completed never
	// reverts and unlock_date is never overwritten
	_, err := l.Bun.NewUpdate().
		Model((*models.SectorProgress)(nil)).
		Set("completed = ?", true).
		Set("unlock_date = ?", now).
		Where("guest_id = ? AND sector_id = ?", guestID, sectorID).
		Where("visit_count >= ?", models.CompletionThreshold).
		Where("completed = ?", false).
		Exec(ctx)
	return err
}

func (l *Ledger) FetchProgress(ctx context.Context, guestID string) ([]models.SectorProgress, error) {
	var entries []models.SectorProgress
	err := l.Bun.NewSelect().
		Model(&entries).
		Where("guest_id = ?", guestID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *Ledger) FetchAchievements(ctx context.Context, guestID string) ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := l.Bun.NewSelect().
		Model(&achievements).
		Where("guest_id = ?", guestID).
		Order("unlocked_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return achievements, nil
}
