package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SectorIDs is the fixed set of passport sectors. The set never changes at
// runtime; completion percentage is always computed against its size.
var SectorIDs = []string{
	"cellar",
	"kitchen",
	"garden",
	"rooftop",
	"lounge",
	"gallery",
	"terrace",
	"vault",
}

const (
	// SectorCount is the number of passport sectors.
	SectorCount = 8
	// CompletionThreshold is the visit count at which a sector completes.
	CompletionThreshold = 3
)

// KnownSector reports whether id names one of the fixed sectors.
func KnownSector(id string) bool {
	for _, s := range SectorIDs {
		if s == id {
			return true
		}
	}
	return false
}

// SectorProgress is one guest's ledger entry for one sector. The backend
// ledger is the sole writer of the counters; Completed is derived from
// VisitCount on read.
type SectorProgress struct {
	bun.BaseModel `bun:"table:sector_progress"`

	GuestID     string     `bun:"guest_id,pk" json:"guest_id"`
	SectorID    string     `bun:"sector_id,pk" json:"sector_id"`
	VisitCount  int        `bun:"visit_count" json:"visit_count"`
	NFCTapCount int        `bun:"nfc_tap_count" json:"nfc_tap_count"`
	Completed   bool       `bun:"completed" json:"completed"`
	UnlockDate  *time.Time `bun:"unlock_date" json:"unlock_date,omitempty"`
}

// Achievement is authored server-side and immutable once unlocked. The
// client never invents these records.
type Achievement struct {
	bun.BaseModel `bun:"table:achievements"`

	AchievementID string    `bun:"achievement_id,pk" json:"achievement_id"`
	GuestID       string    `bun:"guest_id" json:"guest_id"`
	Name          string    `bun:"name" json:"name"`
	Description   string    `bun:"description" json:"description"`
	RewardPoints  int       `bun:"reward_points" json:"reward_points"`
	UnlockedAt    time.Time `bun:"unlocked_at" json:"unlocked_at"`
}
