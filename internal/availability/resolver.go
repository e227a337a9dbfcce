// Package availability reduces capacity-service responses to a bookable
// calendar over a rolling window.
package availability

import (
	"context"
	"fmt"
	"time"

	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
)

const (
	// DefaultWindowDays is the rolling booking horizon.
	DefaultWindowDays = 30

	gridStartHour = 11
	gridEndHour   = 22
	gridStepMin   = 30
)

// CapacityService answers one (experience type, date) query. The
// is_available flags in its response are the source of truth; the slot grid
// is only a display frame.
type CapacityService interface {
	GetAvailability(ctx context.Context, experienceType, date string) ([]models.CapacitySlot, error)
}

type Resolver struct {
	capacity   CapacityService
	log        *logger.Logger
	windowDays int
	clock      func() time.Time
}

type Option func(*Resolver)

func WithWindowDays(days int) Option {
	return func(r *Resolver) { r.windowDays = days }
}

func WithClock(clock func() time.Time) Option {
	return func(r *Resolver) { r.clock = clock }
}

func NewResolver(capacity CapacityService, log *logger.Logger, opts ...Option) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Resolver{
		capacity:   capacity,
		log:        log,
		windowDays: DefaultWindowDays,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAvailableDates walks the window from windowStart and keeps the
// dates that are today-or-later and have at least one available slot. A
// capacity failure for one date excludes that date and nothing else.
func (r *Resolver) ResolveAvailableDates(ctx context.Context, experienceType string, windowStart time.Time) []string {
	today := dateOnly(r.clock())
	var dates []string
	for i := 0; i < r.windowDays; i++ {
		day := windowStart.AddDate(0, 0, i)
		if dateOnly(day).Before(today) {
			continue
		}
		date := day.Format("2006-01-02")
		slots, err := r.capacity.GetAvailability(ctx, experienceType, date)
		if err != nil {
			r.log.Warn("AVAILABILITY", fmt.Sprintf("capacity query failed for %s %s: %v", experienceType, date, err))
			continue
		}
		if hasAvailable(slots) {
			dates = append(dates, date)
		}
	}
	return dates
}

// ResolveSlotsForDate intersects the fixed display grid with the capacity
// response for one date. Grid times the capacity service does not mention
// are reported unavailable.
func (r *Resolver) ResolveSlotsForDate(ctx context.Context, experienceType, date string) ([]models.AvailabilitySlot, error) {
	capSlots, err := r.capacity.GetAvailability(ctx, experienceType, date)
	if err != nil {
		return nil, fmt.Errorf("capacity query failed for %s %s: %w", experienceType, date, err)
	}

	byTime := make(map[string]models.CapacitySlot, len(capSlots))
	for _, s := range capSlots {
		byTime[s.TimeSlot] = s
	}

	grid := SlotGrid()
	out := make([]models.AvailabilitySlot, 0, len(grid))
	for _, t := range grid {
		slot := models.AvailabilitySlot{Date: date, TimeSlot: t}
		if cs, ok := byTime[t]; ok {
			slot.IsAvailable = cs.IsAvailable
			slot.BookedCount = cs.BookedCount
		}
		out = append(out, slot)
	}
	return out, nil
}

// SlotGrid returns the candidate times, every 30 minutes from 11:00 to
// 22:00 inclusive.
func SlotGrid() []string {
	var grid []string
	for h := gridStartHour; h <= gridEndHour; h++ {
		for m := 0; m < 60; m += gridStepMin {
			if h == gridEndHour && m > 0 {
				break
			}
			grid = append(grid, fmt.Sprintf("%02d:%02d", h, m))
		}
	}
	return grid
}

func hasAvailable(slots []models.CapacitySlot) bool {
	for _, s := range slots {
		if s.IsAvailable {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
