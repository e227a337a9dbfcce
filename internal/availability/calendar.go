package availability

import (
	"sync"

	"ms-reservations/internal/models"
)

// Calendar holds the displayed availability for one guest session and
// enforces last-request-wins: a resolution that started earlier than the
// most recent one is discarded on arrival, however slow the earlier query
// was. There is no other cancellation mechanism.
type Calendar struct {
	mu     sync.Mutex
	latest uint64

	experienceType string
	dates          []string
	slots          []models.AvailabilitySlot
}

// Begin registers a new resolution and returns its generation token.
func (c *Calendar) Begin(experienceType string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest++
	c.experienceType = experienceType
	return c.latest
}

// ApplyDates installs a date resolution if gen is still the newest one.
// Returns whether the result was applied.
func (c *Calendar) ApplyDates(gen uint64, dates []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.latest {
		return false
	}
	c.dates = dates
	return true
}

// ApplySlots installs a slot resolution if gen is still the newest one.
func (c *Calendar) ApplySlots(gen uint64, slots []models.AvailabilitySlot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.latest {
		return false
	}
	c.slots = slots
	return true
}

// View returns the currently displayed calendar.
func (c *Calendar) View() (experienceType string, dates []string, slots []models.AvailabilitySlot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.experienceType, c.dates, c.slots
}
