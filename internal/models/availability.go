package models

// CapacitySlot is one entry of a capacity-service response for a single
// (experience type, date) query. The is_available flag is the source of
// truth for bookability; the client-side grid is a display concern.
type CapacitySlot struct {
	TimeSlot    string `json:"time_slot"`
	IsAvailable bool   `json:"is_available"`
	BookedCount int    `json:"booked_count"`
}

// AvailabilitySlot is the resolved, display-ready slot for one date. It is
// derived on every query and replaced wholesale, never mutated.
type AvailabilitySlot struct {
	Date        string `json:"date"`
	TimeSlot    string `json:"time_slot"`
	IsAvailable bool   `json:"is_available"`
	BookedCount int    `json:"booked_count"`
}
