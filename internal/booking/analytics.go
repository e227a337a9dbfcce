package booking

import "ms-reservations/internal/models"

// Analytics is a derived read over the current collection. It is computed
// on demand, never cached, and never feeds back into other logic.
type Analytics struct {
	TotalBookings    int                `json:"total_bookings"`
	TotalAmount      float64            `json:"total_amount"`
	ByExperienceType map[string]int     `json:"by_experience_type"`
	ByStatus         map[string]int     `json:"by_status"`
	MostFrequentTime string             `json:"most_frequent_time,omitempty"`
	MostFrequentDate string             `json:"most_frequent_date,omitempty"`
	AverageGuests    float64            `json:"average_guests"`
	AmountByDate     map[string]float64 `json:"amount_by_date"`
}

// GetAnalytics aggregates the store's collection. Frequency ties break in
// favor of the first value encountered in iteration order.
func (s *Store) GetAnalytics() Analytics {
	st := s.State()

	a := Analytics{
		TotalBookings:    len(st.Bookings),
		ByExperienceType: make(map[string]int),
		ByStatus:         make(map[string]int),
		AmountByDate:     make(map[string]float64),
	}

	timeCounts := make(map[string]int)
	dateCounts := make(map[string]int)
	totalGuests := 0

	for _, b := range st.Bookings {
		a.ByExperienceType[b.ExperienceType]++
		a.ByStatus[string(b.Status)]++
		totalGuests += b.Guests
		if b.Status != models.BookingCancelled {
			a.TotalAmount += b.TotalAmount
			a.AmountByDate[b.Date] += b.TotalAmount
		}

		timeCounts[b.TimeSlot]++
		if a.MostFrequentTime == "" || timeCounts[b.TimeSlot] > timeCounts[a.MostFrequentTime] {
			a.MostFrequentTime = b.TimeSlot
		}
		dateCounts[b.Date]++
		if a.MostFrequentDate == "" || dateCounts[b.Date] > dateCounts[a.MostFrequentDate] {
			a.MostFrequentDate = b.Date
		}
	}

	if len(st.Bookings) > 0 {
		a.AverageGuests = float64(totalGuests) / float64(len(st.Bookings))
	}
	return a
}
