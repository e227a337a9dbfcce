package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"ms-reservations/internal/auth"
	"ms-reservations/internal/availability"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler serves availability queries and maintains one Calendar per guest
// session so slow resolutions can never overwrite newer ones.
type Handler struct {
	Resolver *availability.Resolver
	Logger   *logger.Logger

	mu        sync.Mutex
	calendars map[string]*availability.Calendar
}

func NewHandler(resolver *availability.Resolver, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		Resolver:  resolver,
		Logger:    log,
		calendars: make(map[string]*availability.Calendar),
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/calendar", h.GetCalendar)
	r.Get("/{experienceType}/dates", h.GetAvailableDates)
	r.Get("/{experienceType}/slots", h.GetSlotsForDate)
	return r
}

func (h *Handler) calendarFor(guestID string) *availability.Calendar {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.calendars[guestID]
	if !ok {
		c = &availability.Calendar{}
		h.calendars[guestID] = c
	}
	return c
}

// GetAvailableDates returns the bookable dates in the rolling window for
// one experience type and installs them in the guest's calendar.
func (h *Handler) GetAvailableDates(w http.ResponseWriter, r *http.Request) {
	experienceType := chi.URLParam(r, "experienceType")

	cal := h.calendarFor(auth.GuestID(r.Context()))
	gen := cal.Begin(experienceType)

	dates := h.Resolver.ResolveAvailableDates(r.Context(), experienceType, time.Now())
	if !cal.ApplyDates(gen, dates) {
		h.Logger.Debug("API", "stale date resolution discarded for "+experienceType)
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Available dates resolved", map[string]interface{}{
		"experience_type": experienceType,
		"dates":           dates,
	}))
}

// GetSlotsForDate returns the slot grid for one date with availability
// flags from the capacity service.
func (h *Handler) GetSlotsForDate(w http.ResponseWriter, r *http.Request) {
	experienceType := chi.URLParam(r, "experienceType")
	date := r.URL.Query().Get("date")
	if date == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Missing parameter", "date is required"))
		return
	}

	cal := h.calendarFor(auth.GuestID(r.Context()))
	gen := cal.Begin(experienceType)

	slots, err := h.Resolver.ResolveSlotsForDate(r.Context(), experienceType, date)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetSlotsForDate: %s/%s: %v", experienceType, date, err))
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Could not resolve slots", err.Error()))
		return
	}
	if !cal.ApplySlots(gen, slots) {
		h.Logger.Debug("API", "stale slot resolution discarded for "+experienceType)
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Slots resolved", map[string]interface{}{
		"experience_type": experienceType,
		"date":            date,
		"slots":           slots,
	}))
}

// GetCalendar returns the guest's currently displayed calendar: whatever
// the newest resolution installed, stale ones excluded.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal := h.calendarFor(auth.GuestID(r.Context()))
	experienceType, dates, slots := cal.View()

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Calendar retrieved", map[string]interface{}{
		"experience_type": experienceType,
		"dates":           dates,
		"slots":           slots,
	}))
}
