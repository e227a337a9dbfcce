package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-reservations/internal/auth"
	"ms-reservations/internal/booking"
	"ms-reservations/internal/booking/db"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Stores       *booking.Manager
	Orchestrator *booking.Orchestrator
	Backend      booking.Backend
	Publisher    booking.Publisher
	Logger       *logger.Logger
}

func NewHandler(stores *booking.Manager, orch *booking.Orchestrator, backend booking.Backend, publisher booking.Publisher, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		Stores:       stores,
		Orchestrator: orch,
		Backend:      backend,
		Publisher:    publisher,
		Logger:       log,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.SubmitBooking)
	r.Get("/", h.ListBookings)
	r.Get("/analytics", h.GetAnalytics)
	r.Post("/draft", h.StartDraft)
	r.Put("/draft", h.UpdateDraft)
	r.Delete("/draft", h.ClearDraft)
	r.Get("/{bookingId}", h.GetBooking)
	r.Post("/{bookingId}/focus", h.FocusBooking)
	r.Post("/{bookingId}/confirm", h.ConfirmBooking)
	r.Post("/{bookingId}/complete", h.CompleteBooking)
	r.Post("/{bookingId}/cancel", h.CancelBooking)
	return r
}

// SubmitBooking validates the posted draft and runs the full create-and-pay
// sequence, returning the payment redirect URL on success.
func (h *Handler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	guestID := auth.GuestID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("SubmitBooking: guest=%s", guestID))

	var draft models.BookingDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SubmitBooking: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	store := h.Stores.For(r.Context(), guestID)
	result := h.Orchestrator.Submit(r.Context(), store, draft)

	switch result.Outcome {
	case booking.OutcomeCreated:
		h.Logger.LogBooking("CREATE", result.Booking.BookingID, "booking created, payment pending")
		utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Booking created", result))
	case booking.OutcomeValidationFailed:
		utils.WriteJSON(w, http.StatusUnprocessableEntity, utils.APIResponse{
			Success: false,
			Message: "Validation failed",
			Data:    result,
		})
	case booking.OutcomePaymentHandoffFailed:
		h.Logger.Error("API", "SubmitBooking: payment handoff failed: "+result.Message)
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Payment handoff failed", result.Message))
	default:
		h.Logger.Error("API", "SubmitBooking: backend failed: "+result.Message)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not create booking", result.Message))
	}
}

// ListBookings refreshes the guest's store from the database and returns
// the full session state, aggregates included.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	guestID := auth.GuestID(r.Context())
	store := h.Stores.For(r.Context(), guestID)

	if err := store.Refresh(r.Context(), h.Backend); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListBookings: refresh failed for guest %s: %v", guestID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to load bookings", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Bookings retrieved", store.State()))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	guestID := auth.GuestID(r.Context())
	store := h.Stores.For(r.Context(), guestID)

	for _, b := range store.State().Bookings {
		if b.BookingID == bookingID {
			utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking retrieved", b))
			return
		}
	}
	utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Booking not found", bookingID))
}

func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	guestID := auth.GuestID(r.Context())
	store := h.Stores.For(r.Context(), guestID)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Analytics computed", store.GetAnalytics()))
}

func (h *Handler) StartDraft(w http.ResponseWriter, r *http.Request) {
	guestID := auth.GuestID(r.Context())

	var profile models.GuestProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	store := h.Stores.For(r.Context(), guestID)
	state := store.StartDraft(profile)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Draft started", state))
}

func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	guestID := auth.GuestID(r.Context())

	var patch models.BookingDraft
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	store := h.Stores.For(r.Context(), guestID)
	state := store.UpdateDraft(func(models.BookingDraft) models.BookingDraft { return patch })
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Draft updated", state))
}

func (h *Handler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	guestID := auth.GuestID(r.Context())
	store := h.Stores.For(r.Context(), guestID)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Draft cleared", store.ClearDraft()))
}

func (h *Handler) FocusBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	guestID := auth.GuestID(r.Context())
	store := h.Stores.For(r.Context(), guestID)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking focused", store.Focus(bookingID)))
}

func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "confirm", func(store *booking.Store, bookingID string) error {
		return store.Confirm(r.Context(), h.Backend, bookingID)
	})
}

func (h *Handler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete", func(store *booking.Store, bookingID string) error {
		return store.Complete(r.Context(), h.Backend, bookingID)
	})
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel", func(store *booking.Store, bookingID string) error {
		return store.Cancel(r.Context(), h.Backend, h.Publisher, bookingID)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action string, run func(*booking.Store, string) error) {
	bookingID := chi.URLParam(r, "bookingId")
	guestID := auth.GuestID(r.Context())
	h.Logger.LogBooking(action, bookingID, "guest "+guestID)

	store := h.Stores.For(r.Context(), guestID)
	if err := run(store, bookingID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, db.ErrNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, db.ErrIllegalTransition) {
			status = http.StatusConflict
		}
		h.Logger.Error("API", fmt.Sprintf("%s failed for booking %s: %v", action, bookingID, err))
		utils.WriteJSON(w, status, utils.ErrorResponse("Could not "+action+" booking", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking "+action+" applied", store.State()))
}
