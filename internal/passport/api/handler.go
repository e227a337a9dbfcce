package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-reservations/internal/auth"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/passport"
	"ms-reservations/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Tracker *passport.Tracker
	QR      *passport.QRGenerator
	Logger  *logger.Logger
}

func NewHandler(tracker *passport.Tracker, qr *passport.QRGenerator, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{Tracker: tracker, QR: qr, Logger: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/interactions", h.RecordInteraction)
	r.Get("/progress", h.GetProgress)
	r.Get("/achievements", h.GetAchievements)
	r.Get("/stamp-qr/{sectorId}", h.GetStampQR)
	return r
}

type interactionRequest struct {
	SectorID string          `json:"sector_id"`
	Origin   passport.Origin `json:"origin"`
}

// RecordInteraction registers one sector visit for the authenticated guest.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	guestID := auth.GuestID(r.Context())

	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if req.Origin == "" {
		req.Origin = passport.OriginQRScan
	}

	if err := h.Tracker.RecordInteraction(r.Context(), guestID, req.SectorID, req.Origin); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordInteraction: guest=%s sector=%s: %v", guestID, req.SectorID, err))
		utils.WriteJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse("Could not record interaction", err.Error()))
		return
	}

	overview, err := h.Tracker.Progress(r.Context(), guestID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load progress", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Interaction recorded", overview))
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	guestID := auth.GuestID(r.Context())

	overview, err := h.Tracker.Progress(r.Context(), guestID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetProgress: guest=%s: %v", guestID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load progress", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Progress retrieved", overview))
}

func (h *Handler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	guestID := auth.GuestID(r.Context())

	achievements, err := h.Tracker.Achievements(r.Context(), guestID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetAchievements: guest=%s: %v", guestID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load achievements", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Achievements retrieved", achievements))
}

// GetStampQR renders the encrypted sector stamp as a PNG for on-site
// display terminals.
func (h *Handler) GetStampQR(w http.ResponseWriter, r *http.Request) {
	sectorID := chi.URLParam(r, "sectorId")
	passportID := r.URL.Query().Get("passport_id")
	if passportID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Missing parameter", "passport_id is required"))
		return
	}

	png, err := h.QR.GenerateStampQR(passport.StampPayload{
		PassportID: passportID,
		SectorID:   sectorID,
		IssuedAt:   time.Now(),
	})
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetStampQR: sector=%s: %v", sectorID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not generate stamp", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
