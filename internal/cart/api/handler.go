package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-reservations/internal/auth"
	"ms-reservations/internal/cart"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Stores   *cart.Manager
	Checkout cart.CheckoutService
	Logger   *logger.Logger
}

func NewHandler(stores *cart.Manager, checkout cart.CheckoutService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{Stores: stores, Checkout: checkout, Logger: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetCart)
	r.Post("/lines", h.AddLine)
	r.Put("/lines", h.SetQuantity)
	r.Delete("/lines", h.RemoveLine)
	r.Post("/checkout", h.CheckoutCart)
	r.Delete("/", h.ClearCart)
	return r
}

// lineRef identifies a cart line in mutation requests.
type lineRef struct {
	ItemID        string `json:"item_id"`
	Customization string `json:"customization"`
	Quantity      int    `json:"quantity"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := h.Stores.For(r.Context(), auth.GuestID(r.Context()))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Cart retrieved", store.State()))
}

func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	var line models.CartLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	store := h.Stores.For(r.Context(), auth.GuestID(r.Context()))
	state, err := store.AddLine(line)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse("Invalid cart line", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Line added", state))
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var ref lineRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	store := h.Stores.For(r.Context(), auth.GuestID(r.Context()))
	state := store.SetQuantity(ref.ItemID, ref.Customization, ref.Quantity)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Quantity updated", state))
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	var ref lineRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	store := h.Stores.For(r.Context(), auth.GuestID(r.Context()))
	state := store.Remove(ref.ItemID, ref.Customization)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Line removed", state))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store := h.Stores.For(r.Context(), auth.GuestID(r.Context()))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Cart cleared", store.Clear()))
}

func (h *Handler) CheckoutCart(w http.ResponseWriter, r *http.Request) {
	guestID := auth.GuestID(r.Context())
	store := h.Stores.For(r.Context(), guestID)

	ref, err := store.Checkout(r.Context(), h.Checkout)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckoutCart: checkout failed for guest %s: %v", guestID, err))
		utils.WriteJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse("Checkout failed", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Checkout completed", map[string]string{"order_ref": ref}))
}
