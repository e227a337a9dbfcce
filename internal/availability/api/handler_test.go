package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ms-reservations/internal/availability"
	"ms-reservations/internal/availability/api"
	"ms-reservations/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCapacity answers every (experience, date) query identically.
type fixedCapacity struct {
	slots []models.CapacitySlot
}

func (f *fixedCapacity) GetAvailability(ctx context.Context, experienceType, date string) ([]models.CapacitySlot, error) {
	return f.slots, nil
}

func newHandler() *api.Handler {
	capacity := &fixedCapacity{slots: []models.CapacitySlot{
		{TimeSlot: "19:00", IsAvailable: true},
	}}
	resolver := availability.NewResolver(capacity, nil, availability.WithWindowDays(2))
	return api.NewHandler(resolver, nil)
}

func decodeData(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func TestGetAvailableDatesReturnsWindow(t *testing.T) {
	h := newHandler()
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/dining/dates")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	data := decodeData(t, body)
	assert.Equal(t, "dining", data["experience_type"])
	assert.Len(t, data["dates"], 2)
}

func TestGetSlotsRequiresDate(t *testing.T) {
	h := newHandler()
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/dining/slots")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCalendarReflectsNewestResolution(t *testing.T) {
	h := newHandler()
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	for _, exp := range []string{"dining", "tasting"} {
		resp, err := http.Get(srv.URL + "/" + exp + "/dates")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/calendar")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	data := decodeData(t, body)
	// the calendar shows only what the newest resolution installed
	assert.Equal(t, "tasting", data["experience_type"])
	assert.Len(t, data["dates"], 2)
}

func TestCalendarEmptyBeforeAnyResolution(t *testing.T) {
	h := newHandler()
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/calendar")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	data := decodeData(t, body)
	assert.Equal(t, "", data["experience_type"])
	assert.Empty(t, data["dates"])
}
