package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/waheeda129/face-attendance/internal/attendapi"
	"github.com/waheeda129/face-attendance/internal/config"
	"github.com/waheeda129/face-attendance/internal/engine"
)

// SettingsHandler proxies the persisted dashboard settings to the
// backend and feeds saved changes into the running sync engine.
type SettingsHandler struct {
	engine   *engine.Coordinator
	defaults config.Defaults
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(coordinator *engine.Coordinator, defaults config.Defaults) *SettingsHandler {
	return &SettingsHandler{engine: coordinator, defaults: defaults}
}

// Get returns the persisted settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	client := h.engine.Client()
	if client == nil {
		respondError(w, http.StatusServiceUnavailable, "sync engine not configured")
		return
	}

	settings, err := client.GetSettings(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// Update persists settings on the backend, then swaps the engine
// configuration so the new threshold and camera apply from the next
// tick.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	client := h.engine.Client()
	if client == nil {
		respondError(w, http.StatusServiceUnavailable, "sync engine not configured")
		return
	}

	var payload attendapi.Settings
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	saved, err := client.UpdateSettings(r.Context(), payload)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	cfg := engine.SyncConfigFromSettings(
		h.engine.Config().BaseURL,
		saved,
		h.defaults.Sync.MinConfidenceThreshold,
		h.defaults.Sync.CooldownWindowMs,
		h.defaults.Sync.SampleIntervalMs,
	)
	if err := h.engine.UpdateConfig(cfg); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, saved)
}
