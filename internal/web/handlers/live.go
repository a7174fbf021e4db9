package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/waheeda129/face-attendance/internal/engine"
)

// LiveHandler serves the live recognition status and the SSE event
// stream the dashboard subscribes to.
type LiveHandler struct {
	engine *engine.Coordinator
}

// NewLiveHandler creates a live handler.
func NewLiveHandler(coordinator *engine.Coordinator) *LiveHandler {
	return &LiveHandler{engine: coordinator}
}

// liveStatus is the Status response body.
type liveStatus struct {
	Running          bool   `json:"running"`
	ThresholdPercent int    `json:"thresholdPercent"`
	CooldownMs       int64  `json:"cooldownMs"`
	SampleIntervalMs int64  `json:"sampleIntervalMs"`
	CameraDeviceID   string `json:"cameraDeviceId,omitempty"`
	StoreVersion     uint64 `json:"storeVersion"`
}

// Status reports whether the sync loop is running and with what
// parameters.
func (h *LiveHandler) Status(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.Config()
	respondJSON(w, http.StatusOK, liveStatus{
		Running:          h.engine.Running(),
		ThresholdPercent: cfg.ConfidenceThresholdPercent,
		CooldownMs:       cfg.CooldownWindow.Milliseconds(),
		SampleIntervalMs: cfg.SampleInterval.Milliseconds(),
		CameraDeviceID:   cfg.CameraDeviceID,
		StoreVersion:     h.engine.Store().Version(),
	})
}

// sendSSEEvent writes one SSE frame and flushes.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

// Events streams engine events (ticks, accepted detections,
// reconciliation results, telemetry) until the client disconnects.
func (h *LiveHandler) Events(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventCh := h.engine.Events().AddListener()
	defer h.engine.Events().RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", map[string]bool{"running": h.engine.Running()})

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
		}
	}
}
