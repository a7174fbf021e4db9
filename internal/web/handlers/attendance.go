package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/waheeda129/face-attendance/internal/engine"
	"github.com/waheeda129/face-attendance/internal/store"
)

// AttendanceHandler serves the attendance log.
type AttendanceHandler struct {
	engine *engine.Coordinator
}

// NewAttendanceHandler creates an attendance handler.
func NewAttendanceHandler(coordinator *engine.Coordinator) *AttendanceHandler {
	return &AttendanceHandler{engine: coordinator}
}

// List returns the attendance log, newest first. Provisional records
// are included and tagged by their state field.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Store().Attendance())
}

type manualEntryRequest struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Status      string `json:"status,omitempty"`
}

// Log appends a manual attendance entry, bypassing confidence and
// cooldown checks.
func (h *AttendanceHandler) Log(w http.ResponseWriter, r *http.Request) {
	var payload manualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if payload.StudentID == "" {
		respondError(w, http.StatusBadRequest, "missing student id")
		return
	}

	record, err := h.engine.LogManual(payload.StudentID, payload.StudentName, store.AttendanceStatus(payload.Status))
	if err != nil {
		if errors.Is(err, store.ErrAppendInFlight) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// Delete removes an attendance record from the local log.
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing record id")
		return
	}

	if !h.engine.Store().RemoveAttendance(id) {
		respondError(w, http.StatusNotFound, "record not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
