package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/waheeda129/face-attendance/internal/attendapi"
	"github.com/waheeda129/face-attendance/internal/engine"
	"github.com/waheeda129/face-attendance/internal/roster"
	"github.com/waheeda129/face-attendance/internal/store"
)

// StudentsHandler serves roster operations. Reads come from the local
// record store; writes go through the backend first so server-assigned
// fields round-trip.
type StudentsHandler struct {
	engine     *engine.Coordinator
	duplicates *roster.DuplicateIndex
}

// NewStudentsHandler creates a students handler.
func NewStudentsHandler(coordinator *engine.Coordinator) *StudentsHandler {
	return &StudentsHandler{
		engine:     coordinator,
		duplicates: roster.NewDuplicateIndex(),
	}
}

// List returns the hydrated roster.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Store().Students())
}

// studentCreated is the Create response envelope. DuplicateOf is set
// when the enrollment embedding is suspiciously close to an existing
// one, NameMatch when the display name normalizes to the same person
// as an existing roster entry; either way the enrollment still goes
// through.
type studentCreated struct {
	Student     store.Student `json:"student"`
	DuplicateOf string        `json:"duplicateOf,omitempty"`
	NameMatch   string        `json:"nameMatch,omitempty"`
}

// Create enrolls a student via the backend and inserts the canonical
// record into the local roster.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	client := h.engine.Client()
	if client == nil {
		respondError(w, http.StatusServiceUnavailable, "sync engine not configured")
		return
	}

	var payload attendapi.NewStudent
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	roster.FillDefaults(&payload)

	var nameMatch string
	for _, existing := range h.engine.Store().Students() {
		if payload.Name == roster.DefaultName {
			break
		}
		if roster.SameName(existing.Name, payload.Name) {
			nameMatch = existing.ID
			log.Printf("enrollment for %s matches existing roster name (student %s)",
				sanitizeForLog(payload.Name), existing.ID)
			break
		}
	}

	var duplicateOf string
	if len(payload.Embedding) > 0 {
		if embeddings, err := client.ListEmbeddings(r.Context()); err == nil {
			h.duplicates.Rebuild(embeddings)
			if match := h.duplicates.CheckDuplicate(payload.Embedding, roster.DefaultDuplicateDistance); match != nil {
				duplicateOf = match.StudentID
				log.Printf("enrollment for %s looks like existing student %s (distance %.3f)",
					sanitizeForLog(payload.Name), match.StudentID, match.Distance)
			}
		}
	}

	created, err := client.CreateStudent(r.Context(), payload)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.engine.Store().AddStudent(store.StudentFromWire(*created))

	respondJSON(w, http.StatusCreated, studentCreated{
		Student:     store.StudentFromWire(*created),
		DuplicateOf: duplicateOf,
		NameMatch:   nameMatch,
	})
}

// Delete removes a student locally and schedules the backend delete.
// The response does not wait for the backend.
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing student id")
		return
	}

	h.engine.Store().RemoveStudent(id)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
