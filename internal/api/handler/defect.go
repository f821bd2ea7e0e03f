package handler

import (
	"net/http"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/storage"
	"github.com/go-chi/chi/v5"
)

// DefectHandler handles defect endpoints, nested under an aircraft.
type DefectHandler struct {
	store storage.Storage
}

// NewDefectHandler creates a new DefectHandler.
func NewDefectHandler(store storage.Storage) *DefectHandler {
	return &DefectHandler{store: store}
}

// Create logs a defect against an aircraft.
func (h *DefectHandler) Create(w http.ResponseWriter, r *http.Request) {
	aircraftID := chi.URLParam(r, "aircraft_id")
	if aircraftID == "" {
		respondError(w, http.StatusBadRequest, "aircraft_id is required")
		return
	}

	if _, err := h.store.GetAircraft(r.Context(), aircraftID); err != nil {
		handleError(w, err)
		return
	}

	var req domain.CreateDefectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Description == "" {
		respondError(w, http.StatusBadRequest, "description is required")
		return
	}
	if req.SeverityClass != "minor" && req.SeverityClass != "major" {
		respondError(w, http.StatusBadRequest, "severityClass must be minor or major")
		return
	}

	discovered := req.DiscoveredDate
	if discovered.IsZero() {
		discovered = time.Now()
	}

	now := time.Now()
	d := &domain.Defect{
		ID:             generateID(),
		AircraftID:     aircraftID,
		Description:    req.Description,
		SeverityClass:  req.SeverityClass,
		DiscoveredDate: discovered,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.store.CreateDefect(r.Context(), d); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, d)
}

// List lists an aircraft's defects. With ?open=true only unrectified
// defects are returned.
func (h *DefectHandler) List(w http.ResponseWriter, r *http.Request) {
	aircraftID := chi.URLParam(r, "aircraft_id")
	if aircraftID == "" {
		respondError(w, http.StatusBadRequest, "aircraft_id is required")
		return
	}

	var (
		defects []*domain.Defect
		err     error
	)
	if r.URL.Query().Get("open") == "true" {
		defects, err = h.store.ListOpenDefectsForAircraft(r.Context(), aircraftID)
	} else {
		defects, err = h.store.ListDefectsForAircraft(r.Context(), aircraftID)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, defects)
}

// Get gets a defect by ID.
func (h *DefectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	d, err := h.store.GetDefect(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// Update updates a defect. Setting rectifiedDate closes it.
func (h *DefectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	d, err := h.store.GetDefect(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	var req domain.UpdateDefectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.SeverityClass != nil {
		if *req.SeverityClass != "minor" && *req.SeverityClass != "major" {
			respondError(w, http.StatusBadRequest, "severityClass must be minor or major")
			return
		}
		d.SeverityClass = *req.SeverityClass
	}
	if req.RectifiedDate != nil {
		d.RectifiedDate = req.RectifiedDate
	}
	d.UpdatedAt = time.Now()

	if err := h.store.UpdateDefect(r.Context(), d); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// Delete deletes a defect.
func (h *DefectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.store.DeleteDefect(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
