package handler

import (
	"net/http"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/storage"
	"github.com/go-chi/chi/v5"
)

// PilotHandler handles pilot endpoints.
type PilotHandler struct {
	store storage.Storage
}

// NewPilotHandler creates a new PilotHandler.
func NewPilotHandler(store storage.Storage) *PilotHandler {
	return &PilotHandler{store: store}
}

// Create creates a new pilot.
func (h *PilotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePilotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.LicenceExpiryDate.IsZero() {
		respondError(w, http.StatusBadRequest, "licenceExpiryDate is required")
		return
	}

	if req.OperatorID != nil {
		if _, err := h.store.GetOperator(r.Context(), *req.OperatorID); err != nil {
			handleError(w, err)
			return
		}
	}

	current := true
	if req.IsCurrent != nil {
		current = *req.IsCurrent
	}

	now := time.Now()
	p := &domain.Pilot{
		ID:                generateID(),
		OperatorID:        req.OperatorID,
		Name:              req.Name,
		ArnNumber:         req.ArnNumber,
		LicenceExpiryDate: req.LicenceExpiryDate,
		MedicalExpiryDate: req.MedicalExpiryDate,
		IsCurrent:         current,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.store.CreatePilot(r.Context(), p); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

// List lists all pilots.
func (h *PilotHandler) List(w http.ResponseWriter, r *http.Request) {
	pilots, err := h.store.ListPilots(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pilots)
}

// Get gets a pilot by ID.
func (h *PilotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	p, err := h.store.GetPilot(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// Update updates a pilot.
func (h *PilotHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	p, err := h.store.GetPilot(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	var req domain.UpdatePilotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OperatorID != nil {
		if _, err := h.store.GetOperator(r.Context(), *req.OperatorID); err != nil {
			handleError(w, err)
			return
		}
		p.OperatorID = req.OperatorID
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.ArnNumber != nil {
		p.ArnNumber = *req.ArnNumber
	}
	if req.LicenceExpiryDate != nil {
		p.LicenceExpiryDate = *req.LicenceExpiryDate
	}
	if req.MedicalExpiryDate != nil {
		p.MedicalExpiryDate = req.MedicalExpiryDate
	}
	if req.IsCurrent != nil {
		p.IsCurrent = *req.IsCurrent
	}
	p.UpdatedAt = time.Now()

	if err := h.store.UpdatePilot(r.Context(), p); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// Delete deletes a pilot.
func (h *PilotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.store.DeletePilot(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
