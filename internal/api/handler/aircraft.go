package handler

import (
	"net/http"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/storage"
	"github.com/go-chi/chi/v5"
)

// AircraftHandler handles aircraft endpoints.
type AircraftHandler struct {
	store storage.Storage
}

// NewAircraftHandler creates a new AircraftHandler.
func NewAircraftHandler(store storage.Storage) *AircraftHandler {
	return &AircraftHandler{store: store}
}

// Create registers a new aircraft.
func (h *AircraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAircraftRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Registration == "" {
		respondError(w, http.StatusBadRequest, "registration is required")
		return
	}
	if req.RegistrationExpiryDate.IsZero() {
		respondError(w, http.StatusBadRequest, "registrationExpiryDate is required")
		return
	}

	if req.OperatorID != nil {
		if _, err := h.store.GetOperator(r.Context(), *req.OperatorID); err != nil {
			handleError(w, err)
			return
		}
	}

	serviceable := true
	if req.IsServiceable != nil {
		serviceable = *req.IsServiceable
	}

	now := time.Now()
	a := &domain.Aircraft{
		ID:                     generateID(),
		OperatorID:             req.OperatorID,
		Registration:           req.Registration,
		Make:                   req.Make,
		Model:                  req.Model,
		SerialNumber:           req.SerialNumber,
		WeightKg:               req.WeightKg,
		IsServiceable:          serviceable,
		RegistrationExpiryDate: req.RegistrationExpiryDate,
		InsuranceExpiryDate:    req.InsuranceExpiryDate,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := h.store.CreateAircraft(r.Context(), a); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, a)
}

// List lists all aircraft.
func (h *AircraftHandler) List(w http.ResponseWriter, r *http.Request) {
	aircraft, err := h.store.ListAircraft(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, aircraft)
}

// Get gets an aircraft by ID.
func (h *AircraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "aircraft_id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "aircraft_id is required")
		return
	}

	a, err := h.store.GetAircraft(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, a)
}

// Update updates an aircraft.
func (h *AircraftHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "aircraft_id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "aircraft_id is required")
		return
	}

	a, err := h.store.GetAircraft(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	var req domain.UpdateAircraftRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OperatorID != nil {
		if _, err := h.store.GetOperator(r.Context(), *req.OperatorID); err != nil {
			handleError(w, err)
			return
		}
		a.OperatorID = req.OperatorID
	}
	if req.Registration != nil {
		a.Registration = *req.Registration
	}
	if req.Make != nil {
		a.Make = *req.Make
	}
	if req.Model != nil {
		a.Model = *req.Model
	}
	if req.SerialNumber != nil {
		a.SerialNumber = *req.SerialNumber
	}
	if req.WeightKg != nil {
		a.WeightKg = *req.WeightKg
	}
	if req.IsServiceable != nil {
		a.IsServiceable = *req.IsServiceable
	}
	if req.RegistrationExpiryDate != nil {
		a.RegistrationExpiryDate = *req.RegistrationExpiryDate
	}
	if req.InsuranceExpiryDate != nil {
		a.InsuranceExpiryDate = req.InsuranceExpiryDate
	}
	a.UpdatedAt = time.Now()

	if err := h.store.UpdateAircraft(r.Context(), a); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, a)
}

// Delete deletes an aircraft and its defects.
func (h *AircraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "aircraft_id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "aircraft_id is required")
		return
	}

	if err := h.store.DeleteAircraft(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
