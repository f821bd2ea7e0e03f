package handler

import (
	"net/http"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/storage"
	"github.com/go-chi/chi/v5"
)

// OperatorHandler handles operator endpoints.
type OperatorHandler struct {
	store storage.Storage
}

// NewOperatorHandler creates a new OperatorHandler.
func NewOperatorHandler(store storage.Storage) *OperatorHandler {
	return &OperatorHandler{store: store}
}

// Create creates a new operator.
func (h *OperatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOperatorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.ReocNumber == "" {
		respondError(w, http.StatusBadRequest, "name and reocNumber are required")
		return
	}
	if req.ReocExpiryDate.IsZero() {
		respondError(w, http.StatusBadRequest, "reocExpiryDate is required")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := time.Now()
	op := &domain.Operator{
		ID:             generateID(),
		Name:           req.Name,
		ReocNumber:     req.ReocNumber,
		ReocExpiryDate: req.ReocExpiryDate,
		IsActive:       active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.store.CreateOperator(r.Context(), op); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, op)
}

// List lists all operators.
func (h *OperatorHandler) List(w http.ResponseWriter, r *http.Request) {
	ops, err := h.store.ListOperators(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ops)
}

// Get gets an operator by ID.
func (h *OperatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	op, err := h.store.GetOperator(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, op)
}

// Update updates an operator.
func (h *OperatorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	op, err := h.store.GetOperator(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	var req domain.UpdateOperatorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		op.Name = *req.Name
	}
	if req.ReocNumber != nil {
		op.ReocNumber = *req.ReocNumber
	}
	if req.ReocExpiryDate != nil {
		op.ReocExpiryDate = *req.ReocExpiryDate
	}
	if req.IsActive != nil {
		op.IsActive = *req.IsActive
	}
	op.UpdatedAt = time.Now()

	if err := h.store.UpdateOperator(r.Context(), op); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, op)
}

// Delete deletes an operator.
func (h *OperatorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.store.DeleteOperator(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
