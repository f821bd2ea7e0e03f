package handler

import (
	"net/http"
	"strconv"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/service"
	"github.com/go-chi/chi/v5"
)

// ComplianceHandler handles evaluation, history and dashboard endpoints.
type ComplianceHandler struct {
	svc *service.ComplianceService
}

// NewComplianceHandler creates a new ComplianceHandler.
func NewComplianceHandler(svc *service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{svc: svc}
}

// recordParams extracts and checks the record reference path parameters.
func recordParams(w http.ResponseWriter, r *http.Request) (recordType, recordID string, ok bool) {
	recordType = chi.URLParam(r, "record_type")
	recordID = chi.URLParam(r, "record_id")
	if recordType == "" || recordID == "" {
		respondError(w, http.StatusBadRequest, "record_type and record_id are required")
		return "", "", false
	}
	if !domain.KnownRecordType(recordType) {
		respondError(w, http.StatusBadRequest, "unknown record type")
		return "", "", false
	}
	return recordType, recordID, true
}

// Summary evaluates every active rule against the record and returns the
// three-color summary. Each evaluation also appends to the audit trail.
func (h *ComplianceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	recordType, recordID, ok := recordParams(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Evaluate(r.Context(), recordType, recordID, r.URL.Query().Get("category"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// History returns the stored check history for a record, newest first.
func (h *ComplianceHandler) History(w http.ResponseWriter, r *http.Request) {
	recordType, recordID, ok := recordParams(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	checks, err := h.svc.History(r.Context(), recordType, recordID, limit, offset)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, checks)
}

// Dashboard returns system-wide compliance counts.
func (h *ComplianceHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Dashboard(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, data)
}

// Recheck re-evaluates every record with an overdue check.
func (h *ComplianceHandler) Recheck(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RecheckOverdue(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
