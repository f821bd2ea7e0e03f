package handler

import (
	"net/http"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/rules"
	"github.com/flightline/casa-compliance/internal/storage"
	"github.com/flightline/casa-compliance/internal/validation"
	"github.com/go-chi/chi/v5"
)

// RuleHandler handles compliance rule endpoints. Every mutation
// invalidates the rule cache so the next evaluation sees the change.
type RuleHandler struct {
	store storage.Storage
	cache *rules.Cache
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(store storage.Storage, cache *rules.Cache) *RuleHandler {
	return &RuleHandler{store: store, cache: cache}
}

// Create creates a new compliance rule.
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now()
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	frequency := req.CheckFrequencyHours
	if frequency == 0 {
		frequency = 24
	}

	rule := &domain.ComplianceRule{
		ID:                   generateID(),
		RuleCode:             req.RuleCode,
		RuleName:             req.RuleName,
		Description:          req.Description,
		CASAReference:        req.CASAReference,
		Category:             req.Category,
		TargetRecordType:     req.TargetRecordType,
		FieldPath:            req.FieldPath,
		EvaluationType:       req.EvaluationType,
		Comparator:           req.Comparator,
		ThresholdValue:       req.ThresholdValue,
		TriggerValue:         req.TriggerValue,
		Pattern:              req.Pattern,
		TriggerDays:          req.TriggerDays,
		NestedEvaluationType: req.NestedEvaluationType,
		NestedFieldPath:      req.NestedFieldPath,
		Severity:             req.Severity,
		FailureMessage:       req.FailureMessage,
		CheckFrequencyHours:  frequency,
		IsActive:             active,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if errs := validation.ValidateRule(rule); errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	if err := h.store.CreateRule(r.Context(), rule); err != nil {
		handleError(w, err)
		return
	}

	h.cache.Invalidate()
	respondJSON(w, http.StatusCreated, rule)
}

// List lists compliance rules, optionally filtered by query parameters.
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.RuleFilter{
		TargetRecordType: r.URL.Query().Get("target_record_type"),
		Category:         r.URL.Query().Get("category"),
		ActiveOnly:       r.URL.Query().Get("active") == "true",
	}

	ruleList, err := h.store.ListRules(r.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ruleList)
}

// Get gets a rule by code.
func (h *RuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	rule, err := h.store.GetRule(r.Context(), code)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

// Update updates a rule by code. Only the provided fields change; the rule
// code itself is immutable.
func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	rule, err := h.store.GetRule(r.Context(), code)
	if err != nil {
		handleError(w, err)
		return
	}

	var req domain.UpdateRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	applyRuleUpdate(rule, &req)
	rule.UpdatedAt = time.Now()

	if errs := validation.ValidateRule(rule); errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	if err := h.store.UpdateRule(r.Context(), rule); err != nil {
		handleError(w, err)
		return
	}

	h.cache.Invalidate()
	respondJSON(w, http.StatusOK, rule)
}

// Delete deletes a rule by code.
func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := h.store.DeleteRule(r.Context(), code); err != nil {
		handleError(w, err)
		return
	}

	h.cache.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func applyRuleUpdate(rule *domain.ComplianceRule, req *domain.UpdateRuleRequest) {
	if req.RuleName != nil {
		rule.RuleName = *req.RuleName
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.CASAReference != nil {
		rule.CASAReference = *req.CASAReference
	}
	if req.Category != nil {
		rule.Category = *req.Category
	}
	if req.TargetRecordType != nil {
		rule.TargetRecordType = *req.TargetRecordType
	}
	if req.FieldPath != nil {
		rule.FieldPath = *req.FieldPath
	}
	if req.EvaluationType != nil {
		rule.EvaluationType = *req.EvaluationType
	}
	if req.Comparator != nil {
		rule.Comparator = *req.Comparator
	}
	if req.ThresholdValue != nil {
		rule.ThresholdValue = req.ThresholdValue
	}
	if req.TriggerValue != nil {
		rule.TriggerValue = *req.TriggerValue
	}
	if req.Pattern != nil {
		rule.Pattern = *req.Pattern
	}
	if req.TriggerDays != nil {
		rule.TriggerDays = req.TriggerDays
	}
	if req.NestedEvaluationType != nil {
		rule.NestedEvaluationType = *req.NestedEvaluationType
	}
	if req.NestedFieldPath != nil {
		rule.NestedFieldPath = *req.NestedFieldPath
	}
	if req.Severity != nil {
		rule.Severity = *req.Severity
	}
	if req.FailureMessage != nil {
		rule.FailureMessage = *req.FailureMessage
	}
	if req.CheckFrequencyHours != nil {
		rule.CheckFrequencyHours = *req.CheckFrequencyHours
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
}
