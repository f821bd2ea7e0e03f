package domain

import "time"

// EvaluationType selects the check semantics applied to a resolved field value.
type EvaluationType string

const (
	EvalExists           EvaluationType = "exists"
	EvalNotExists        EvaluationType = "not_exists"
	EvalDateFuture       EvaluationType = "date_future"
	EvalDatePast         EvaluationType = "date_past"
	EvalDateWithinDays   EvaluationType = "date_within_days"
	EvalBooleanTrue      EvaluationType = "boolean_true"
	EvalBooleanFalse     EvaluationType = "boolean_false"
	EvalNumericThreshold EvaluationType = "numeric_threshold"
	EvalStringPattern    EvaluationType = "string_pattern"
	EvalEquals           EvaluationType = "equals"
	EvalRelatedCount     EvaluationType = "related_count"
	EvalNestedField      EvaluationType = "nested_field"
)

// EvaluationTypes lists every supported evaluation type.
var EvaluationTypes = []EvaluationType{
	EvalExists, EvalNotExists,
	EvalDateFuture, EvalDatePast, EvalDateWithinDays,
	EvalBooleanTrue, EvalBooleanFalse,
	EvalNumericThreshold, EvalStringPattern, EvalEquals,
	EvalRelatedCount, EvalNestedField,
}

// ComplianceRule is a declarative, reusable definition of one compliance
// check. Rules are created and edited by administrators and are read-only
// at evaluation time.
type ComplianceRule struct {
	ID               string         `json:"id" db:"id"`
	RuleCode         string         `json:"ruleCode" db:"rule_code"`
	RuleName         string         `json:"ruleName" db:"rule_name"`
	Description      string         `json:"description,omitempty" db:"description"`
	CASAReference    string         `json:"casaReference,omitempty" db:"casa_reference"`
	Category         string         `json:"category,omitempty" db:"category"`
	TargetRecordType string         `json:"targetRecordType" db:"target_record_type"`
	FieldPath        string         `json:"fieldPath" db:"field_path"`
	EvaluationType   EvaluationType `json:"evaluationType" db:"evaluation_type"`

	// Parameters. Which ones are required depends on EvaluationType;
	// validation.ValidateRule enforces the combinations.
	Comparator           string         `json:"comparator,omitempty" db:"comparator"`
	ThresholdValue       *float64       `json:"thresholdValue,omitempty" db:"threshold_value"`
	TriggerValue         string         `json:"triggerValue,omitempty" db:"trigger_value"`
	Pattern              string         `json:"pattern,omitempty" db:"pattern"`
	TriggerDays          *int           `json:"triggerDays,omitempty" db:"trigger_days"`
	NestedEvaluationType EvaluationType `json:"nestedEvaluationType,omitempty" db:"nested_evaluation_type"`
	NestedFieldPath      string         `json:"nestedFieldPath,omitempty" db:"nested_field_path"`

	Severity            Status    `json:"severity" db:"severity"`
	FailureMessage      string    `json:"failureMessage,omitempty" db:"failure_message"`
	CheckFrequencyHours int       `json:"checkFrequencyHours" db:"check_frequency_hours"`
	IsActive            bool      `json:"isActive" db:"is_active"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time `json:"updatedAt" db:"updated_at"`
}

// CreateRuleRequest is the request body for creating a compliance rule.
type CreateRuleRequest struct {
	RuleCode             string         `json:"ruleCode"`
	RuleName             string         `json:"ruleName"`
	Description          string         `json:"description,omitempty"`
	CASAReference        string         `json:"casaReference,omitempty"`
	Category             string         `json:"category,omitempty"`
	TargetRecordType     string         `json:"targetRecordType"`
	FieldPath            string         `json:"fieldPath"`
	EvaluationType       EvaluationType `json:"evaluationType"`
	Comparator           string         `json:"comparator,omitempty"`
	ThresholdValue       *float64       `json:"thresholdValue,omitempty"`
	TriggerValue         string         `json:"triggerValue,omitempty"`
	Pattern              string         `json:"pattern,omitempty"`
	TriggerDays          *int           `json:"triggerDays,omitempty"`
	NestedEvaluationType EvaluationType `json:"nestedEvaluationType,omitempty"`
	NestedFieldPath      string         `json:"nestedFieldPath,omitempty"`
	Severity             Status         `json:"severity"`
	FailureMessage       string         `json:"failureMessage,omitempty"`
	CheckFrequencyHours  int            `json:"checkFrequencyHours,omitempty"`
	IsActive             *bool          `json:"isActive,omitempty"`
}

// UpdateRuleRequest is the request body for updating a compliance rule.
// Nil fields are left unchanged.
type UpdateRuleRequest struct {
	RuleName             *string         `json:"ruleName,omitempty"`
	Description          *string         `json:"description,omitempty"`
	CASAReference        *string         `json:"casaReference,omitempty"`
	Category             *string         `json:"category,omitempty"`
	TargetRecordType     *string         `json:"targetRecordType,omitempty"`
	FieldPath            *string         `json:"fieldPath,omitempty"`
	EvaluationType       *EvaluationType `json:"evaluationType,omitempty"`
	Comparator           *string         `json:"comparator,omitempty"`
	ThresholdValue       *float64        `json:"thresholdValue,omitempty"`
	TriggerValue         *string         `json:"triggerValue,omitempty"`
	Pattern              *string         `json:"pattern,omitempty"`
	TriggerDays          *int            `json:"triggerDays,omitempty"`
	NestedEvaluationType *EvaluationType `json:"nestedEvaluationType,omitempty"`
	NestedFieldPath      *string         `json:"nestedFieldPath,omitempty"`
	Severity             *Status         `json:"severity,omitempty"`
	FailureMessage       *string         `json:"failureMessage,omitempty"`
	CheckFrequencyHours  *int            `json:"checkFrequencyHours,omitempty"`
	IsActive             *bool           `json:"isActive,omitempty"`
}

// RuleFilter narrows rule queries.
type RuleFilter struct {
	TargetRecordType string
	Category         string
	ActiveOnly       bool
}
