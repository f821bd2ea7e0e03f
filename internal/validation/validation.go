// Package validation checks compliance rule definitions before they are
// stored. A rule that passes validation can still fail at evaluation time
// against a record type that does not expose its field path; that surfaces
// as a ConfigurationError from the engine.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/flightline/casa-compliance/internal/domain"
)

// isUpperAlpha returns true if the byte is an ASCII uppercase letter.
func isUpperAlpha(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

// isNum returns true if the byte is an ASCII digit.
func isNum(b byte) bool {
	return b >= '0' && b <= '9'
}

// ValidateRuleCode validates a rule code.
// Rule codes follow the CASA register convention: uppercase letters, digits
// and underscores, starting with a letter (e.g. "CASA_REG_001").
func ValidateRuleCode(code string) error {
	if code == "" {
		return fmt.Errorf("rule code must not be empty")
	}
	if !isUpperAlpha(code[0]) {
		return fmt.Errorf("rule code must start with an uppercase letter")
	}
	for _, b := range []byte(code) {
		if !isUpperAlpha(b) && !isNum(b) && b != '_' {
			return fmt.Errorf("rule codes can only contain uppercase letters, digits, or underscores")
		}
	}
	return nil
}

// fieldSegment matches one dotted-path segment: a lowercase identifier.
var fieldSegment = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateFieldPath validates a dotted field path.
func ValidateFieldPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("field path must not be empty")
	}
	for _, seg := range strings.Split(path, ".") {
		if !fieldSegment.MatchString(seg) {
			return fmt.Errorf("invalid field path segment %q", seg)
		}
	}
	return nil
}

// numericComparators are allowed for numeric_threshold.
var numericComparators = map[string]bool{">": true, ">=": true, "<": true, "<=": true}

// countComparators are allowed for related_count.
var countComparators = map[string]bool{"==": true, "!=": true, ">": true, ">=": true, "<": true, "<=": true}

// ValidateRule validates a complete rule definition, accumulating every
// problem rather than stopping at the first.
func ValidateRule(rule *domain.ComplianceRule) ValidationErrors {
	var errs ValidationErrors

	if err := ValidateRuleCode(rule.RuleCode); err != nil {
		errs.Add("ruleCode", rule.RuleCode, err.Error())
	}
	if strings.TrimSpace(rule.RuleName) == "" {
		errs.Add("ruleName", rule.RuleName, "rule name must not be empty")
	}
	if !domain.KnownRecordType(rule.TargetRecordType) {
		errs.Add("targetRecordType", rule.TargetRecordType,
			fmt.Sprintf("unknown record type, expected one of %s", strings.Join(domain.RecordTypes, ", ")))
	}
	if err := ValidateFieldPath(rule.FieldPath); err != nil {
		errs.Add("fieldPath", rule.FieldPath, err.Error())
	}
	if !rule.Severity.ValidSeverity() {
		errs.Add("severity", string(rule.Severity), "severity must be yellow or red")
	}
	if rule.CheckFrequencyHours < 0 {
		errs.Add("checkFrequencyHours", fmt.Sprintf("%d", rule.CheckFrequencyHours),
			"check frequency must not be negative")
	}

	validateEvaluation(rule, rule.EvaluationType, false, &errs)
	return errs
}

// validateEvaluation checks the parameter combinations for one evaluation
// type. nested is true when validating the inner check of a nested_field
// rule, which may not itself be nested_field.
func validateEvaluation(rule *domain.ComplianceRule, evalType domain.EvaluationType, nested bool, errs *ValidationErrors) {
	field := "evaluationType"
	if nested {
		field = "nestedEvaluationType"
	}

	switch evalType {
	case domain.EvalExists, domain.EvalNotExists,
		domain.EvalDateFuture, domain.EvalDatePast,
		domain.EvalBooleanTrue, domain.EvalBooleanFalse:
		// No parameters.

	case domain.EvalDateWithinDays:
		if rule.TriggerDays == nil || *rule.TriggerDays <= 0 {
			errs.Add("triggerDays", "", "date_within_days requires a positive triggerDays")
		}

	case domain.EvalNumericThreshold:
		if rule.ThresholdValue == nil {
			errs.Add("thresholdValue", "", "numeric_threshold requires thresholdValue")
		}
		if !numericComparators[rule.Comparator] {
			errs.Add("comparator", rule.Comparator, "numeric_threshold requires a comparator of >, >=, <, or <=")
		}

	case domain.EvalStringPattern:
		if rule.Pattern == "" {
			errs.Add("pattern", "", "string_pattern requires a pattern")
		} else if _, err := regexp.Compile(rule.Pattern); err != nil {
			errs.Add("pattern", rule.Pattern, "invalid pattern: "+err.Error())
		}

	case domain.EvalEquals:
		if rule.TriggerValue == "" {
			errs.Add("triggerValue", "", "equals requires triggerValue")
		}

	case domain.EvalRelatedCount:
		if rule.ThresholdValue == nil {
			errs.Add("thresholdValue", "", "related_count requires thresholdValue")
		}
		if rule.Comparator != "" && !countComparators[rule.Comparator] {
			errs.Add("comparator", rule.Comparator, "invalid comparator for related_count")
		}

	case domain.EvalNestedField:
		if nested {
			errs.Add(field, string(evalType), "nested_field cannot be nested")
			return
		}
		if rule.NestedFieldPath == "" {
			errs.Add("nestedFieldPath", "", "nested_field requires nestedFieldPath")
		} else if err := ValidateFieldPath(rule.NestedFieldPath); err != nil {
			errs.Add("nestedFieldPath", rule.NestedFieldPath, err.Error())
		}
		if rule.NestedEvaluationType == "" {
			errs.Add("nestedEvaluationType", "", "nested_field requires nestedEvaluationType")
		} else {
			validateEvaluation(rule, rule.NestedEvaluationType, true, errs)
		}

	default:
		errs.Add(field, string(evalType), "unknown evaluation type")
	}
}
