package compliance

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
)

// evaluateRule resolves the rule's field path against the record and applies
// the rule's evaluation type. It returns the pass/fail verdict and the
// rendered field value for the audit trail. Errors are configuration errors
// only; data-quality problems fold into a failing verdict.
func evaluateRule(rule *domain.ComplianceRule, rec domain.Record, now time.Time) (passed bool, rendered string, err error) {
	fv, err := Resolve(rec, rule.FieldPath)
	if err != nil {
		return false, "", stampRule(err, rule.RuleCode)
	}

	if rule.EvaluationType == domain.EvalNestedField {
		passed, rendered, err = evaluateNested(rule, fv, now)
	} else {
		passed, err = applyCheck(rule, rule.EvaluationType, fv, now)
		rendered = renderValue(fv)
	}
	if err != nil {
		return false, "", stampRule(err, rule.RuleCode)
	}
	return passed, rendered, nil
}

// evaluateNested dereferences the relation at the rule's field path and
// applies the nested check to the nested path on the related record.
// An absent relation is missing data and fails the check.
func evaluateNested(rule *domain.ComplianceRule, fv FieldValue, now time.Time) (bool, string, error) {
	if rule.NestedEvaluationType == "" || rule.NestedFieldPath == "" {
		return false, "", &domain.ConfigurationError{
			Reason: "nested_field requires nestedEvaluationType and nestedFieldPath",
		}
	}
	if fv.Absent {
		return false, "", nil
	}
	related, ok := fv.Value.(domain.Record)
	if !ok {
		return false, "", &domain.ConfigurationError{
			Field:  rule.FieldPath,
			Reason: "nested_field path must resolve to a relation",
		}
	}

	nested, err := Resolve(related, rule.NestedFieldPath)
	if err != nil {
		return false, "", err
	}
	passed, err := applyCheck(rule, rule.NestedEvaluationType, nested, now)
	return passed, renderValue(nested), err
}

// applyCheck dispatches one evaluation type against a resolved value.
// Absent data fails every check except not_exists: in the aviation domain,
// missing data is a risk, not a pass.
func applyCheck(rule *domain.ComplianceRule, evalType domain.EvaluationType, fv FieldValue, now time.Time) (bool, error) {
	switch evalType {
	case domain.EvalExists:
		return !fv.Empty(), nil

	case domain.EvalNotExists:
		return fv.Empty(), nil

	case domain.EvalRelatedCount:
		return checkRelatedCount(rule, fv)
	}

	// Everything below needs an actual value to inspect.
	if fv.Empty() {
		return false, nil
	}

	switch evalType {
	case domain.EvalDateFuture:
		d, err := asDate(fv.Value)
		if err != nil {
			return false, err
		}
		return d.After(now), nil

	case domain.EvalDatePast:
		d, err := asDate(fv.Value)
		if err != nil {
			return false, err
		}
		return d.Before(now), nil

	case domain.EvalDateWithinDays:
		if rule.TriggerDays == nil {
			return false, &domain.ConfigurationError{Reason: "date_within_days requires triggerDays"}
		}
		d, err := asDate(fv.Value)
		if err != nil {
			return false, err
		}
		return !d.Before(now.AddDate(0, 0, -*rule.TriggerDays)), nil

	case domain.EvalBooleanTrue:
		b, err := asBool(fv.Value)
		if err != nil {
			return false, err
		}
		return b, nil

	case domain.EvalBooleanFalse:
		b, err := asBool(fv.Value)
		if err != nil {
			return false, err
		}
		return !b, nil

	case domain.EvalNumericThreshold:
		if rule.ThresholdValue == nil {
			return false, &domain.ConfigurationError{Reason: "numeric_threshold requires thresholdValue"}
		}
		n, err := asNumber(fv.Value)
		if err != nil {
			return false, err
		}
		return compare(rule.Comparator, n, *rule.ThresholdValue)

	case domain.EvalStringPattern:
		s, ok := fv.Value.(string)
		if !ok {
			return false, &domain.ConfigurationError{Reason: "string_pattern requires a string field"}
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return false, &domain.ConfigurationError{Reason: "invalid pattern: " + err.Error()}
		}
		return re.MatchString(s), nil

	case domain.EvalEquals:
		if rule.TriggerValue == "" {
			return false, &domain.ConfigurationError{Reason: "equals requires triggerValue"}
		}
		return renderValue(fv) == rule.TriggerValue, nil
	}

	return false, &domain.ConfigurationError{
		Reason: fmt.Sprintf("unknown evaluation type %q", evalType),
	}
}

// checkRelatedCount compares the size of a related collection against the
// rule's threshold. An empty collection is a present collection of zero
// elements, not missing data.
func checkRelatedCount(rule *domain.ComplianceRule, fv FieldValue) (bool, error) {
	if rule.ThresholdValue == nil {
		return false, &domain.ConfigurationError{Reason: "related_count requires thresholdValue"}
	}
	if fv.Absent {
		return false, nil
	}
	coll, ok := fv.Value.([]domain.Record)
	if !ok {
		return false, &domain.ConfigurationError{
			Field:  rule.FieldPath,
			Reason: "related_count requires a related collection",
		}
	}
	cmp := rule.Comparator
	if cmp == "" {
		cmp = "=="
	}
	return compare(cmp, float64(len(coll)), *rule.ThresholdValue)
}

func compare(cmp string, a, b float64) (bool, error) {
	switch cmp {
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case "==":
		return a == b, nil
	case "!=":
		return a != b, nil
	}
	return false, &domain.ConfigurationError{Reason: fmt.Sprintf("unknown comparator %q", cmp)}
}

func asDate(v any) (time.Time, error) {
	d, ok := v.(time.Time)
	if !ok {
		return time.Time{}, &domain.ConfigurationError{Reason: fmt.Sprintf("expected a date, field holds %T", v)}
	}
	return d, nil
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, &domain.ConfigurationError{Reason: fmt.Sprintf("expected a boolean, field holds %T", v)}
	}
	return b, nil
}

func asNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, &domain.ConfigurationError{Reason: fmt.Sprintf("expected a number, field holds %T", v)}
}

// renderValue formats a resolved value for the audit trail.
func renderValue(fv FieldValue) string {
	if fv.Absent || fv.Value == nil {
		return ""
	}
	switch v := fv.Value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case time.Time:
		return v.Format(time.RFC3339)
	case domain.Record:
		return v.RecordType() + ":" + v.RecordID()
	case []domain.Record:
		return "count=" + strconv.Itoa(len(v))
	}
	return fmt.Sprintf("%v", fv.Value)
}

// stampRule attaches the rule code to a configuration error raised while
// evaluating it.
func stampRule(err error, ruleCode string) error {
	if ce, ok := err.(*domain.ConfigurationError); ok && ce.RuleCode == "" {
		ce.RuleCode = ruleCode
	}
	return err
}
