package validation

import (
	"testing"

	"github.com/flightline/casa-compliance/internal/domain"
)

func validRule() *domain.ComplianceRule {
	return &domain.ComplianceRule{
		RuleCode:         "CASA_REOC_EXPIRY",
		RuleName:         "ReOC must not be expired",
		TargetRecordType: domain.RecordTypeOperator,
		FieldPath:        "reoc_expiry_date",
		EvaluationType:   domain.EvalDateFuture,
		Severity:         domain.StatusRed,
	}
}

func TestValidateRuleCode(t *testing.T) {
	cases := []struct {
		code string
		ok   bool
	}{
		{"CASA_REG_001", true},
		{"A", true},
		{"", false},
		{"1CASA", false},
		{"_CASA", false},
		{"casa_reg", false},
		{"CASA-REG", false},
		{"CASA REG", false},
	}
	for _, tc := range cases {
		err := ValidateRuleCode(tc.code)
		if (err == nil) != tc.ok {
			t.Errorf("ValidateRuleCode(%q) = %v, want ok=%v", tc.code, err, tc.ok)
		}
	}
}

func TestValidateFieldPath(t *testing.T) {
	cases := []struct {
		path string
		ok   bool
	}{
		{"reoc_expiry_date", true},
		{"operator.is_active", true},
		{"a.b.c", true},
		{"", false},
		{"   ", false},
		{"Operator.name", false},
		{"operator..name", false},
		{"operator.", false},
		{"9lives", false},
	}
	for _, tc := range cases {
		err := ValidateFieldPath(tc.path)
		if (err == nil) != tc.ok {
			t.Errorf("ValidateFieldPath(%q) = %v, want ok=%v", tc.path, err, tc.ok)
		}
	}
}

func TestValidateRuleAccumulatesErrors(t *testing.T) {
	rule := &domain.ComplianceRule{
		RuleCode:            "bad code",
		RuleName:            "  ",
		TargetRecordType:    "spaceship",
		FieldPath:           "",
		EvaluationType:      domain.EvalDateFuture,
		Severity:            domain.Status("purple"),
		CheckFrequencyHours: -1,
	}

	errs := ValidateRule(rule)
	if len(errs) != 6 {
		t.Fatalf("expected 6 errors, got %d: %v", len(errs), errs)
	}

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"ruleCode", "ruleName", "targetRecordType", "fieldPath", "severity", "checkFrequencyHours"} {
		if !fields[f] {
			t.Errorf("expected an error for %s", f)
		}
	}
}

func TestValidateRuleValid(t *testing.T) {
	if errs := ValidateRule(validRule()); errs.HasErrors() {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidateRuleGreenSeverityRejected(t *testing.T) {
	rule := validRule()
	rule.Severity = domain.StatusGreen

	errs := ValidateRule(rule)
	if len(errs) != 1 || errs[0].Field != "severity" {
		t.Fatalf("expected a single severity error, got %v", errs)
	}
}

func TestValidateEvaluationParameters(t *testing.T) {
	ten := 10
	zero := 0
	limit := 25.0

	cases := []struct {
		name      string
		mutate    func(*domain.ComplianceRule)
		wantField string
	}{
		{
			"date_within_days missing days",
			func(r *domain.ComplianceRule) { r.EvaluationType = domain.EvalDateWithinDays },
			"triggerDays",
		},
		{
			"date_within_days zero days",
			func(r *domain.ComplianceRule) {
				r.EvaluationType = domain.EvalDateWithinDays
				r.TriggerDays = &zero
			},
			"triggerDays",
		},
		{
			"numeric_threshold missing threshold",
			func(r *domain.ComplianceRule) {
				r.EvaluationType = domain.EvalNumericThreshold
				r.Comparator = "<="
			},
			"thresholdValue",
		},
		{
			"numeric_threshold equality comparator",
			func(r *domain.ComplianceRule) {
				r.EvaluationType = domain.EvalNumericThreshold
				r.ThresholdValue = &limit
				r.Comparator = "=="
			},
			"comparator",
		},
		{
			"string_pattern missing pattern",
			func(r *domain.ComplianceRule) { r.EvaluationType = domain.EvalStringPattern },
			"pattern",
		},
		{
			"string_pattern invalid regexp",
			func(r *domain.ComplianceRule) {
				r.EvaluationType = domain.EvalStringPattern
				r.Pattern = "([unclosed"
			},
			"pattern",
		},
		{
			"equals missing value",
			func(r *domain.ComplianceRule) { r.EvaluationType = domain.EvalEquals },
			"triggerValue",
		},
		{
			"related_count missing threshold",
			func(r *domain.ComplianceRule) { r.EvaluationType = domain.EvalRelatedCount },
			"thresholdValue",
		},
		{
			"related_count bad comparator",
			func(r *domain.ComplianceRule) {
				r.EvaluationType = domain.EvalRelatedCount
				r.ThresholdValue = &limit
				r.Comparator = "~"
			},
			"comparator",
		},
		{
			"nested_field missing nested path",
			func(r *domain.ComplianceRule) {
				r.EvaluationType = domain.EvalNestedField
				r.NestedEvaluationType = domain.EvalBooleanTrue
			},
			"nestedFieldPath",
		},
		{
			"nested_field missing nested type",
			func(r *domain.ComplianceRule) {
				r.EvaluationType = domain.EvalNestedField
				r.NestedFieldPath = "is_active"
			},
			"nestedEvaluationType",
		},
		{
			"nested_field cannot nest",
			func(r *domain.ComplianceRule) {
				r.EvaluationType = domain.EvalNestedField
				r.NestedFieldPath = "is_active"
				r.NestedEvaluationType = domain.EvalNestedField
			},
			"nestedEvaluationType",
		},
		{
			"unknown evaluation type",
			func(r *domain.ComplianceRule) { r.EvaluationType = domain.EvaluationType("telepathy") },
			"evaluationType",
		},
	}

	for _, tc := range cases {
		rule := validRule()
		tc.mutate(rule)
		errs := ValidateRule(rule)
		if !errs.HasErrors() {
			t.Errorf("%s: expected validation errors", tc.name)
			continue
		}
		found := false
		for _, e := range errs {
			if e.Field == tc.wantField {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: expected an error for %s, got %v", tc.name, tc.wantField, errs)
		}
	}

	// Nested parameter checks apply to the inner check too.
	rule := validRule()
	rule.EvaluationType = domain.EvalNestedField
	rule.NestedFieldPath = "reoc_expiry_date"
	rule.NestedEvaluationType = domain.EvalDateWithinDays
	rule.TriggerDays = &ten
	if errs := ValidateRule(rule); errs.HasErrors() {
		t.Errorf("expected nested date_within_days with triggerDays to validate, got %v", errs)
	}
}

func TestValidationErrorsError(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "" {
		t.Errorf("empty collection should stringify to empty")
	}

	errs.Add("severity", "purple", "severity must be yellow or red")
	if errs.Error() != "severity: severity must be yellow or red" {
		t.Errorf("unexpected single-error string %q", errs.Error())
	}

	errs.Add("pattern", "", "string_pattern requires a pattern")
	if errs.Error() != "severity: severity must be yellow or red (and 1 more errors)" {
		t.Errorf("unexpected multi-error string %q", errs.Error())
	}
}
