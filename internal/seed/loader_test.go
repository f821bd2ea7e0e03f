package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/storage/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadFile(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	if err := LoadFile(ctx, store, discardLogger(), "testdata/rules.yaml"); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	rules, err := store.ListRules(ctx, domain.RuleFilter{})
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(rules) != 10 {
		t.Fatalf("expected 10 seeded rules, got %d", len(rules))
	}

	rule, err := store.GetRule(ctx, "CASA_AC_WEIGHT_CLASS")
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}
	if rule.EvaluationType != domain.EvalNumericThreshold {
		t.Errorf("expected numeric_threshold, got %s", rule.EvaluationType)
	}
	if rule.ThresholdValue == nil || *rule.ThresholdValue != 25 {
		t.Errorf("expected threshold 25, got %v", rule.ThresholdValue)
	}
	if rule.Comparator != "<=" {
		t.Errorf("expected comparator <=, got %q", rule.Comparator)
	}
	if !rule.IsActive {
		t.Error("seeded rule should default to active")
	}
	if rule.CheckFrequencyHours != 24 {
		t.Errorf("expected default check frequency 24, got %d", rule.CheckFrequencyHours)
	}
}

func TestLoadFileIsIdempotent(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	if err := LoadFile(ctx, store, discardLogger(), "testdata/rules.yaml"); err != nil {
		t.Fatalf("first LoadFile failed: %v", err)
	}
	first, err := store.GetRule(ctx, "CASA_REOC_EXPIRY")
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}

	if err := LoadFile(ctx, store, discardLogger(), "testdata/rules.yaml"); err != nil {
		t.Fatalf("second LoadFile failed: %v", err)
	}
	second, err := store.GetRule(ctx, "CASA_REOC_EXPIRY")
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}

	if second.ID != first.ID {
		t.Error("reseeding should preserve the rule ID")
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("reseeding should preserve created_at")
	}

	rules, err := store.ListRules(ctx, domain.RuleFilter{})
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(rules) != 10 {
		t.Errorf("expected 10 rules after reseed, got %d", len(rules))
	}
}

func TestParseRejectsInvalidRule(t *testing.T) {
	data := []byte(`
rules:
  - rule_code: lowercase_bad
    rule_name: Broken
    target_record_type: operator
    field_path: name
    evaluation_type: exists
    severity: red
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected validation error for lowercase rule code")
	}
}

func TestParseRejectsDuplicateCodes(t *testing.T) {
	data := []byte(`
rules:
  - rule_code: CASA_DUP
    rule_name: First
    target_record_type: operator
    field_path: name
    evaluation_type: exists
    severity: red
  - rule_code: CASA_DUP
    rule_name: Second
    target_record_type: operator
    field_path: name
    evaluation_type: exists
    severity: red
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for duplicate rule codes")
	}
}

func TestParseRejectsMissingParameters(t *testing.T) {
	data := []byte(`
rules:
  - rule_code: CASA_NO_THRESHOLD
    rule_name: Missing threshold
    target_record_type: aircraft
    field_path: weight_kg
    evaluation_type: numeric_threshold
    comparator: "<="
    severity: yellow
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for numeric_threshold without thresholdValue")
	}
}
