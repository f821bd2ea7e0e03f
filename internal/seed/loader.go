// Package seed loads compliance rule definitions from a YAML file and
// upserts them into storage at startup. Seeded rules are matched on
// rule_code, so editing the file and restarting updates rules in place.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/storage"
	"github.com/flightline/casa-compliance/internal/validation"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// File is the top-level structure of a rule seed file.
type File struct {
	Rules []RuleDef `yaml:"rules"`
}

// RuleDef is one rule definition in a seed file.
type RuleDef struct {
	RuleCode             string   `yaml:"rule_code"`
	RuleName             string   `yaml:"rule_name"`
	Description          string   `yaml:"description"`
	CASAReference        string   `yaml:"casa_reference"`
	Category             string   `yaml:"category"`
	TargetRecordType     string   `yaml:"target_record_type"`
	FieldPath            string   `yaml:"field_path"`
	EvaluationType       string   `yaml:"evaluation_type"`
	Comparator           string   `yaml:"comparator"`
	ThresholdValue       *float64 `yaml:"threshold_value"`
	TriggerValue         string   `yaml:"trigger_value"`
	Pattern              string   `yaml:"pattern"`
	TriggerDays          *int     `yaml:"trigger_days"`
	NestedEvaluationType string   `yaml:"nested_evaluation_type"`
	NestedFieldPath      string   `yaml:"nested_field_path"`
	Severity             string   `yaml:"severity"`
	FailureMessage       string   `yaml:"failure_message"`
	CheckFrequencyHours  int      `yaml:"check_frequency_hours"`
	IsActive             *bool    `yaml:"is_active"`
}

func (d RuleDef) toRule(now time.Time) *domain.ComplianceRule {
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	freq := d.CheckFrequencyHours
	if freq == 0 {
		freq = 24
	}
	return &domain.ComplianceRule{
		ID:                   uuid.New().String(),
		RuleCode:             d.RuleCode,
		RuleName:             d.RuleName,
		Description:          d.Description,
		CASAReference:        d.CASAReference,
		Category:             d.Category,
		TargetRecordType:     d.TargetRecordType,
		FieldPath:            d.FieldPath,
		EvaluationType:       domain.EvaluationType(d.EvaluationType),
		Comparator:           d.Comparator,
		ThresholdValue:       d.ThresholdValue,
		TriggerValue:         d.TriggerValue,
		Pattern:              d.Pattern,
		TriggerDays:          d.TriggerDays,
		NestedEvaluationType: domain.EvaluationType(d.NestedEvaluationType),
		NestedFieldPath:      d.NestedFieldPath,
		Severity:             domain.Status(d.Severity),
		FailureMessage:       d.FailureMessage,
		CheckFrequencyHours:  freq,
		IsActive:             active,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Parse reads and validates a seed file without touching storage.
func Parse(data []byte) ([]*domain.ComplianceRule, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	now := time.Now()
	seen := make(map[string]bool, len(file.Rules))
	rules := make([]*domain.ComplianceRule, 0, len(file.Rules))
	for i, def := range file.Rules {
		rule := def.toRule(now)
		if seen[rule.RuleCode] {
			return nil, fmt.Errorf("rule %d: duplicate rule_code %q", i, rule.RuleCode)
		}
		seen[rule.RuleCode] = true
		if errs := validation.ValidateRule(rule); errs.HasErrors() {
			return nil, fmt.Errorf("rule %q: %w", rule.RuleCode, errs)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadFile seeds the store with the rules defined in the file at path.
// Existing rules are updated in place; their created_at is preserved.
func LoadFile(ctx context.Context, store storage.Storage, logger *slog.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	rules, err := Parse(data)
	if err != nil {
		return err
	}

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("starting seed transaction: %w", err)
	}
	defer tx.Rollback()

	created, updated := 0, 0
	for _, rule := range rules {
		existing, err := tx.GetRule(ctx, rule.RuleCode)
		switch {
		case err == nil:
			rule.ID = existing.ID
			rule.CreatedAt = existing.CreatedAt
			if err := tx.UpdateRule(ctx, rule); err != nil {
				return fmt.Errorf("updating rule %q: %w", rule.RuleCode, err)
			}
			updated++
		case errors.Is(err, domain.ErrNotFound):
			if err := tx.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("creating rule %q: %w", rule.RuleCode, err)
			}
			created++
		default:
			return fmt.Errorf("looking up rule %q: %w", rule.RuleCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}

	logger.Info("seeded compliance rules", "path", path, "created", created, "updated", updated)
	return nil
}
