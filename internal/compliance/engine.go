package compliance

import (
	"log/slog"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
)

// Engine evaluates compliance rules against target records and reduces the
// verdicts into a three-color summary. Evaluation is a pure, deterministic
// function of (rules, record state, clock); the engine holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, now: time.Now}
}

// EvaluateRule runs a single rule against a record.
func (e *Engine) EvaluateRule(rule *domain.ComplianceRule, rec domain.Record) (domain.RuleResult, error) {
	passed, rendered, err := evaluateRule(rule, rec, e.now())
	if err != nil {
		return domain.RuleResult{}, err
	}

	result := domain.RuleResult{
		RuleCode:   rule.RuleCode,
		RuleName:   rule.RuleName,
		Passed:     passed,
		Status:     domain.StatusGreen,
		FieldValue: rendered,
	}
	if !passed {
		result.Status = rule.Severity
		result.Message = rule.FailureMessage
		if result.Message == "" {
			result.Message = rule.RuleName + " check failed"
		}
	}
	return result, nil
}

// Evaluate runs every rule against the record and aggregates the verdicts.
// Overall status is the worst individual status; no rules means nothing to
// fail, so the summary is green with zero checks. A configuration error in
// any rule aborts the whole evaluation: a partial summary would mask a
// broken rule definition as an aviation data failure.
func (e *Engine) Evaluate(rules []*domain.ComplianceRule, rec domain.Record) (*domain.Summary, error) {
	summary := &domain.Summary{
		RecordType:    rec.RecordType(),
		RecordID:      rec.RecordID(),
		OverallStatus: domain.StatusGreen,
		RuleResults:   make([]domain.RuleResult, 0, len(rules)),
		EvaluatedAt:   e.now(),
	}

	for _, rule := range rules {
		result, err := e.EvaluateRule(rule, rec)
		if err != nil {
			e.logger.Error("rule evaluation aborted",
				slog.String("rule_code", rule.RuleCode),
				slog.String("record_type", rec.RecordType()),
				slog.String("record_id", rec.RecordID()),
				slog.String("error", err.Error()))
			return nil, err
		}

		summary.TotalChecks++
		if !result.Passed {
			summary.FailedChecks++
		}
		summary.OverallStatus = summary.OverallStatus.Worst(result.Status)
		summary.RuleResults = append(summary.RuleResults, result)
	}

	return summary, nil
}
