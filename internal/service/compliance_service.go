// Package service orchestrates compliance evaluation: it loads target
// records with their relations, runs the rule engine, and persists the
// resulting checks as the audit trail.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flightline/casa-compliance/internal/compliance"
	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/rules"
	"github.com/flightline/casa-compliance/internal/storage"
	"github.com/flightline/casa-compliance/pkg/metrics"
	"github.com/google/uuid"
)

// ComplianceService evaluates records against the active rule set.
type ComplianceService struct {
	store   storage.Storage
	cache   *rules.Cache
	engine  *compliance.Engine
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewComplianceService creates a ComplianceService.
func NewComplianceService(store storage.Storage, cache *rules.Cache, engine *compliance.Engine, collector *metrics.Collector, logger *slog.Logger) *ComplianceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComplianceService{
		store:   store,
		cache:   cache,
		engine:  engine,
		metrics: collector,
		logger:  logger,
	}
}

// LoadRecord fetches a target record with the relations rules can traverse.
func (s *ComplianceService) LoadRecord(ctx context.Context, recordType, recordID string) (domain.Record, error) {
	switch recordType {
	case domain.RecordTypeOperator:
		return s.store.GetOperator(ctx, recordID)

	case domain.RecordTypeAircraft:
		a, err := s.store.GetAircraft(ctx, recordID)
		if err != nil {
			return nil, err
		}
		if a.OperatorID != nil {
			op, err := s.store.GetOperator(ctx, *a.OperatorID)
			if err != nil && err != domain.ErrNotFound {
				return nil, err
			}
			a.Operator = op
		}
		defects, err := s.store.ListOpenDefectsForAircraft(ctx, recordID)
		if err != nil {
			return nil, err
		}
		a.OpenDefects = defects
		return a, nil

	case domain.RecordTypePilot:
		p, err := s.store.GetPilot(ctx, recordID)
		if err != nil {
			return nil, err
		}
		if p.OperatorID != nil {
			op, err := s.store.GetOperator(ctx, *p.OperatorID)
			if err != nil && err != domain.ErrNotFound {
				return nil, err
			}
			p.Operator = op
		}
		return p, nil

	case domain.RecordTypeDefect:
		d, err := s.store.GetDefect(ctx, recordID)
		if err != nil {
			return nil, err
		}
		a, err := s.store.GetAircraft(ctx, d.AircraftID)
		if err != nil && err != domain.ErrNotFound {
			return nil, err
		}
		d.Aircraft = a
		return d, nil
	}

	return nil, fmt.Errorf("%w: unknown record type %q", domain.ErrInvalidInput, recordType)
}

// Evaluate runs every active rule targeting the record's type against it,
// persists one check per rule, and returns the three-color summary. A
// non-empty category restricts evaluation to rules in that category.
//
// Check persistence is best effort: a storage failure is logged but does
// not fail the evaluation, since the summary itself is already computed.
func (s *ComplianceService) Evaluate(ctx context.Context, recordType, recordID, category string) (*domain.Summary, error) {
	start := time.Now()

	rec, err := s.LoadRecord(ctx, recordType, recordID)
	if err != nil {
		return nil, err
	}

	activeRules, err := s.cache.ActiveRules(ctx, recordType)
	if err != nil {
		return nil, err
	}
	if category != "" {
		filtered := make([]*domain.ComplianceRule, 0, len(activeRules))
		for _, rule := range activeRules {
			if rule.Category == category {
				filtered = append(filtered, rule)
			}
		}
		activeRules = filtered
	}

	summary, err := s.engine.Evaluate(activeRules, rec)
	if err != nil {
		return nil, err
	}

	s.persistChecks(ctx, activeRules, summary)

	if s.metrics != nil {
		s.metrics.RecordEvaluation(recordType, time.Since(start))
		for _, result := range summary.RuleResults {
			if !result.Passed {
				s.metrics.RecordCheckFailure(result.RuleCode)
			}
		}
	}

	s.logger.Info("record evaluated",
		slog.String("record_type", recordType),
		slog.String("record_id", recordID),
		slog.String("status", string(summary.OverallStatus)),
		slog.Int("total_checks", summary.TotalChecks),
		slog.Int("failed_checks", summary.FailedChecks))

	return summary, nil
}

// persistChecks appends one audit check per rule result.
func (s *ComplianceService) persistChecks(ctx context.Context, activeRules []*domain.ComplianceRule, summary *domain.Summary) {
	frequency := make(map[string]int, len(activeRules))
	for _, rule := range activeRules {
		frequency[rule.RuleCode] = rule.CheckFrequencyHours
	}

	for _, result := range summary.RuleResults {
		check := &domain.ComplianceCheck{
			ID:         uuid.New().String(),
			RuleCode:   result.RuleCode,
			RecordType: summary.RecordType,
			RecordID:   summary.RecordID,
			Passed:     result.Passed,
			Status:     result.Status,
			FieldValue: result.FieldValue,
			Message:    result.Message,
			CreatedAt:  summary.EvaluatedAt,
		}
		if hours := frequency[result.RuleCode]; hours > 0 {
			due := summary.EvaluatedAt.Add(time.Duration(hours) * time.Hour)
			check.NextCheckDue = &due
		}
		if err := s.store.CreateCheck(ctx, check); err != nil {
			s.logger.Error("failed to persist compliance check",
				slog.String("rule_code", result.RuleCode),
				slog.String("record_id", summary.RecordID),
				slog.String("error", err.Error()))
		}
	}
}

// History returns the stored checks for a record, newest first.
func (s *ComplianceService) History(ctx context.Context, recordType, recordID string, limit, offset int) ([]*domain.ComplianceCheck, error) {
	if !domain.KnownRecordType(recordType) {
		return nil, fmt.Errorf("%w: unknown record type %q", domain.ErrInvalidInput, recordType)
	}
	return s.store.ListChecksForRecord(ctx, recordType, recordID, limit, offset)
}

// Dashboard computes system-wide compliance counts over the latest check
// per (record, rule) pair.
func (s *ComplianceService) Dashboard(ctx context.Context) (*domain.DashboardData, error) {
	now := time.Now()

	latest, err := s.store.ListLatestChecks(ctx)
	if err != nil {
		return nil, err
	}

	data := &domain.DashboardData{GeneratedAt: now}
	for _, check := range latest {
		data.TotalChecks++
		switch check.Status {
		case domain.StatusGreen:
			data.GreenChecks++
		case domain.StatusYellow:
			data.YellowChecks++
		case domain.StatusRed:
			data.RedChecks++
		}
		if check.NextCheckDue != nil && check.NextCheckDue.Before(now) {
			data.OverdueChecks++
		}
	}

	bySeverity, err := s.store.CountRulesBySeverity(ctx)
	if err != nil {
		return nil, err
	}
	data.CriticalRules = bySeverity[domain.StatusRed]
	data.WarningRules = bySeverity[domain.StatusYellow]
	data.TotalRules = data.CriticalRules + data.WarningRules

	if s.metrics != nil {
		s.metrics.SetRecordStatusCounts(data.GreenChecks, data.YellowChecks, data.RedChecks)
	}

	return data, nil
}

// RecheckOverdue re-evaluates every record whose latest check for any rule
// is past its next_check_due. Records that fail to load (deleted since the
// last check) are skipped with a warning.
func (s *ComplianceService) RecheckOverdue(ctx context.Context) (*domain.RecheckResult, error) {
	result := &domain.RecheckResult{StartedAt: time.Now()}

	refs, err := s.store.ListOverdueRecords(ctx, result.StartedAt)
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		summary, err := s.Evaluate(ctx, ref.RecordType, ref.RecordID, "")
		if err != nil {
			s.logger.Warn("overdue recheck skipped record",
				slog.String("record_type", ref.RecordType),
				slog.String("record_id", ref.RecordID),
				slog.String("error", err.Error()))
			continue
		}
		result.RecordsEvaluated++
		result.ChecksRun += summary.TotalChecks
		if summary.FailedChecks > 0 {
			result.RecordsFailed++
		}
	}

	if s.metrics != nil {
		s.metrics.RecordOverdueRecheck(result.RecordsEvaluated)
	}

	s.logger.Info("overdue recheck complete",
		slog.Int("records_evaluated", result.RecordsEvaluated),
		slog.Int("checks_run", result.ChecksRun),
		slog.Int("records_failed", result.RecordsFailed))

	return result, nil
}

// StartRecheckLoop runs RecheckOverdue on a fixed interval until the
// context is cancelled. Call in a goroutine from main.
func (s *ComplianceService) StartRecheckLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RecheckOverdue(ctx); err != nil {
				s.logger.Error("scheduled recheck failed", slog.String("error", err.Error()))
			}
		}
	}
}
