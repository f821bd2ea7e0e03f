package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/flightline/casa-compliance/internal/compliance"
	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/rules"
	"github.com/flightline/casa-compliance/internal/storage/memory"
	"github.com/google/uuid"
)

func newTestService(store *memory.Store) *ComplianceService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := rules.NewCache(store)
	engine := compliance.NewEngine(logger)
	return NewComplianceService(store, cache, engine, nil, logger)
}

func seedOperator(t *testing.T, store *memory.Store, expiry time.Time, active bool) *domain.Operator {
	t.Helper()
	now := time.Now()
	op := &domain.Operator{
		ID:             uuid.New().String(),
		Name:           "Outback Aerial Surveys",
		ReocNumber:     "ReOC." + uuid.New().String()[:8],
		ReocExpiryDate: expiry,
		IsActive:       active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.CreateOperator(context.Background(), op); err != nil {
		t.Fatalf("CreateOperator failed: %v", err)
	}
	return op
}

func seedRule(t *testing.T, store *memory.Store, rule *domain.ComplianceRule) {
	t.Helper()
	now := time.Now()
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	rule.IsActive = true
	rule.CreatedAt = now
	rule.UpdatedAt = now
	if err := store.CreateRule(context.Background(), rule); err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}
}

func TestEvaluatePersistsChecks(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	ctx := context.Background()

	op := seedOperator(t, store, time.Now().AddDate(0, 0, -10), true)
	seedRule(t, store, &domain.ComplianceRule{
		RuleCode:            "CASA_REOC_EXPIRY",
		RuleName:            "ReOC certificate current",
		TargetRecordType:    domain.RecordTypeOperator,
		FieldPath:           "reoc_expiry_date",
		EvaluationType:      domain.EvalDateFuture,
		Severity:            domain.StatusRed,
		FailureMessage:      "ReOC certificate has expired",
		CheckFrequencyHours: 24,
	})

	summary, err := svc.Evaluate(ctx, domain.RecordTypeOperator, op.ID, "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if summary.OverallStatus != domain.StatusRed {
		t.Errorf("expected red, got %s", summary.OverallStatus)
	}
	if summary.FailedChecks != 1 {
		t.Errorf("expected 1 failed check, got %d", summary.FailedChecks)
	}

	checks, err := store.ListChecksForRecord(ctx, domain.RecordTypeOperator, op.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListChecksForRecord failed: %v", err)
	}
	if len(checks) != 1 {
		t.Fatalf("expected 1 persisted check, got %d", len(checks))
	}
	check := checks[0]
	if check.Status != domain.StatusRed || check.Passed {
		t.Errorf("persisted check should be a red failure, got status=%s passed=%v", check.Status, check.Passed)
	}
	if check.Message != "ReOC certificate has expired" {
		t.Errorf("unexpected check message %q", check.Message)
	}
	if check.NextCheckDue == nil {
		t.Fatal("expected next_check_due to be set")
	}
	wantDue := summary.EvaluatedAt.Add(24 * time.Hour)
	if !check.NextCheckDue.Equal(wantDue) {
		t.Errorf("expected next_check_due %v, got %v", wantDue, check.NextCheckDue)
	}
}

func TestEvaluateLoadsAircraftRelations(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	ctx := context.Background()
	now := time.Now()

	op := seedOperator(t, store, now.AddDate(1, 0, 0), false)
	a := &domain.Aircraft{
		ID:                     uuid.New().String(),
		OperatorID:             &op.ID,
		Registration:           "VH-UAV",
		WeightKg:               12,
		IsServiceable:          true,
		RegistrationExpiryDate: now.AddDate(1, 0, 0),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := store.CreateAircraft(ctx, a); err != nil {
		t.Fatalf("CreateAircraft failed: %v", err)
	}
	defect := &domain.Defect{
		ID:             uuid.New().String(),
		AircraftID:     a.ID,
		Description:    "motor mount crack",
		SeverityClass:  "major",
		DiscoveredDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.CreateDefect(ctx, defect); err != nil {
		t.Fatalf("CreateDefect failed: %v", err)
	}

	seedRule(t, store, &domain.ComplianceRule{
		RuleCode:             "CASA_AC_OPERATOR_ACTIVE",
		RuleName:             "Operator holds active status",
		TargetRecordType:     domain.RecordTypeAircraft,
		FieldPath:            "operator",
		EvaluationType:       domain.EvalNestedField,
		NestedEvaluationType: domain.EvalBooleanTrue,
		NestedFieldPath:      "is_active",
		Severity:             domain.StatusRed,
		CheckFrequencyHours:  24,
	})
	zero := 0.0
	seedRule(t, store, &domain.ComplianceRule{
		RuleCode:            "CASA_AC_NO_OPEN_DEFECTS",
		RuleName:            "No open defects",
		TargetRecordType:    domain.RecordTypeAircraft,
		FieldPath:           "open_defects",
		EvaluationType:      domain.EvalRelatedCount,
		Comparator:          "==",
		ThresholdValue:      &zero,
		Severity:            domain.StatusRed,
		CheckFrequencyHours: 24,
	})

	summary, err := svc.Evaluate(ctx, domain.RecordTypeAircraft, a.ID, "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if summary.TotalChecks != 2 {
		t.Fatalf("expected 2 checks, got %d", summary.TotalChecks)
	}
	if summary.FailedChecks != 2 {
		t.Errorf("expected both relation rules to fail, got %d failures", summary.FailedChecks)
	}
	if summary.OverallStatus != domain.StatusRed {
		t.Errorf("expected red, got %s", summary.OverallStatus)
	}
}

func TestEvaluateNoRulesIsGreen(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	ctx := context.Background()

	op := seedOperator(t, store, time.Now().AddDate(1, 0, 0), true)

	summary, err := svc.Evaluate(ctx, domain.RecordTypeOperator, op.ID, "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if summary.OverallStatus != domain.StatusGreen {
		t.Errorf("expected green with no rules, got %s", summary.OverallStatus)
	}
	if summary.TotalChecks != 0 {
		t.Errorf("expected 0 checks, got %d", summary.TotalChecks)
	}
}

// failingCheckStore rejects every audit write.
type failingCheckStore struct {
	*memory.Store
}

func (s *failingCheckStore) CreateCheck(ctx context.Context, check *domain.ComplianceCheck) error {
	return errors.New("check write rejected")
}

func TestEvaluateSummarySurvivesCheckWriteFailure(t *testing.T) {
	store := memory.New()
	failing := &failingCheckStore{Store: store}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := rules.NewCache(failing)
	engine := compliance.NewEngine(logger)
	svc := NewComplianceService(failing, cache, engine, nil, logger)
	ctx := context.Background()

	op := seedOperator(t, store, time.Now().AddDate(0, 0, -10), true)
	seedRule(t, store, &domain.ComplianceRule{
		RuleCode:            "CASA_REOC_EXPIRY",
		RuleName:            "ReOC certificate current",
		TargetRecordType:    domain.RecordTypeOperator,
		FieldPath:           "reoc_expiry_date",
		EvaluationType:      domain.EvalDateFuture,
		Severity:            domain.StatusRed,
		CheckFrequencyHours: 24,
	})

	// Audit persistence is best effort: the computed summary still comes back.
	summary, err := svc.Evaluate(ctx, domain.RecordTypeOperator, op.ID, "")
	if err != nil {
		t.Fatalf("Evaluate failed despite summary being computed: %v", err)
	}
	if summary.OverallStatus != domain.StatusRed {
		t.Errorf("expected red, got %s", summary.OverallStatus)
	}
	if summary.TotalChecks != 1 || summary.FailedChecks != 1 {
		t.Errorf("expected 1 total / 1 failed, got %d/%d", summary.TotalChecks, summary.FailedChecks)
	}

	checks, err := store.ListChecksForRecord(ctx, domain.RecordTypeOperator, op.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListChecksForRecord failed: %v", err)
	}
	if len(checks) != 0 {
		t.Errorf("expected no persisted checks after rejected writes, got %d", len(checks))
	}
}

func TestEvaluateCategoryFilter(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	ctx := context.Background()

	op := seedOperator(t, store, time.Now().AddDate(0, 0, -10), false)
	seedRule(t, store, &domain.ComplianceRule{
		RuleCode:            "CASA_REOC_EXPIRY",
		RuleName:            "ReOC certificate current",
		Category:            "certification",
		TargetRecordType:    domain.RecordTypeOperator,
		FieldPath:           "reoc_expiry_date",
		EvaluationType:      domain.EvalDateFuture,
		Severity:            domain.StatusRed,
		CheckFrequencyHours: 24,
	})
	seedRule(t, store, &domain.ComplianceRule{
		RuleCode:            "CASA_OP_ACTIVE",
		RuleName:            "Operator is active",
		Category:            "status",
		TargetRecordType:    domain.RecordTypeOperator,
		FieldPath:           "is_active",
		EvaluationType:      domain.EvalBooleanTrue,
		Severity:            domain.StatusYellow,
		CheckFrequencyHours: 24,
	})

	summary, err := svc.Evaluate(ctx, domain.RecordTypeOperator, op.ID, "status")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if summary.TotalChecks != 1 {
		t.Fatalf("expected only the status rule to run, got %d checks", summary.TotalChecks)
	}
	if summary.RuleResults[0].RuleCode != "CASA_OP_ACTIVE" {
		t.Errorf("unexpected rule %s", summary.RuleResults[0].RuleCode)
	}
	if summary.OverallStatus != domain.StatusYellow {
		t.Errorf("expected yellow without the red rule, got %s", summary.OverallStatus)
	}

	// No category runs everything.
	summary, err = svc.Evaluate(ctx, domain.RecordTypeOperator, op.ID, "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if summary.TotalChecks != 2 {
		t.Errorf("expected 2 checks without a filter, got %d", summary.TotalChecks)
	}
}

func TestEvaluateUnknownRecordType(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)

	if _, err := svc.Evaluate(context.Background(), "drone", "some-id", ""); err == nil {
		t.Fatal("expected error for unknown record type")
	}
}

func TestDashboardCounts(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	ctx := context.Background()

	green := seedOperator(t, store, time.Now().AddDate(1, 0, 0), true)
	red := seedOperator(t, store, time.Now().AddDate(0, 0, -5), true)

	seedRule(t, store, &domain.ComplianceRule{
		RuleCode:            "CASA_REOC_EXPIRY",
		RuleName:            "ReOC certificate current",
		TargetRecordType:    domain.RecordTypeOperator,
		FieldPath:           "reoc_expiry_date",
		EvaluationType:      domain.EvalDateFuture,
		Severity:            domain.StatusRed,
		CheckFrequencyHours: 24,
	})

	for _, op := range []*domain.Operator{green, red} {
		if _, err := svc.Evaluate(ctx, domain.RecordTypeOperator, op.ID, ""); err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
	}

	data, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if data.TotalChecks != 2 {
		t.Errorf("expected 2 latest checks, got %d", data.TotalChecks)
	}
	if data.GreenChecks != 1 || data.RedChecks != 1 {
		t.Errorf("expected 1 green and 1 red, got green=%d red=%d", data.GreenChecks, data.RedChecks)
	}
	if data.CriticalRules != 1 || data.TotalRules != 1 {
		t.Errorf("expected 1 critical rule, got critical=%d total=%d", data.CriticalRules, data.TotalRules)
	}
}

func TestRecheckOverdue(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	ctx := context.Background()

	op := seedOperator(t, store, time.Now().AddDate(0, 0, -1), true)
	seedRule(t, store, &domain.ComplianceRule{
		RuleCode:            "CASA_REOC_EXPIRY",
		RuleName:            "ReOC certificate current",
		TargetRecordType:    domain.RecordTypeOperator,
		FieldPath:           "reoc_expiry_date",
		EvaluationType:      domain.EvalDateFuture,
		Severity:            domain.StatusRed,
		CheckFrequencyHours: 24,
	})

	// Plant an old check whose next_check_due has passed.
	due := time.Now().Add(-time.Hour)
	err := store.CreateCheck(ctx, &domain.ComplianceCheck{
		ID:           uuid.New().String(),
		RuleCode:     "CASA_REOC_EXPIRY",
		RecordType:   domain.RecordTypeOperator,
		RecordID:     op.ID,
		Passed:       true,
		Status:       domain.StatusGreen,
		NextCheckDue: &due,
		CreatedAt:    time.Now().Add(-25 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateCheck failed: %v", err)
	}

	result, err := svc.RecheckOverdue(ctx)
	if err != nil {
		t.Fatalf("RecheckOverdue failed: %v", err)
	}
	if result.RecordsEvaluated != 1 {
		t.Fatalf("expected 1 record evaluated, got %d", result.RecordsEvaluated)
	}
	if result.RecordsFailed != 1 {
		t.Errorf("expected 1 record failed, got %d", result.RecordsFailed)
	}

	// The fresh check supersedes the overdue one, so a second sweep is empty.
	result, err = svc.RecheckOverdue(ctx)
	if err != nil {
		t.Fatalf("second RecheckOverdue failed: %v", err)
	}
	if result.RecordsEvaluated != 0 {
		t.Errorf("expected no overdue records after recheck, got %d", result.RecordsEvaluated)
	}
}
