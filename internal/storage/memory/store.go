package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/storage"
)

// Store is an in-memory implementation of storage.Storage, used in tests.
type Store struct {
	mu sync.RWMutex

	apiKeys   map[string]*domain.APIKey
	rules     map[string]*domain.ComplianceRule // keyed by rule_code
	checks    []*domain.ComplianceCheck
	operators map[string]*domain.Operator
	aircraft  map[string]*domain.Aircraft
	pilots    map[string]*domain.Pilot
	defects   map[string]*domain.Defect
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		apiKeys:   make(map[string]*domain.APIKey),
		rules:     make(map[string]*domain.ComplianceRule),
		operators: make(map[string]*domain.Operator),
		aircraft:  make(map[string]*domain.Aircraft),
		pilots:    make(map[string]*domain.Pilot),
		defects:   make(map[string]*domain.Defect),
	}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// BeginTx returns a transaction that operates directly on the store.
// The in-memory store does not support rollback.
func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return &Tx{store: s}, nil
}

// Tx is a pass-through transaction for the in-memory store.
type Tx struct {
	store *Store
}

func (t *Tx) Commit() error   { return nil }
func (t *Tx) Rollback() error { return nil }
func (t *Tx) Close() error    { return nil }

func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return t.store.BeginTx(ctx)
}

// ============================================
// API Keys
// ============================================

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.apiKeys {
		if existing.KeyHash == key.KeyHash {
			return domain.ErrAlreadyExists
		}
	}
	cp := *key
	s.apiKeys[key.ID] = &cp
	return nil
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.apiKeys {
		if key.KeyHash == keyHash {
			cp := *key
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]*domain.APIKey, 0, len(s.apiKeys))
	for _, key := range s.apiKeys {
		cp := *key
		keys = append(keys, &cp)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apiKeys[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.apiKeys, id)
	return nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.apiKeys[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	key.LastUsedAt = &now
	return nil
}

func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apiKeys), nil
}

// ============================================
// Compliance Rules
// ============================================

func (s *Store) CreateRule(ctx context.Context, rule *domain.ComplianceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.RuleCode]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *rule
	s.rules[rule.RuleCode] = &cp
	return nil
}

func (s *Store) GetRule(ctx context.Context, ruleCode string) (*domain.ComplianceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[ruleCode]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rule
	return &cp, nil
}

func (s *Store) ListRules(ctx context.Context, filter domain.RuleFilter) ([]*domain.ComplianceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rules []*domain.ComplianceRule
	for _, rule := range s.rules {
		if filter.TargetRecordType != "" && rule.TargetRecordType != filter.TargetRecordType {
			continue
		}
		if filter.Category != "" && rule.Category != filter.Category {
			continue
		}
		if filter.ActiveOnly && !rule.IsActive {
			continue
		}
		cp := *rule
		rules = append(rules, &cp)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].RuleCode < rules[j].RuleCode
	})
	return rules, nil
}

func (s *Store) UpdateRule(ctx context.Context, rule *domain.ComplianceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.RuleCode]; !ok {
		return domain.ErrNotFound
	}
	cp := *rule
	s.rules[rule.RuleCode] = &cp
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, ruleCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[ruleCode]; !ok {
		return domain.ErrNotFound
	}
	delete(s.rules, ruleCode)
	return nil
}

func (s *Store) CountRulesBySeverity(ctx context.Context) (map[domain.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.Status]int)
	for _, rule := range s.rules {
		if rule.IsActive {
			counts[rule.Severity]++
		}
	}
	return counts, nil
}

// ============================================
// Compliance Checks
// ============================================

func (s *Store) CreateCheck(ctx context.Context, check *domain.ComplianceCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *check
	s.checks = append(s.checks, &cp)
	return nil
}

func (s *Store) ListChecksForRecord(ctx context.Context, recordType, recordID string, limit, offset int) ([]*domain.ComplianceCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	var checks []*domain.ComplianceCheck
	for _, check := range s.checks {
		if check.RecordType == recordType && check.RecordID == recordID {
			cp := *check
			checks = append(checks, &cp)
		}
	}
	sort.Slice(checks, func(i, j int) bool {
		return checks[i].CreatedAt.After(checks[j].CreatedAt)
	})
	if offset >= len(checks) {
		return nil, nil
	}
	checks = checks[offset:]
	if len(checks) > limit {
		checks = checks[:limit]
	}
	return checks, nil
}

func (s *Store) ListLatestChecks(ctx context.Context) ([]*domain.ComplianceCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestChecksLocked(), nil
}

type checkKey struct {
	recordType string
	recordID   string
	ruleCode   string
}

// latestChecksLocked returns a copy of the most recent check per
// (record, rule) pair. Callers must hold at least a read lock.
func (s *Store) latestChecksLocked() []*domain.ComplianceCheck {
	latest := make(map[checkKey]*domain.ComplianceCheck)
	for _, check := range s.checks {
		key := checkKey{check.RecordType, check.RecordID, check.RuleCode}
		if cur, ok := latest[key]; !ok || check.CreatedAt.After(cur.CreatedAt) {
			latest[key] = check
		}
	}
	checks := make([]*domain.ComplianceCheck, 0, len(latest))
	for _, check := range latest {
		cp := *check
		checks = append(checks, &cp)
	}
	sort.Slice(checks, func(i, j int) bool {
		return checks[i].CreatedAt.After(checks[j].CreatedAt)
	})
	return checks
}

func (s *Store) ListOverdueRecords(ctx context.Context, before time.Time) ([]domain.RecordRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.RecordRef]bool)
	var refs []domain.RecordRef
	for _, check := range s.latestChecksLocked() {
		if check.NextCheckDue == nil || !check.NextCheckDue.Before(before) {
			continue
		}
		ref := domain.RecordRef{RecordType: check.RecordType, RecordID: check.RecordID}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// ============================================
// Operators
// ============================================

func (s *Store) CreateOperator(ctx context.Context, op *domain.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.operators {
		if existing.ReocNumber == op.ReocNumber {
			return domain.ErrAlreadyExists
		}
	}
	cp := *op
	s.operators[op.ID] = &cp
	return nil
}

func (s *Store) GetOperator(ctx context.Context, id string) (*domain.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.operators[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *op
	return &cp, nil
}

func (s *Store) ListOperators(ctx context.Context) ([]*domain.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ops := make([]*domain.Operator, 0, len(s.operators))
	for _, op := range s.operators {
		cp := *op
		ops = append(ops, &cp)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops, nil
}

func (s *Store) UpdateOperator(ctx context.Context, op *domain.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.operators[op.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *op
	s.operators[op.ID] = &cp
	return nil
}

func (s *Store) DeleteOperator(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.operators[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.operators, id)
	for _, a := range s.aircraft {
		if a.OperatorID != nil && *a.OperatorID == id {
			a.OperatorID = nil
		}
	}
	for _, p := range s.pilots {
		if p.OperatorID != nil && *p.OperatorID == id {
			p.OperatorID = nil
		}
	}
	return nil
}

// ============================================
// Aircraft
// ============================================

func (s *Store) CreateAircraft(ctx context.Context, a *domain.Aircraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.aircraft {
		if existing.Registration == a.Registration {
			return domain.ErrAlreadyExists
		}
	}
	cp := *a
	s.aircraft[a.ID] = &cp
	return nil
}

func (s *Store) GetAircraft(ctx context.Context, id string) (*domain.Aircraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.aircraft[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) ListAircraft(ctx context.Context) ([]*domain.Aircraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	aircraft := make([]*domain.Aircraft, 0, len(s.aircraft))
	for _, a := range s.aircraft {
		cp := *a
		aircraft = append(aircraft, &cp)
	}
	sort.Slice(aircraft, func(i, j int) bool {
		return aircraft[i].Registration < aircraft[j].Registration
	})
	return aircraft, nil
}

func (s *Store) UpdateAircraft(ctx context.Context, a *domain.Aircraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.aircraft[a.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, existing := range s.aircraft {
		if id != a.ID && existing.Registration == a.Registration {
			return domain.ErrAlreadyExists
		}
	}
	cp := *a
	s.aircraft[a.ID] = &cp
	return nil
}

func (s *Store) DeleteAircraft(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.aircraft[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.aircraft, id)
	for defectID, d := range s.defects {
		if d.AircraftID == id {
			delete(s.defects, defectID)
		}
	}
	return nil
}

// ============================================
// Pilots
// ============================================

func (s *Store) CreatePilot(ctx context.Context, p *domain.Pilot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.pilots[p.ID] = &cp
	return nil
}

func (s *Store) GetPilot(ctx context.Context, id string) (*domain.Pilot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pilots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListPilots(ctx context.Context) ([]*domain.Pilot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pilots := make([]*domain.Pilot, 0, len(s.pilots))
	for _, p := range s.pilots {
		cp := *p
		pilots = append(pilots, &cp)
	}
	sort.Slice(pilots, func(i, j int) bool { return pilots[i].Name < pilots[j].Name })
	return pilots, nil
}

func (s *Store) UpdatePilot(ctx context.Context, p *domain.Pilot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pilots[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	s.pilots[p.ID] = &cp
	return nil
}

func (s *Store) DeletePilot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pilots[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.pilots, id)
	return nil
}

// ============================================
// Defects
// ============================================

func (s *Store) CreateDefect(ctx context.Context, d *domain.Defect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.defects[d.ID] = &cp
	return nil
}

func (s *Store) GetDefect(ctx context.Context, id string) (*domain.Defect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.defects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Store) ListDefectsForAircraft(ctx context.Context, aircraftID string) ([]*domain.Defect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defectsForAircraftLocked(aircraftID, false), nil
}

func (s *Store) ListOpenDefectsForAircraft(ctx context.Context, aircraftID string) ([]*domain.Defect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defectsForAircraftLocked(aircraftID, true), nil
}

func (s *Store) defectsForAircraftLocked(aircraftID string, openOnly bool) []*domain.Defect {
	var defects []*domain.Defect
	for _, d := range s.defects {
		if d.AircraftID != aircraftID {
			continue
		}
		if openOnly && d.RectifiedDate != nil {
			continue
		}
		cp := *d
		defects = append(defects, &cp)
	}
	sort.Slice(defects, func(i, j int) bool {
		return defects[i].DiscoveredDate.After(defects[j].DiscoveredDate)
	})
	return defects
}

func (s *Store) UpdateDefect(ctx context.Context, d *domain.Defect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defects[d.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *d
	s.defects[d.ID] = &cp
	return nil
}

func (s *Store) DeleteDefect(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.defects, id)
	return nil
}

// ============================================
// Transaction method forwarding
// ============================================

func (t *Tx) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	return t.store.CreateAPIKey(ctx, key)
}

func (t *Tx) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	return t.store.GetAPIKeyByHash(ctx, keyHash)
}

func (t *Tx) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	return t.store.ListAPIKeys(ctx)
}

func (t *Tx) DeleteAPIKey(ctx context.Context, id string) error {
	return t.store.DeleteAPIKey(ctx, id)
}

func (t *Tx) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	return t.store.UpdateAPIKeyLastUsed(ctx, id)
}

func (t *Tx) CountAPIKeys(ctx context.Context) (int, error) {
	return t.store.CountAPIKeys(ctx)
}

func (t *Tx) CreateRule(ctx context.Context, rule *domain.ComplianceRule) error {
	return t.store.CreateRule(ctx, rule)
}

func (t *Tx) GetRule(ctx context.Context, ruleCode string) (*domain.ComplianceRule, error) {
	return t.store.GetRule(ctx, ruleCode)
}

func (t *Tx) ListRules(ctx context.Context, filter domain.RuleFilter) ([]*domain.ComplianceRule, error) {
	return t.store.ListRules(ctx, filter)
}

func (t *Tx) UpdateRule(ctx context.Context, rule *domain.ComplianceRule) error {
	return t.store.UpdateRule(ctx, rule)
}

func (t *Tx) DeleteRule(ctx context.Context, ruleCode string) error {
	return t.store.DeleteRule(ctx, ruleCode)
}

func (t *Tx) CountRulesBySeverity(ctx context.Context) (map[domain.Status]int, error) {
	return t.store.CountRulesBySeverity(ctx)
}

func (t *Tx) CreateCheck(ctx context.Context, check *domain.ComplianceCheck) error {
	return t.store.CreateCheck(ctx, check)
}

func (t *Tx) ListChecksForRecord(ctx context.Context, recordType, recordID string, limit, offset int) ([]*domain.ComplianceCheck, error) {
	return t.store.ListChecksForRecord(ctx, recordType, recordID, limit, offset)
}

func (t *Tx) ListLatestChecks(ctx context.Context) ([]*domain.ComplianceCheck, error) {
	return t.store.ListLatestChecks(ctx)
}

func (t *Tx) ListOverdueRecords(ctx context.Context, before time.Time) ([]domain.RecordRef, error) {
	return t.store.ListOverdueRecords(ctx, before)
}

func (t *Tx) CreateOperator(ctx context.Context, op *domain.Operator) error {
	return t.store.CreateOperator(ctx, op)
}

func (t *Tx) GetOperator(ctx context.Context, id string) (*domain.Operator, error) {
	return t.store.GetOperator(ctx, id)
}

func (t *Tx) ListOperators(ctx context.Context) ([]*domain.Operator, error) {
	return t.store.ListOperators(ctx)
}

func (t *Tx) UpdateOperator(ctx context.Context, op *domain.Operator) error {
	return t.store.UpdateOperator(ctx, op)
}

func (t *Tx) DeleteOperator(ctx context.Context, id string) error {
	return t.store.DeleteOperator(ctx, id)
}

func (t *Tx) CreateAircraft(ctx context.Context, a *domain.Aircraft) error {
	return t.store.CreateAircraft(ctx, a)
}

func (t *Tx) GetAircraft(ctx context.Context, id string) (*domain.Aircraft, error) {
	return t.store.GetAircraft(ctx, id)
}

func (t *Tx) ListAircraft(ctx context.Context) ([]*domain.Aircraft, error) {
	return t.store.ListAircraft(ctx)
}

func (t *Tx) UpdateAircraft(ctx context.Context, a *domain.Aircraft) error {
	return t.store.UpdateAircraft(ctx, a)
}

func (t *Tx) DeleteAircraft(ctx context.Context, id string) error {
	return t.store.DeleteAircraft(ctx, id)
}

func (t *Tx) CreatePilot(ctx context.Context, p *domain.Pilot) error {
	return t.store.CreatePilot(ctx, p)
}

func (t *Tx) GetPilot(ctx context.Context, id string) (*domain.Pilot, error) {
	return t.store.GetPilot(ctx, id)
}

func (t *Tx) ListPilots(ctx context.Context) ([]*domain.Pilot, error) {
	return t.store.ListPilots(ctx)
}

func (t *Tx) UpdatePilot(ctx context.Context, p *domain.Pilot) error {
	return t.store.UpdatePilot(ctx, p)
}

func (t *Tx) DeletePilot(ctx context.Context, id string) error {
	return t.store.DeletePilot(ctx, id)
}

func (t *Tx) CreateDefect(ctx context.Context, d *domain.Defect) error {
	return t.store.CreateDefect(ctx, d)
}

func (t *Tx) GetDefect(ctx context.Context, id string) (*domain.Defect, error) {
	return t.store.GetDefect(ctx, id)
}

func (t *Tx) ListDefectsForAircraft(ctx context.Context, aircraftID string) ([]*domain.Defect, error) {
	return t.store.ListDefectsForAircraft(ctx, aircraftID)
}

func (t *Tx) ListOpenDefectsForAircraft(ctx context.Context, aircraftID string) ([]*domain.Defect, error) {
	return t.store.ListOpenDefectsForAircraft(ctx, aircraftID)
}

func (t *Tx) UpdateDefect(ctx context.Context, d *domain.Defect) error {
	return t.store.UpdateDefect(ctx, d)
}

func (t *Tx) DeleteDefect(ctx context.Context, id string) error {
	return t.store.DeleteDefect(ctx, id)
}
