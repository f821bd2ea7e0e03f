package storage

import (
	"context"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
)

// Storage defines the interface for the storage layer.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// API Keys
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
	CountAPIKeys(ctx context.Context) (int, error)

	// Compliance Rules
	CreateRule(ctx context.Context, rule *domain.ComplianceRule) error
	GetRule(ctx context.Context, ruleCode string) (*domain.ComplianceRule, error)
	ListRules(ctx context.Context, filter domain.RuleFilter) ([]*domain.ComplianceRule, error)
	UpdateRule(ctx context.Context, rule *domain.ComplianceRule) error
	DeleteRule(ctx context.Context, ruleCode string) error
	CountRulesBySeverity(ctx context.Context) (map[domain.Status]int, error)

	// Compliance Checks (append-only audit trail)
	CreateCheck(ctx context.Context, check *domain.ComplianceCheck) error
	ListChecksForRecord(ctx context.Context, recordType, recordID string, limit, offset int) ([]*domain.ComplianceCheck, error)
	// ListLatestChecks returns the most recent check per (record, rule) pair.
	ListLatestChecks(ctx context.Context) ([]*domain.ComplianceCheck, error)
	// ListOverdueRecords returns the records whose most recent check for any
	// rule has a next_check_due before the given time.
	ListOverdueRecords(ctx context.Context, before time.Time) ([]domain.RecordRef, error)

	// Operators
	CreateOperator(ctx context.Context, op *domain.Operator) error
	GetOperator(ctx context.Context, id string) (*domain.Operator, error)
	ListOperators(ctx context.Context) ([]*domain.Operator, error)
	UpdateOperator(ctx context.Context, op *domain.Operator) error
	DeleteOperator(ctx context.Context, id string) error

	// Aircraft
	CreateAircraft(ctx context.Context, a *domain.Aircraft) error
	GetAircraft(ctx context.Context, id string) (*domain.Aircraft, error)
	ListAircraft(ctx context.Context) ([]*domain.Aircraft, error)
	UpdateAircraft(ctx context.Context, a *domain.Aircraft) error
	DeleteAircraft(ctx context.Context, id string) error

	// Pilots
	CreatePilot(ctx context.Context, p *domain.Pilot) error
	GetPilot(ctx context.Context, id string) (*domain.Pilot, error)
	ListPilots(ctx context.Context) ([]*domain.Pilot, error)
	UpdatePilot(ctx context.Context, p *domain.Pilot) error
	DeletePilot(ctx context.Context, id string) error

	// Defects
	CreateDefect(ctx context.Context, d *domain.Defect) error
	GetDefect(ctx context.Context, id string) (*domain.Defect, error)
	ListDefectsForAircraft(ctx context.Context, aircraftID string) ([]*domain.Defect, error)
	ListOpenDefectsForAircraft(ctx context.Context, aircraftID string) ([]*domain.Defect, error)
	UpdateDefect(ctx context.Context, d *domain.Defect) error
	DeleteDefect(ctx context.Context, id string) error

	// Transaction support
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Storage
	Commit() error
	Rollback() error
}
