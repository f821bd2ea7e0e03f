package domain

import "time"

// ComplianceCheck is an immutable audit record of one rule evaluation
// against one target record. Checks are appended on every evaluation and
// never updated in place; the history is the audit trail.
type ComplianceCheck struct {
	ID           string     `json:"id" db:"id"`
	RuleCode     string     `json:"ruleCode" db:"rule_code"`
	RecordType   string     `json:"recordType" db:"record_type"`
	RecordID     string     `json:"recordId" db:"record_id"`
	Passed       bool       `json:"passed" db:"passed"`
	Status       Status     `json:"status" db:"status"`
	FieldValue   string     `json:"fieldValue,omitempty" db:"field_value"`
	Message      string     `json:"message,omitempty" db:"message"`
	NextCheckDue *time.Time `json:"nextCheckDue,omitempty" db:"next_check_due"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// DashboardData summarises compliance state across the system, computed
// over the latest check per (record, rule) pair.
type DashboardData struct {
	TotalChecks   int       `json:"totalChecks"`
	GreenChecks   int       `json:"greenChecks"`
	YellowChecks  int       `json:"yellowChecks"`
	RedChecks     int       `json:"redChecks"`
	OverdueChecks int       `json:"overdueChecks"`
	TotalRules    int       `json:"totalRules"`
	CriticalRules int       `json:"criticalRules"`
	WarningRules  int       `json:"warningRules"`
	GeneratedAt   time.Time `json:"generatedAt"`
}
