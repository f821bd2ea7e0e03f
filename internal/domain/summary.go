package domain

import "time"

// RuleResult is the verdict of one rule against one record.
type RuleResult struct {
	RuleCode   string `json:"ruleCode"`
	RuleName   string `json:"ruleName"`
	Passed     bool   `json:"passed"`
	Status     Status `json:"status"`
	FieldValue string `json:"fieldValue,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Summary is the record-level result of running all applicable rules.
// OverallStatus is the worst individual status; an empty rule set yields
// green with zero checks.
type Summary struct {
	RecordType    string       `json:"recordType"`
	RecordID      string       `json:"recordId"`
	OverallStatus Status       `json:"overallStatus"`
	TotalChecks   int          `json:"totalChecks"`
	FailedChecks  int          `json:"failedChecks"`
	RuleResults   []RuleResult `json:"ruleResults"`
	EvaluatedAt   time.Time    `json:"evaluatedAt"`
}

// RecheckResult reports one overdue re-evaluation sweep.
type RecheckResult struct {
	RecordsEvaluated int       `json:"recordsEvaluated"`
	ChecksRun        int       `json:"checksRun"`
	RecordsFailed    int       `json:"recordsFailed"`
	StartedAt        time.Time `json:"startedAt"`
}
