package sql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New creates a new SQL store and runs pending migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, driver: s.driver}, nil
}

// Tx wraps a database transaction.
type Tx struct {
	tx     *sqlx.Tx
	driver string
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Close is a no-op for transactions (they should be committed or rolled back).
func (t *Tx) Close() error {
	return nil
}

// BeginTx is not supported within a transaction.
func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

// helper to get the correct database interface
type dbInterface interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ============================================
// API Keys
// ============================================

func createAPIKey(ctx context.Context, db dbInterface, key *domain.APIKey) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at, last_used_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedAt, key.LastUsedAt)
	return wrapUniqueError(err)
}

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	return createAPIKey(ctx, s.db, key)
}

func (t *Tx) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	return createAPIKey(ctx, t.tx, key)
}

func getAPIKeyByHash(ctx context.Context, db dbInterface, keyHash string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := db.GetContext(ctx, &key,
		`SELECT id, name, key_hash, key_prefix, created_at, last_used_at FROM api_keys WHERE key_hash = $1`, keyHash)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &key, err
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	return getAPIKeyByHash(ctx, s.db, keyHash)
}

func (t *Tx) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	return getAPIKeyByHash(ctx, t.tx, keyHash)
}

func listAPIKeys(ctx context.Context, db dbInterface) ([]*domain.APIKey, error) {
	var keys []*domain.APIKey
	err := db.SelectContext(ctx, &keys,
		`SELECT id, name, key_hash, key_prefix, created_at, last_used_at FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	return listAPIKeys(ctx, s.db)
}

func (t *Tx) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	return listAPIKeys(ctx, t.tx)
}

func deleteAPIKey(ctx context.Context, db dbInterface, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	return deleteAPIKey(ctx, s.db, id)
}

func (t *Tx) DeleteAPIKey(ctx context.Context, id string) error {
	return deleteAPIKey(ctx, t.tx, id)
}

func updateAPIKeyLastUsed(ctx context.Context, db dbInterface, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	return updateAPIKeyLastUsed(ctx, s.db, id)
}

func (t *Tx) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	return updateAPIKeyLastUsed(ctx, t.tx, id)
}

func countAPIKeys(ctx context.Context, db dbInterface) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM api_keys`)
	return count, err
}

func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	return countAPIKeys(ctx, s.db)
}

func (t *Tx) CountAPIKeys(ctx context.Context) (int, error) {
	return countAPIKeys(ctx, t.tx)
}

// ============================================
// Compliance Rules
// ============================================

const ruleColumns = `id, rule_code, rule_name, description, casa_reference, category,
	target_record_type, field_path, evaluation_type, comparator, threshold_value,
	trigger_value, pattern, trigger_days, nested_evaluation_type, nested_field_path,
	severity, failure_message, check_frequency_hours, is_active, created_at, updated_at`

func createRule(ctx context.Context, db dbInterface, rule *domain.ComplianceRule) error {
	_, err := sqlx.NamedExecContext(ctx, db,
		`INSERT INTO compliance_rules (`+ruleColumns+`)
		 VALUES (:id, :rule_code, :rule_name, :description, :casa_reference, :category,
			:target_record_type, :field_path, :evaluation_type, :comparator, :threshold_value,
			:trigger_value, :pattern, :trigger_days, :nested_evaluation_type, :nested_field_path,
			:severity, :failure_message, :check_frequency_hours, :is_active, :created_at, :updated_at)`,
		rule)
	return wrapUniqueError(err)
}

func (s *Store) CreateRule(ctx context.Context, rule *domain.ComplianceRule) error {
	return createRule(ctx, s.db, rule)
}

func (t *Tx) CreateRule(ctx context.Context, rule *domain.ComplianceRule) error {
	return createRule(ctx, t.tx, rule)
}

func getRule(ctx context.Context, db dbInterface, ruleCode string) (*domain.ComplianceRule, error) {
	var rule domain.ComplianceRule
	err := db.GetContext(ctx, &rule,
		`SELECT `+ruleColumns+` FROM compliance_rules WHERE rule_code = $1`, ruleCode)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &rule, err
}

func (s *Store) GetRule(ctx context.Context, ruleCode string) (*domain.ComplianceRule, error) {
	return getRule(ctx, s.db, ruleCode)
}

func (t *Tx) GetRule(ctx context.Context, ruleCode string) (*domain.ComplianceRule, error) {
	return getRule(ctx, t.tx, ruleCode)
}

func listRules(ctx context.Context, db dbInterface, filter domain.RuleFilter) ([]*domain.ComplianceRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM compliance_rules`
	var where []string
	var args []any
	if filter.TargetRecordType != "" {
		args = append(args, filter.TargetRecordType)
		where = append(where, fmt.Sprintf("target_record_type = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "is_active")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rule_code"

	var rules []*domain.ComplianceRule
	if err := db.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Store) ListRules(ctx context.Context, filter domain.RuleFilter) ([]*domain.ComplianceRule, error) {
	return listRules(ctx, s.db, filter)
}

func (t *Tx) ListRules(ctx context.Context, filter domain.RuleFilter) ([]*domain.ComplianceRule, error) {
	return listRules(ctx, t.tx, filter)
}

func updateRule(ctx context.Context, db dbInterface, rule *domain.ComplianceRule) error {
	result, err := sqlx.NamedExecContext(ctx, db,
		`UPDATE compliance_rules SET rule_name = :rule_name, description = :description,
			casa_reference = :casa_reference, category = :category,
			target_record_type = :target_record_type, field_path = :field_path,
			evaluation_type = :evaluation_type, comparator = :comparator,
			threshold_value = :threshold_value, trigger_value = :trigger_value,
			pattern = :pattern, trigger_days = :trigger_days,
			nested_evaluation_type = :nested_evaluation_type, nested_field_path = :nested_field_path,
			severity = :severity, failure_message = :failure_message,
			check_frequency_hours = :check_frequency_hours, is_active = :is_active,
			updated_at = :updated_at
		 WHERE rule_code = :rule_code`,
		rule)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateRule(ctx context.Context, rule *domain.ComplianceRule) error {
	return updateRule(ctx, s.db, rule)
}

func (t *Tx) UpdateRule(ctx context.Context, rule *domain.ComplianceRule) error {
	return updateRule(ctx, t.tx, rule)
}

func deleteRule(ctx context.Context, db dbInterface, ruleCode string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM compliance_rules WHERE rule_code = $1`, ruleCode)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, ruleCode string) error {
	return deleteRule(ctx, s.db, ruleCode)
}

func (t *Tx) DeleteRule(ctx context.Context, ruleCode string) error {
	return deleteRule(ctx, t.tx, ruleCode)
}

func countRulesBySeverity(ctx context.Context, db dbInterface) (map[domain.Status]int, error) {
	rows := []struct {
		Severity domain.Status `db:"severity"`
		Count    int           `db:"count"`
	}{}
	err := db.SelectContext(ctx, &rows,
		`SELECT severity, COUNT(*) AS count FROM compliance_rules WHERE is_active GROUP BY severity`)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.Status]int, len(rows))
	for _, r := range rows {
		counts[r.Severity] = r.Count
	}
	return counts, nil
}

func (s *Store) CountRulesBySeverity(ctx context.Context) (map[domain.Status]int, error) {
	return countRulesBySeverity(ctx, s.db)
}

func (t *Tx) CountRulesBySeverity(ctx context.Context) (map[domain.Status]int, error) {
	return countRulesBySeverity(ctx, t.tx)
}

// ============================================
// Compliance Checks
// ============================================

const checkColumns = `id, rule_code, record_type, record_id, passed, status,
	field_value, message, next_check_due, created_at`

// latestChecks selects the most recent check per (record, rule) pair.
const latestChecks = `
	SELECT c.id, c.rule_code, c.record_type, c.record_id, c.passed, c.status,
	       c.field_value, c.message, c.next_check_due, c.created_at
	FROM compliance_checks c
	JOIN (
		SELECT record_type, record_id, rule_code, MAX(created_at) AS max_created
		FROM compliance_checks
		GROUP BY record_type, record_id, rule_code
	) latest ON c.record_type = latest.record_type
	        AND c.record_id = latest.record_id
	        AND c.rule_code = latest.rule_code
	        AND c.created_at = latest.max_created`

func createCheck(ctx context.Context, db dbInterface, check *domain.ComplianceCheck) error {
	_, err := sqlx.NamedExecContext(ctx, db,
		`INSERT INTO compliance_checks (`+checkColumns+`)
		 VALUES (:id, :rule_code, :record_type, :record_id, :passed, :status,
			:field_value, :message, :next_check_due, :created_at)`,
		check)
	return err
}

func (s *Store) CreateCheck(ctx context.Context, check *domain.ComplianceCheck) error {
	return createCheck(ctx, s.db, check)
}

func (t *Tx) CreateCheck(ctx context.Context, check *domain.ComplianceCheck) error {
	return createCheck(ctx, t.tx, check)
}

func listChecksForRecord(ctx context.Context, db dbInterface, recordType, recordID string, limit, offset int) ([]*domain.ComplianceCheck, error) {
	if limit <= 0 {
		limit = 50
	}
	var checks []*domain.ComplianceCheck
	err := db.SelectContext(ctx, &checks,
		`SELECT `+checkColumns+` FROM compliance_checks
		 WHERE record_type = $1 AND record_id = $2
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		recordType, recordID, limit, offset)
	if err != nil {
		return nil, err
	}
	return checks, nil
}

func (s *Store) ListChecksForRecord(ctx context.Context, recordType, recordID string, limit, offset int) ([]*domain.ComplianceCheck, error) {
	return listChecksForRecord(ctx, s.db, recordType, recordID, limit, offset)
}

func (t *Tx) ListChecksForRecord(ctx context.Context, recordType, recordID string, limit, offset int) ([]*domain.ComplianceCheck, error) {
	return listChecksForRecord(ctx, t.tx, recordType, recordID, limit, offset)
}

func listLatestChecks(ctx context.Context, db dbInterface) ([]*domain.ComplianceCheck, error) {
	var checks []*domain.ComplianceCheck
	if err := db.SelectContext(ctx, &checks, latestChecks); err != nil {
		return nil, err
	}
	return checks, nil
}

func (s *Store) ListLatestChecks(ctx context.Context) ([]*domain.ComplianceCheck, error) {
	return listLatestChecks(ctx, s.db)
}

func (t *Tx) ListLatestChecks(ctx context.Context) ([]*domain.ComplianceCheck, error) {
	return listLatestChecks(ctx, t.tx)
}

func listOverdueRecords(ctx context.Context, db dbInterface, before time.Time) ([]domain.RecordRef, error) {
	var refs []domain.RecordRef
	err := db.SelectContext(ctx, &refs,
		`SELECT DISTINCT record_type, record_id FROM (`+latestChecks+`) cur
		 WHERE cur.next_check_due IS NOT NULL AND cur.next_check_due < $1`,
		before)
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (s *Store) ListOverdueRecords(ctx context.Context, before time.Time) ([]domain.RecordRef, error) {
	return listOverdueRecords(ctx, s.db, before)
}

func (t *Tx) ListOverdueRecords(ctx context.Context, before time.Time) ([]domain.RecordRef, error) {
	return listOverdueRecords(ctx, t.tx, before)
}

// ============================================
// Operators
// ============================================

const operatorColumns = `id, name, reoc_number, reoc_expiry_date, is_active, created_at, updated_at`

func createOperator(ctx context.Context, db dbInterface, op *domain.Operator) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO operators (`+operatorColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		op.ID, op.Name, op.ReocNumber, op.ReocExpiryDate, op.IsActive, op.CreatedAt, op.UpdatedAt)
	return wrapUniqueError(err)
}

func (s *Store) CreateOperator(ctx context.Context, op *domain.Operator) error {
	return createOperator(ctx, s.db, op)
}

func (t *Tx) CreateOperator(ctx context.Context, op *domain.Operator) error {
	return createOperator(ctx, t.tx, op)
}

func getOperator(ctx context.Context, db dbInterface, id string) (*domain.Operator, error) {
	var op domain.Operator
	err := db.GetContext(ctx, &op,
		`SELECT `+operatorColumns+` FROM operators WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &op, err
}

func (s *Store) GetOperator(ctx context.Context, id string) (*domain.Operator, error) {
	return getOperator(ctx, s.db, id)
}

func (t *Tx) GetOperator(ctx context.Context, id string) (*domain.Operator, error) {
	return getOperator(ctx, t.tx, id)
}

func listOperators(ctx context.Context, db dbInterface) ([]*domain.Operator, error) {
	var ops []*domain.Operator
	err := db.SelectContext(ctx, &ops,
		`SELECT `+operatorColumns+` FROM operators ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return ops, nil
}

func (s *Store) ListOperators(ctx context.Context) ([]*domain.Operator, error) {
	return listOperators(ctx, s.db)
}

func (t *Tx) ListOperators(ctx context.Context) ([]*domain.Operator, error) {
	return listOperators(ctx, t.tx)
}

func updateOperator(ctx context.Context, db dbInterface, op *domain.Operator) error {
	result, err := db.ExecContext(ctx,
		`UPDATE operators SET name = $1, reoc_number = $2, reoc_expiry_date = $3,
			is_active = $4, updated_at = $5 WHERE id = $6`,
		op.Name, op.ReocNumber, op.ReocExpiryDate, op.IsActive, op.UpdatedAt, op.ID)
	if err != nil {
		return wrapUniqueError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateOperator(ctx context.Context, op *domain.Operator) error {
	return updateOperator(ctx, s.db, op)
}

func (t *Tx) UpdateOperator(ctx context.Context, op *domain.Operator) error {
	return updateOperator(ctx, t.tx, op)
}

func deleteOperator(ctx context.Context, db dbInterface, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM operators WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteOperator(ctx context.Context, id string) error {
	return deleteOperator(ctx, s.db, id)
}

func (t *Tx) DeleteOperator(ctx context.Context, id string) error {
	return deleteOperator(ctx, t.tx, id)
}

// ============================================
// Aircraft
// ============================================

const aircraftColumns = `id, operator_id, registration, make, model, serial_number,
	weight_kg, is_serviceable, registration_expiry_date, insurance_expiry_date,
	created_at, updated_at`

func createAircraft(ctx context.Context, db dbInterface, a *domain.Aircraft) error {
	_, err := sqlx.NamedExecContext(ctx, db,
		`INSERT INTO aircraft (`+aircraftColumns+`)
		 VALUES (:id, :operator_id, :registration, :make, :model, :serial_number,
			:weight_kg, :is_serviceable, :registration_expiry_date, :insurance_expiry_date,
			:created_at, :updated_at)`,
		a)
	return wrapUniqueError(err)
}

func (s *Store) CreateAircraft(ctx context.Context, a *domain.Aircraft) error {
	return createAircraft(ctx, s.db, a)
}

func (t *Tx) CreateAircraft(ctx context.Context, a *domain.Aircraft) error {
	return createAircraft(ctx, t.tx, a)
}

func getAircraft(ctx context.Context, db dbInterface, id string) (*domain.Aircraft, error) {
	var a domain.Aircraft
	err := db.GetContext(ctx, &a,
		`SELECT `+aircraftColumns+` FROM aircraft WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &a, err
}

func (s *Store) GetAircraft(ctx context.Context, id string) (*domain.Aircraft, error) {
	return getAircraft(ctx, s.db, id)
}

func (t *Tx) GetAircraft(ctx context.Context, id string) (*domain.Aircraft, error) {
	return getAircraft(ctx, t.tx, id)
}

func listAircraft(ctx context.Context, db dbInterface) ([]*domain.Aircraft, error) {
	var aircraft []*domain.Aircraft
	err := db.SelectContext(ctx, &aircraft,
		`SELECT `+aircraftColumns+` FROM aircraft ORDER BY registration`)
	if err != nil {
		return nil, err
	}
	return aircraft, nil
}

func (s *Store) ListAircraft(ctx context.Context) ([]*domain.Aircraft, error) {
	return listAircraft(ctx, s.db)
}

func (t *Tx) ListAircraft(ctx context.Context) ([]*domain.Aircraft, error) {
	return listAircraft(ctx, t.tx)
}

func updateAircraft(ctx context.Context, db dbInterface, a *domain.Aircraft) error {
	result, err := sqlx.NamedExecContext(ctx, db,
		`UPDATE aircraft SET operator_id = :operator_id, registration = :registration,
			make = :make, model = :model, serial_number = :serial_number,
			weight_kg = :weight_kg, is_serviceable = :is_serviceable,
			registration_expiry_date = :registration_expiry_date,
			insurance_expiry_date = :insurance_expiry_date, updated_at = :updated_at
		 WHERE id = :id`,
		a)
	if err != nil {
		return wrapUniqueError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateAircraft(ctx context.Context, a *domain.Aircraft) error {
	return updateAircraft(ctx, s.db, a)
}

func (t *Tx) UpdateAircraft(ctx context.Context, a *domain.Aircraft) error {
	return updateAircraft(ctx, t.tx, a)
}

func deleteAircraft(ctx context.Context, db dbInterface, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM aircraft WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAircraft(ctx context.Context, id string) error {
	return deleteAircraft(ctx, s.db, id)
}

func (t *Tx) DeleteAircraft(ctx context.Context, id string) error {
	return deleteAircraft(ctx, t.tx, id)
}

// ============================================
// Pilots
// ============================================

const pilotColumns = `id, operator_id, name, arn_number, licence_expiry_date,
	medical_expiry_date, is_current, created_at, updated_at`

func createPilot(ctx context.Context, db dbInterface, p *domain.Pilot) error {
	_, err := sqlx.NamedExecContext(ctx, db,
		`INSERT INTO pilots (`+pilotColumns+`)
		 VALUES (:id, :operator_id, :name, :arn_number, :licence_expiry_date,
			:medical_expiry_date, :is_current, :created_at, :updated_at)`,
		p)
	return wrapUniqueError(err)
}

func (s *Store) CreatePilot(ctx context.Context, p *domain.Pilot) error {
	return createPilot(ctx, s.db, p)
}

func (t *Tx) CreatePilot(ctx context.Context, p *domain.Pilot) error {
	return createPilot(ctx, t.tx, p)
}

func getPilot(ctx context.Context, db dbInterface, id string) (*domain.Pilot, error) {
	var p domain.Pilot
	err := db.GetContext(ctx, &p,
		`SELECT `+pilotColumns+` FROM pilots WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &p, err
}

func (s *Store) GetPilot(ctx context.Context, id string) (*domain.Pilot, error) {
	return getPilot(ctx, s.db, id)
}

func (t *Tx) GetPilot(ctx context.Context, id string) (*domain.Pilot, error) {
	return getPilot(ctx, t.tx, id)
}

func listPilots(ctx context.Context, db dbInterface) ([]*domain.Pilot, error) {
	var pilots []*domain.Pilot
	err := db.SelectContext(ctx, &pilots,
		`SELECT `+pilotColumns+` FROM pilots ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pilots, nil
}

func (s *Store) ListPilots(ctx context.Context) ([]*domain.Pilot, error) {
	return listPilots(ctx, s.db)
}

func (t *Tx) ListPilots(ctx context.Context) ([]*domain.Pilot, error) {
	return listPilots(ctx, t.tx)
}

func updatePilot(ctx context.Context, db dbInterface, p *domain.Pilot) error {
	result, err := sqlx.NamedExecContext(ctx, db,
		`UPDATE pilots SET operator_id = :operator_id, name = :name,
			arn_number = :arn_number, licence_expiry_date = :licence_expiry_date,
			medical_expiry_date = :medical_expiry_date, is_current = :is_current,
			updated_at = :updated_at
		 WHERE id = :id`,
		p)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdatePilot(ctx context.Context, p *domain.Pilot) error {
	return updatePilot(ctx, s.db, p)
}

func (t *Tx) UpdatePilot(ctx context.Context, p *domain.Pilot) error {
	return updatePilot(ctx, t.tx, p)
}

func deletePilot(ctx context.Context, db dbInterface, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM pilots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePilot(ctx context.Context, id string) error {
	return deletePilot(ctx, s.db, id)
}

func (t *Tx) DeletePilot(ctx context.Context, id string) error {
	return deletePilot(ctx, t.tx, id)
}

// ============================================
// Defects
// ============================================

const defectColumns = `id, aircraft_id, description, severity_class, discovered_date,
	rectified_date, created_at, updated_at`

func createDefect(ctx context.Context, db dbInterface, d *domain.Defect) error {
	_, err := sqlx.NamedExecContext(ctx, db,
		`INSERT INTO defects (`+defectColumns+`)
		 VALUES (:id, :aircraft_id, :description, :severity_class, :discovered_date,
			:rectified_date, :created_at, :updated_at)`,
		d)
	return err
}

func (s *Store) CreateDefect(ctx context.Context, d *domain.Defect) error {
	return createDefect(ctx, s.db, d)
}

func (t *Tx) CreateDefect(ctx context.Context, d *domain.Defect) error {
	return createDefect(ctx, t.tx, d)
}

func getDefect(ctx context.Context, db dbInterface, id string) (*domain.Defect, error) {
	var d domain.Defect
	err := db.GetContext(ctx, &d,
		`SELECT `+defectColumns+` FROM defects WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &d, err
}

func (s *Store) GetDefect(ctx context.Context, id string) (*domain.Defect, error) {
	return getDefect(ctx, s.db, id)
}

func (t *Tx) GetDefect(ctx context.Context, id string) (*domain.Defect, error) {
	return getDefect(ctx, t.tx, id)
}

func listDefectsForAircraft(ctx context.Context, db dbInterface, aircraftID string) ([]*domain.Defect, error) {
	var defects []*domain.Defect
	err := db.SelectContext(ctx, &defects,
		`SELECT `+defectColumns+` FROM defects WHERE aircraft_id = $1 ORDER BY discovered_date DESC`,
		aircraftID)
	if err != nil {
		return nil, err
	}
	return defects, nil
}

func (s *Store) ListDefectsForAircraft(ctx context.Context, aircraftID string) ([]*domain.Defect, error) {
	return listDefectsForAircraft(ctx, s.db, aircraftID)
}

func (t *Tx) ListDefectsForAircraft(ctx context.Context, aircraftID string) ([]*domain.Defect, error) {
	return listDefectsForAircraft(ctx, t.tx, aircraftID)
}

func listOpenDefectsForAircraft(ctx context.Context, db dbInterface, aircraftID string) ([]*domain.Defect, error) {
	var defects []*domain.Defect
	err := db.SelectContext(ctx, &defects,
		`SELECT `+defectColumns+` FROM defects
		 WHERE aircraft_id = $1 AND rectified_date IS NULL
		 ORDER BY discovered_date DESC`,
		aircraftID)
	if err != nil {
		return nil, err
	}
	return defects, nil
}

func (s *Store) ListOpenDefectsForAircraft(ctx context.Context, aircraftID string) ([]*domain.Defect, error) {
	return listOpenDefectsForAircraft(ctx, s.db, aircraftID)
}

func (t *Tx) ListOpenDefectsForAircraft(ctx context.Context, aircraftID string) ([]*domain.Defect, error) {
	return listOpenDefectsForAircraft(ctx, t.tx, aircraftID)
}

func updateDefect(ctx context.Context, db dbInterface, d *domain.Defect) error {
	result, err := sqlx.NamedExecContext(ctx, db,
		`UPDATE defects SET description = :description, severity_class = :severity_class,
			discovered_date = :discovered_date, rectified_date = :rectified_date,
			updated_at = :updated_at
		 WHERE id = :id`,
		d)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateDefect(ctx context.Context, d *domain.Defect) error {
	return updateDefect(ctx, s.db, d)
}

func (t *Tx) UpdateDefect(ctx context.Context, d *domain.Defect) error {
	return updateDefect(ctx, t.tx, d)
}

func deleteDefect(ctx context.Context, db dbInterface, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM defects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDefect(ctx context.Context, id string) error {
	return deleteDefect(ctx, s.db, id)
}

func (t *Tx) DeleteDefect(ctx context.Context, id string) error {
	return deleteDefect(ctx, t.tx, id)
}
