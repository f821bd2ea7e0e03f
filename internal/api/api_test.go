package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flightline/casa-compliance/internal/compliance"
	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/rules"
	"github.com/flightline/casa-compliance/internal/service"
	"github.com/flightline/casa-compliance/internal/storage/memory"
)

const testBootstrapKey = "test-bootstrap-key"

// testServer wraps an httptest server with the in-memory store behind it.
type testServer struct {
	*httptest.Server
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithBootstrap(t, testBootstrapKey)
}

func newTestServerWithBootstrap(t *testing.T, bootstrapKey string) *testServer {
	t.Helper()
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := rules.NewCache(store)
	engine := compliance.NewEngine(logger)
	svc := service.NewComplianceService(store, cache, engine, nil, logger)

	router := NewRouter(store, cache, svc, bootstrapKey, nil)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{Server: server, store: store}
}

// doRequest performs an authenticated JSON request against the test server.
func (ts *testServer) doRequest(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("executing request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return resp, respBody
}

func decodeBody(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("unmarshaling response %s: %v", body, err)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.doRequest(t, http.MethodGet, "/api/v1/rules", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, body := ts.doRequest(t, http.MethodGet, "/api/v1/rules", "wrong-key", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong key, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), domain.ErrInvalidAPIKey.Error()) {
		t.Errorf("expected invalid-key message, got %s", body)
	}
}

func TestAuthNoKeysConfigured(t *testing.T) {
	ts := newTestServerWithBootstrap(t, "")

	// No stored keys and no bootstrap key means nothing can authenticate.
	resp, body := ts.doRequest(t, http.MethodGet, "/api/v1/rules", "any-key", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), domain.ErrNoAPIKeys.Error()) {
		t.Errorf("expected no-keys message, got %s", body)
	}
}

func TestHealthNoAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.doRequest(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("unexpected health body: %s", body)
	}
}

func TestBootstrapKeyLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// Bootstrap key works while no real keys exist.
	resp, body := ts.doRequest(t, http.MethodPost, "/api/v1/keys", testBootstrapKey,
		domain.CreateAPIKeyRequest{Name: "ops"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	var created domain.CreateAPIKeyResponse
	decodeBody(t, body, &created)
	if created.Key == "" {
		t.Fatal("expected the raw key in the creation response")
	}

	// The new key authenticates.
	resp, _ = ts.doRequest(t, http.MethodGet, "/api/v1/keys", created.Key, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with real key, got %d", resp.StatusCode)
	}

	// The bootstrap key stops working once a real key exists.
	resp, _ = ts.doRequest(t, http.MethodGet, "/api/v1/keys", testBootstrapKey, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected bootstrap key to be rejected, got %d", resp.StatusCode)
	}
}

func TestRuleCRUD(t *testing.T) {
	ts := newTestServer(t)

	create := domain.CreateRuleRequest{
		RuleCode:         "CASA_REOC_EXPIRY",
		RuleName:         "ReOC certificate current",
		TargetRecordType: domain.RecordTypeOperator,
		FieldPath:        "reoc_expiry_date",
		EvaluationType:   domain.EvalDateFuture,
		Severity:         domain.StatusRed,
		FailureMessage:   "ReOC certificate has expired",
	}
	resp, body := ts.doRequest(t, http.MethodPost, "/api/v1/rules", testBootstrapKey, create)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	var rule domain.ComplianceRule
	decodeBody(t, body, &rule)
	if rule.CheckFrequencyHours != 24 {
		t.Errorf("expected default check frequency 24, got %d", rule.CheckFrequencyHours)
	}
	if !rule.IsActive {
		t.Error("expected new rule to default to active")
	}

	// Duplicate code conflicts.
	resp, _ = ts.doRequest(t, http.MethodPost, "/api/v1/rules", testBootstrapKey, create)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate rule code, got %d", resp.StatusCode)
	}

	// Get by code.
	resp, body = ts.doRequest(t, http.MethodGet, "/api/v1/rules/CASA_REOC_EXPIRY", testBootstrapKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// Update severity.
	severity := domain.StatusYellow
	resp, body = ts.doRequest(t, http.MethodPut, "/api/v1/rules/CASA_REOC_EXPIRY", testBootstrapKey,
		domain.UpdateRuleRequest{Severity: &severity})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	decodeBody(t, body, &rule)
	if rule.Severity != domain.StatusYellow {
		t.Errorf("expected updated severity yellow, got %s", rule.Severity)
	}

	// Delete.
	resp, _ = ts.doRequest(t, http.MethodDelete, "/api/v1/rules/CASA_REOC_EXPIRY", testBootstrapKey, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	resp, _ = ts.doRequest(t, http.MethodGet, "/api/v1/rules/CASA_REOC_EXPIRY", testBootstrapKey, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestRuleValidationRejected(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.doRequest(t, http.MethodPost, "/api/v1/rules", testBootstrapKey,
		domain.CreateRuleRequest{
			RuleCode:         "bad code",
			RuleName:         "Broken",
			TargetRecordType: "spaceship",
			FieldPath:        "Bad.Path!",
			EvaluationType:   domain.EvaluationType("magic"),
			Severity:         domain.StatusGreen,
		})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	decodeBody(t, body, &payload)
	if len(payload.Errors) < 4 {
		t.Errorf("expected multiple validation errors, got %d", len(payload.Errors))
	}
}

func TestComplianceSummaryEndpoint(t *testing.T) {
	ts := newTestServer(t)

	// Seed a rule and an operator through the API.
	resp, body := ts.doRequest(t, http.MethodPost, "/api/v1/rules", testBootstrapKey,
		domain.CreateRuleRequest{
			RuleCode:         "CASA_REOC_EXPIRY",
			RuleName:         "ReOC certificate current",
			TargetRecordType: domain.RecordTypeOperator,
			FieldPath:        "reoc_expiry_date",
			EvaluationType:   domain.EvalDateFuture,
			Severity:         domain.StatusRed,
			FailureMessage:   "ReOC certificate has expired",
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating rule: %d: %s", resp.StatusCode, body)
	}

	resp, body = ts.doRequest(t, http.MethodPost, "/api/v1/operators", testBootstrapKey,
		domain.CreateOperatorRequest{
			Name:           "Outback Aerial Surveys",
			ReocNumber:     "ReOC.0042",
			ReocExpiryDate: time.Now().AddDate(0, 0, -30),
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating operator: %d: %s", resp.StatusCode, body)
	}
	var op domain.Operator
	decodeBody(t, body, &op)

	path := fmt.Sprintf("/api/v1/compliance/operator/%s/summary", op.ID)
	resp, body = ts.doRequest(t, http.MethodGet, path, testBootstrapKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var summary domain.Summary
	decodeBody(t, body, &summary)
	if summary.OverallStatus != domain.StatusRed {
		t.Errorf("expected red, got %s", summary.OverallStatus)
	}
	if summary.TotalChecks != 1 || summary.FailedChecks != 1 {
		t.Errorf("expected 1/1 checks, got %d/%d", summary.TotalChecks, summary.FailedChecks)
	}
	if summary.RuleResults[0].Message != "ReOC certificate has expired" {
		t.Errorf("unexpected failure message %q", summary.RuleResults[0].Message)
	}

	// Each summary call appends to the audit trail.
	checksPath := fmt.Sprintf("/api/v1/compliance/operator/%s/checks", op.ID)
	resp, body = ts.doRequest(t, http.MethodGet, checksPath, testBootstrapKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var checks []*domain.ComplianceCheck
	decodeBody(t, body, &checks)
	if len(checks) != 1 {
		t.Errorf("expected 1 audit check, got %d", len(checks))
	}
}

func TestSummaryUnknownRecordType(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.doRequest(t, http.MethodGet, "/api/v1/compliance/spaceship/x/summary", testBootstrapKey, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown record type, got %d", resp.StatusCode)
	}
}

func TestRuleConfigurationErrorIs422(t *testing.T) {
	ts := newTestServer(t)

	// A rule whose field path no operator exposes passes static validation
	// but fails at evaluation time.
	resp, body := ts.doRequest(t, http.MethodPost, "/api/v1/rules", testBootstrapKey,
		domain.CreateRuleRequest{
			RuleCode:         "CASA_BAD_FIELD",
			RuleName:         "Broken field path",
			TargetRecordType: domain.RecordTypeOperator,
			FieldPath:        "no_such_field",
			EvaluationType:   domain.EvalExists,
			Severity:         domain.StatusRed,
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating rule: %d: %s", resp.StatusCode, body)
	}

	resp, body = ts.doRequest(t, http.MethodPost, "/api/v1/operators", testBootstrapKey,
		domain.CreateOperatorRequest{
			Name:           "Test Operator",
			ReocNumber:     "ReOC.0001",
			ReocExpiryDate: time.Now().AddDate(1, 0, 0),
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating operator: %d: %s", resp.StatusCode, body)
	}
	var op domain.Operator
	decodeBody(t, body, &op)

	path := fmt.Sprintf("/api/v1/compliance/operator/%s/summary", op.ID)
	resp, body = ts.doRequest(t, http.MethodGet, path, testBootstrapKey, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}

	var apiErr domain.APIError
	decodeBody(t, body, &apiErr)
	if apiErr.Message != domain.ErrCodeRuleConfiguration {
		t.Errorf("expected %s, got %q", domain.ErrCodeRuleConfiguration, apiErr.Message)
	}
}

func TestRuleMutationInvalidatesCache(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.doRequest(t, http.MethodPost, "/api/v1/operators", testBootstrapKey,
		domain.CreateOperatorRequest{
			Name:           "Cache Test Operator",
			ReocNumber:     "ReOC.0099",
			ReocExpiryDate: time.Now().AddDate(0, 0, -1),
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating operator: %d: %s", resp.StatusCode, body)
	}
	var op domain.Operator
	decodeBody(t, body, &op)

	path := fmt.Sprintf("/api/v1/compliance/operator/%s/summary", op.ID)

	// No rules yet: summary is green and the empty rule set is now cached.
	resp, body = ts.doRequest(t, http.MethodGet, path, testBootstrapKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var summary domain.Summary
	decodeBody(t, body, &summary)
	if summary.TotalChecks != 0 {
		t.Fatalf("expected 0 checks before rule exists, got %d", summary.TotalChecks)
	}

	resp, body = ts.doRequest(t, http.MethodPost, "/api/v1/rules", testBootstrapKey,
		domain.CreateRuleRequest{
			RuleCode:         "CASA_REOC_EXPIRY",
			RuleName:         "ReOC certificate current",
			TargetRecordType: domain.RecordTypeOperator,
			FieldPath:        "reoc_expiry_date",
			EvaluationType:   domain.EvalDateFuture,
			Severity:         domain.StatusRed,
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating rule: %d: %s", resp.StatusCode, body)
	}

	// The new rule must apply immediately.
	resp, body = ts.doRequest(t, http.MethodGet, path, testBootstrapKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, body, &summary)
	if summary.TotalChecks != 1 || summary.OverallStatus != domain.StatusRed {
		t.Errorf("expected 1 red check after rule creation, got %d checks status %s",
			summary.TotalChecks, summary.OverallStatus)
	}
}

func TestDefectNestedRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.doRequest(t, http.MethodPost, "/api/v1/aircraft", testBootstrapKey,
		domain.CreateAircraftRequest{
			Registration:           "VH-XYZ",
			WeightKg:               9.9,
			RegistrationExpiryDate: time.Now().AddDate(1, 0, 0),
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating aircraft: %d: %s", resp.StatusCode, body)
	}
	var a domain.Aircraft
	decodeBody(t, body, &a)

	defectsPath := "/api/v1/aircraft/" + a.ID + "/defects"
	resp, body = ts.doRequest(t, http.MethodPost, defectsPath, testBootstrapKey,
		domain.CreateDefectRequest{
			Description:   "camera gimbal jitter",
			SeverityClass: "minor",
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating defect: %d: %s", resp.StatusCode, body)
	}
	var d domain.Defect
	decodeBody(t, body, &d)

	// Close the defect and confirm the open filter excludes it.
	now := time.Now()
	resp, body = ts.doRequest(t, http.MethodPut, "/api/v1/defects/"+d.ID, testBootstrapKey,
		domain.UpdateDefectRequest{RectifiedDate: &now})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("updating defect: %d: %s", resp.StatusCode, body)
	}

	resp, body = ts.doRequest(t, http.MethodGet, defectsPath+"?open=true", testBootstrapKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("listing open defects: %d", resp.StatusCode)
	}
	var open []*domain.Defect
	decodeBody(t, body, &open)
	if len(open) != 0 {
		t.Errorf("expected no open defects, got %d", len(open))
	}

	resp, body = ts.doRequest(t, http.MethodGet, defectsPath, testBootstrapKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("listing defects: %d", resp.StatusCode)
	}
	var all []*domain.Defect
	decodeBody(t, body, &all)
	if len(all) != 1 {
		t.Errorf("expected 1 defect, got %d", len(all))
	}
}

func TestDashboardAndRecheckEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.doRequest(t, http.MethodPost, "/api/v1/rules", testBootstrapKey,
		domain.CreateRuleRequest{
			RuleCode:         "CASA_REOC_EXPIRY",
			RuleName:         "ReOC certificate current",
			TargetRecordType: domain.RecordTypeOperator,
			FieldPath:        "reoc_expiry_date",
			EvaluationType:   domain.EvalDateFuture,
			Severity:         domain.StatusRed,
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating rule: %d: %s", resp.StatusCode, body)
	}

	resp, body = ts.doRequest(t, http.MethodPost, "/api/v1/operators", testBootstrapKey,
		domain.CreateOperatorRequest{
			Name:           "Dashboard Operator",
			ReocNumber:     "ReOC.0100",
			ReocExpiryDate: time.Now().AddDate(0, 0, -1),
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating operator: %d: %s", resp.StatusCode, body)
	}
	var op domain.Operator
	decodeBody(t, body, &op)

	path := fmt.Sprintf("/api/v1/compliance/operator/%s/summary", op.ID)
	if resp, _ = ts.doRequest(t, http.MethodGet, path, testBootstrapKey, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("evaluating operator: %d", resp.StatusCode)
	}

	resp, body = ts.doRequest(t, http.MethodGet, "/api/v1/compliance/dashboard", testBootstrapKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: %d: %s", resp.StatusCode, body)
	}
	var dash domain.DashboardData
	decodeBody(t, body, &dash)
	if dash.TotalChecks != 1 || dash.RedChecks != 1 {
		t.Errorf("expected 1 red check on dashboard, got total=%d red=%d", dash.TotalChecks, dash.RedChecks)
	}
	if dash.CriticalRules != 1 {
		t.Errorf("expected 1 critical rule, got %d", dash.CriticalRules)
	}

	resp, body = ts.doRequest(t, http.MethodPost, "/api/v1/compliance/recheck", testBootstrapKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recheck: %d: %s", resp.StatusCode, body)
	}
	var result domain.RecheckResult
	decodeBody(t, body, &result)
	// The check just written is not yet due.
	if result.RecordsEvaluated != 0 {
		t.Errorf("expected no overdue records, got %d", result.RecordsEvaluated)
	}
}
