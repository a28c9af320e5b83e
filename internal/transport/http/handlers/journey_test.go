package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"unifiedpro/internal/app/server"
	"unifiedpro/internal/client"
	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/domain/salary"
	"unifiedpro/internal/domain/slip"
	"unifiedpro/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func journeyConfig(t *testing.T) config.Config {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		Environment:        "test",
		LogLevel:           "warn",
		MigrationsDir:      "../../../../migrations",
		RunMigrations:      true,
		RunSeed:            true,
		SeedTenantName:     "Journey Tenant",
		SeedCurrency:       "USD",
		SeedAdminEmail:     "hr@journey.local",
		SeedAdminPassword:  "ChangeMe123!",
		SeedCatalog:        true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		CatalogCacheTTL:    time.Minute,
		JobQueueSize:       8,
		ShutdownTimeout:    time.Second,
	}
}

func TestSalaryStructureJourney(t *testing.T) {
	cfg := journeyConfig(t)
	ctx := context.Background()

	app, err := server.New(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	api := client.New(client.Config{BaseURL: ts.URL, Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword}, nil)
	if _, err := api.Login(ctx); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	token := api.Token()

	profileID := createBasicProfile(t, ts.Client(), ts.URL, token)

	snapshot, err := api.Catalog(ctx, "")
	if err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	if _, ok := snapshot.Profile(profileID); !ok {
		t.Fatalf("expected profile %s in catalog version %d", profileID, snapshot.Version)
	}
	basic := componentNamed(t, snapshot, "Basic Salary")
	housing := componentNamed(t, snapshot, "House Rent Allowance")

	w := salary.NewWizard(snapshot, api)
	mustDo(t, w.SelectEmployee(profileID))
	mustDo(t, w.Next())
	mustDo(t, w.SetAmount(basic.ID, "30000"))
	mustDo(t, w.SelectComponent(housing.ID))
	mustDo(t, w.SetAmount(housing.ID, "10000"))
	mustDo(t, w.SelectPayGrade(snapshot.PayGrades[0].ID))
	mustDo(t, w.SelectPayFrequency(snapshot.PayFrequencies[0].ID))
	if _, err := w.ToggleDeduction(snapshot.Deductions[0].ID); err != nil {
		t.Fatalf("toggle deduction: %v", err)
	}
	mustDo(t, w.Next())

	created, err := w.Confirm(ctx)
	if err != nil {
		t.Fatalf("create structure failed: %v", err)
	}
	if created.Totals.Gross != 40000 {
		t.Fatalf("expected gross 40000, got %v", created.Totals.Gross)
	}
	if created.Message != salary.MessageCreated {
		t.Fatalf("expected %q, got %q", salary.MessageCreated, created.Message)
	}

	again := salary.NewWizard(snapshot, api)
	mustDo(t, again.SelectEmployee(profileID))
	mustDo(t, again.Next())
	mustDo(t, again.SelectPayGrade(snapshot.PayGrades[0].ID))
	mustDo(t, again.SelectPayFrequency(snapshot.PayFrequencies[0].ID))
	mustDo(t, again.Next())
	if _, err := again.Confirm(ctx); !client.IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected conflict on second create, got %v", err)
	}

	current, err := api.Catalog(ctx, profileID)
	if err != nil {
		t.Fatalf("catalog with current amounts failed: %v", err)
	}
	if c, _ := current.Component(basic.ID); c.Current.Value == nil || *c.Current.Value != 30000 {
		t.Fatalf("expected current basic amount 30000, got %+v", c.Current)
	}

	detail, err := api.DetailedProfile(ctx, profileID)
	if err != nil {
		t.Fatalf("detailed profile failed: %v", err)
	}
	edit, err := salary.NewEditWizard(current, detail, api)
	if err != nil {
		t.Fatalf("edit wizard: %v", err)
	}
	mustDo(t, edit.SetAmount(basic.ID, "35000"))
	mustDo(t, edit.Next())
	updated, err := edit.Confirm(ctx)
	if err != nil {
		t.Fatalf("update structure failed: %v", err)
	}
	if updated.Totals.Gross != 45000 {
		t.Fatalf("expected gross 45000 after edit, got %v", updated.Totals.Gross)
	}

	resp := postJSON(t, ts.Client(), ts.URL+"/api/v1/salary/slips/generate", token, map[string]any{
		"from": "2024-03-01",
		"to":   "2024-03-31",
	})
	var generated slip.GenerateResult
	if err := json.Unmarshal(resp.Data, &generated); err != nil {
		t.Fatalf("failed to decode generate response: %v", err)
	}
	if generated.Generated+generated.Skipped < 1 {
		t.Fatalf("expected at least one slip, got %+v", generated)
	}

	list, err := api.ListSlips(ctx, slip.Filter{Month: "2024-03"})
	if err != nil {
		t.Fatalf("list slips failed: %v", err)
	}
	found := false
	for _, s := range list.Slips {
		if s.BasicProfile == profileID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a March slip for profile %s", profileID)
	}
	if list.Summary.TotalSlips < 1 {
		t.Fatalf("expected summary to count slips, got %+v", list.Summary)
	}
}

func componentNamed(t *testing.T, c catalog.Catalog, name string) catalog.Component {
	t.Helper()
	for _, comp := range c.Components {
		if comp.Name == name {
			return comp
		}
	}
	t.Fatalf("component %q not in catalog", name)
	return catalog.Component{}
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("wizard step failed: %v", err)
	}
}

func createBasicProfile(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/profiles/employees", token, map[string]any{
		"first_name": "Journey",
		"last_name":  "Tester",
		"email":      fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano()),
		"status":     "active",
	})
	employeeID := idOf(t, resp)

	departmentID := firstID(t, getJSON(t, client, baseURL+"/api/v1/salary/departments", token))
	jobTypeID := firstID(t, getJSON(t, client, baseURL+"/api/v1/salary/job-types", token))

	resp = postJSON(t, client, baseURL+"/api/v1/profiles/basic", token, map[string]any{
		"employee_id":   employeeID,
		"department_id": departmentID,
		"job_type_id":   jobTypeID,
	})
	return idOf(t, resp)
}

func idOf(t *testing.T, resp envelope) string {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatalf("expected id in %s", string(resp.Data))
	}
	return id
}

func firstID(t *testing.T, resp envelope) string {
	t.Helper()
	var items []map[string]any
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected seeded items")
	}
	id, _ := items[0]["id"].(string)
	return id
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(raw))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return send(t, client, req, token)
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return send(t, client, req, token)
}

func send(t *testing.T, client *http.Client, req *http.Request, token string) envelope {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 300 {
		t.Fatalf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(raw))
	}
	return env
}
