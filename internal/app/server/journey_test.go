package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"salarizare/internal/app/server"
	"salarizare/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func TestPayrollAndLedgerJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:        dbURL,
		Environment:        "test",
		MigrationsDir:      "../../../migrations",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1 << 20,
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
		PayslipDir:         t.TempDir(),
		FilesBaseURL:       "/files",
		MetricsEnabled:     true,
	}
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	now := time.Now()
	call(t, client, http.MethodPut, ts.URL+fmt.Sprintf("/api/v1/working-days/%d/%d", now.Year(), int(now.Month())), `{"days":20}`, http.StatusOK)

	name := fmt.Sprintf("Journey %d", now.UnixNano())
	created := call(t, client, http.MethodPost, ts.URL+"/api/v1/employees", `{"nume":"`+name+`","varsta":30}`, http.StatusCreated)
	var emp struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(created.Data, &emp); err != nil || emp.ID == 0 {
		t.Fatalf("expected employee id, got %s (%v)", created.Data, err)
	}
	call(t, client, http.MethodPatch, ts.URL+fmt.Sprintf("/api/v1/employees/%d", emp.ID), `{"field":"zileCOOdihna","value":"2"}`, http.StatusOK)
	call(t, client, http.MethodGet, ts.URL+fmt.Sprintf("/api/v1/payroll?year=%d&month=%d", now.Year(), int(now.Month())), "", http.StatusOK)
	call(t, client, http.MethodDelete, ts.URL+fmt.Sprintf("/api/v1/employees/%d", emp.ID), "", http.StatusOK)

	tacName := fmt.Sprintf("J_%d", now.UnixNano())
	createdTAC := call(t, client, http.MethodPost, ts.URL+"/api/v1/tacs", `{"name":"`+tacName+`","rows":[{"fisaCont":"5121","contCorespondent":"4111","debitFormula":"T_Val"},{"fisaCont":"4111","creditFormula":"T_Val"}]}`, http.StatusCreated)
	var tacView struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(createdTAC.Data, &tacView); err != nil {
		t.Fatalf("decode tac: %v", err)
	}
	report := call(t, client, http.MethodPost, ts.URL+"/api/v1/transactions", fmt.Sprintf(`{"tacId":%d,"transactionDate":"%s","variables":{"T_Val":250}}`, tacView.ID, now.Format("2006-01-02")), http.StatusCreated)
	var applied struct {
		TransactionID int64             `json:"transactionId"`
		Entries       []json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(report.Data, &applied); err != nil || len(applied.Entries) != 2 {
		t.Fatalf("expected two entries, got %s (%v)", report.Data, err)
	}
	call(t, client, http.MethodPost, ts.URL+fmt.Sprintf("/api/v1/transactions/%d/reapply", applied.TransactionID), "", http.StatusOK)
	call(t, client, http.MethodDelete, ts.URL+fmt.Sprintf("/api/v1/transactions/%d", applied.TransactionID), "", http.StatusOK)
	call(t, client, http.MethodDelete, ts.URL+fmt.Sprintf("/api/v1/tacs/%d", tacView.ID), "", http.StatusOK)
}

func call(t *testing.T, client *http.Client, method, url, body string, want int) envelope {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s: %v", method, url, err)
	}
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d (%v)", method, url, want, resp.StatusCode, env.Error)
	}
	return env
}
