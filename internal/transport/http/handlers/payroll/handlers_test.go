package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"salarizare/internal/domain/employee"
	"salarizare/internal/domain/payroll"
	"salarizare/internal/domain/settings"
	"salarizare/internal/platform/metrics"
	"salarizare/internal/platform/storage"
)

type memoryEmployees struct {
	items map[int64]employee.Employee
}

func (m *memoryEmployees) List(context.Context) ([]employee.Employee, error) {
	out := make([]employee.Employee, 0, len(m.items))
	for _, e := range m.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryEmployees) Get(_ context.Context, id int64) (employee.Employee, error) {
	e, ok := m.items[id]
	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}
	return e, nil
}

func (m *memoryEmployees) ReplaceAll(_ context.Context, list []employee.Employee) error {
	m.items = map[int64]employee.Employee{}
	for _, e := range list {
		m.items[e.ID] = e
	}
	return nil
}

func (m *memoryEmployees) Add(_ context.Context, e employee.Employee) error {
	m.items[e.ID] = e
	return nil
}

func (m *memoryEmployees) Update(_ context.Context, e employee.Employee) error {
	if _, ok := m.items[e.ID]; !ok {
		return employee.ErrNotFound
	}
	m.items[e.ID] = e
	return nil
}

func (m *memoryEmployees) Remove(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return employee.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type defaultSettings struct{}

func (defaultSettings) Values(context.Context) (settings.Values, error) {
	return settings.DefaultValues(), nil
}

// everyMonth reports the same number of working days for any month.
type everyMonth int

func (d everyMonth) DaysFor(context.Context, int, int) (int, bool, error) {
	return int(d), true, nil
}

type recordingJobs struct {
	ran    []string
	queued []string
}

func (j *recordingJobs) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	j.ran = append(j.ran, jobType)
	return run(ctx)
}

func (j *recordingJobs) Enqueue(jobType string, _ func(context.Context) (any, error)) bool {
	j.queued = append(j.queued, jobType)
	return true
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func popescu() employee.Employee {
	return employee.Employee{ID: 1, UniqueID: "IDS_1", Nume: "Popescu Ion", PrincipalLocMunca: employee.Da, TicheteDeMasa: employee.Nu, Varsta: 30}
}

func newTestRouter(t *testing.T, files storage.Store, list ...employee.Employee) (http.Handler, *memoryEmployees, *recordingJobs) {
	t.Helper()
	store := &memoryEmployees{items: map[int64]employee.Employee{}}
	for _, e := range list {
		store.items[e.ID] = e
	}
	svc := payroll.NewService(store, defaultSettings{}, everyMonth(20), files, metrics.New())
	runner := &recordingJobs{}
	h := NewHandler(svc, runner)
	h.now = func() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) }

	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router, store, runner
}

func do(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v", method, target, err)
		}
	}
	return rec, env
}

func TestAddEmployeeAssignsIdentity(t *testing.T) {
	router, store, _ := newTestRouter(t, nil, popescu())

	rec, env := do(t, router, http.MethodPost, "/employees", `{"nume":"Ionescu Ana","companie":"Bono","varsta":24}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created employee.Employee
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode employee: %v", err)
	}
	if created.ID != 2 || created.UniqueID != "IDS_2" || created.PrincipalLocMunca != employee.Da {
		t.Fatalf("unexpected identity %+v", created)
	}
	if created.SalBrutCfZileLucrateRounded == nil || *created.SalBrutCfZileLucrateRounded != 4050 {
		t.Fatalf("expected derived gross 4050, got %v", created.SalBrutCfZileLucrateRounded)
	}
	if len(store.items) != 2 {
		t.Fatalf("expected two stored employees, got %d", len(store.items))
	}
}

func TestAddEmployeeValidation(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	rec, env := do(t, router, http.MethodPost, "/employees", `{"nume":" ","principalLocMunca":"poate"}`)
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "validation_error" {
		t.Fatalf("expected validation error, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestEditEmployeeCell(t *testing.T) {
	router, store, _ := newTestRouter(t, nil, popescu())

	rec, _ := do(t, router, http.MethodPatch, "/employees/1", `{"field":"valoareTichetDeMasa","value":40}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := store.items[1]
	if got.TicheteDeMasa != employee.Da || employee.Float(got.ValoareTichetDeMasa) != 40 {
		t.Fatalf("expected tichete enabled at 40, got %+v", got)
	}

	rec, _ = do(t, router, http.MethodPatch, "/employees/1", `{"field":"valoareTichetDeMasa","value":"abc"}`)
	if rec.Code != http.StatusOK || store.items[1].TicheteDeMasa != employee.Nu {
		t.Fatalf("expected unparsable value to disable tichete, got %d %+v", rec.Code, store.items[1])
	}
}

func TestEditEmployeeErrors(t *testing.T) {
	router, _, _ := newTestRouter(t, nil, popescu())

	if rec, _ := do(t, router, http.MethodPatch, "/employees/9", `{"field":"varsta","value":"30"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec, _ := do(t, router, http.MethodPatch, "/employees/1", `{"field":"id","value":"30"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for read-only field, got %d", rec.Code)
	}
	if rec, _ := do(t, router, http.MethodPatch, "/employees/abc", `{"field":"varsta"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestEditEmployeeRejectsInvalidFlag(t *testing.T) {
	router, store, _ := newTestRouter(t, nil, popescu())

	rec, env := do(t, router, http.MethodPatch, "/employees/1", `{"field":"principalLocMunca","value":"maybe"}`)
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "invalid_request" {
		t.Fatalf("expected 400 invalid_request, got %d %s", rec.Code, rec.Body.String())
	}
	if store.items[1].PrincipalLocMunca != employee.Da {
		t.Fatalf("expected stored flag to stay DA, got %q", store.items[1].PrincipalLocMunca)
	}

	if rec, _ := do(t, router, http.MethodPatch, "/employees/1", `{"field":"persoaneIntretinere","value":"-1"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative dependents, got %d", rec.Code)
	}
	if rec, _ := do(t, router, http.MethodPut, "/employees", `[{"id":1,"nume":"Popescu Ion","principalLocMunca":"poate"}]`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid flag on replace, got %d", rec.Code)
	}
}

func TestRemoveEmployee(t *testing.T) {
	router, store, _ := newTestRouter(t, nil, popescu())

	if rec, _ := do(t, router, http.MethodDelete, "/employees/1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.items) != 0 {
		t.Fatal("expected employee to be removed")
	}
	if rec, _ := do(t, router, http.MethodDelete, "/employees/1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestReplaceEmployeesRejectsNamelessRow(t *testing.T) {
	router, store, _ := newTestRouter(t, nil, popescu())

	rec, _ := do(t, router, http.MethodPut, "/employees", `[{"id":5,"nume":""}]`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if _, ok := store.items[1]; !ok {
		t.Fatal("expected collection to be left untouched")
	}
}

func TestBreakdown(t *testing.T) {
	router, _, _ := newTestRouter(t, nil, popescu())

	rec, env := do(t, router, http.MethodGet, "/payroll?year=2025&month=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var breakdown struct {
		WorkingDays int `json:"workingDays"`
		Lines       []struct {
			UniqueID   string  `json:"uniqueId"`
			SalariuNet float64 `json:"salariuNet"`
		} `json:"lines"`
		Totals struct {
			SalariuNet float64 `json:"salariuNet"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(env.Data, &breakdown); err != nil {
		t.Fatalf("decode breakdown: %v", err)
	}
	if breakdown.WorkingDays != 20 || len(breakdown.Lines) != 1 || breakdown.Lines[0].SalariuNet != 2574 || breakdown.Totals.SalariuNet != 2574 {
		t.Fatalf("unexpected breakdown %+v", breakdown)
	}

	if rec, _ := do(t, router, http.MethodGet, "/payroll?month=13", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid month, got %d", rec.Code)
	}
}

func TestExportRegister(t *testing.T) {
	router, _, _ := newTestRouter(t, nil, popescu())

	rec, _ := do(t, router, http.MethodGet, "/payroll/export?year=2025&month=3", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("expected csv, got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[2], "TOTAL") {
		t.Fatalf("expected header, one row and totals, got %q", rec.Body.String())
	}
}

func TestPayslipPDF(t *testing.T) {
	router, _, _ := newTestRouter(t, nil, popescu())

	rec, _ := do(t, router, http.MethodGet, "/employees/1/payslip?year=2025&month=3", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("expected pdf, got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected pdf body")
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "IDS_1-2025-03") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestRecomputeRunsThroughJobs(t *testing.T) {
	router, store, runner := newTestRouter(t, nil, popescu())

	rec, env := do(t, router, http.MethodPost, "/payroll/recompute", "")
	if rec.Code != http.StatusOK || string(env.Data) != `{"employees":1}` {
		t.Fatalf("unexpected recompute response %d %s", rec.Code, rec.Body.String())
	}
	if len(runner.ran) != 1 || runner.ran[0] != "recompute_employees" {
		t.Fatalf("expected recompute job, got %v", runner.ran)
	}
	if store.items[1].SalBrutCfZileLucrateRounded == nil {
		t.Fatal("expected cached fields to be filled")
	}
}

func TestArchive(t *testing.T) {
	files, err := storage.NewLocalStore(t.TempDir(), "http://files.local")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	router, _, runner := newTestRouter(t, files, popescu())

	rec, env := do(t, router, http.MethodPost, "/payroll/archive?year=2025&month=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(env.Data), "payslips/2025-03/1.pdf") {
		t.Fatalf("expected archived path, got %s", env.Data)
	}

	rec, _ = do(t, router, http.MethodPost, "/payroll/archive?year=2025&month=3&async=true", "")
	if rec.Code != http.StatusAccepted || len(runner.queued) != 1 {
		t.Fatalf("expected queued archive, got %d %v", rec.Code, runner.queued)
	}
}

func TestArchiveWithoutStorage(t *testing.T) {
	router, _, _ := newTestRouter(t, nil, popescu())
	if rec, _ := do(t, router, http.MethodPost, "/payroll/archive", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestDeductionLookup(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	_, env := do(t, router, http.MethodGet, "/deducere?income=4050&dependents=0", "")
	if string(env.Data) != `{"dependents":0,"found":true,"income":4050,"percentage":20}` {
		t.Fatalf("unexpected lookup %s", env.Data)
	}
	_, env = do(t, router, http.MethodGet, "/deducere?income=99999", "")
	if string(env.Data) != `{"dependents":0,"found":false,"income":99999}` {
		t.Fatalf("unexpected lookup %s", env.Data)
	}
	if rec, _ := do(t, router, http.MethodGet, "/deducere?income=x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	_, env = do(t, router, http.MethodGet, "/deducere/table", "")
	var table []payroll.DeductionRow
	if err := json.Unmarshal(env.Data, &table); err != nil || len(table) != 41 {
		t.Fatalf("expected 41 rows, got %d (%v)", len(table), err)
	}
}
