package settingshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"salarizare/internal/domain/settings"
	"salarizare/internal/domain/workingdays"
)

type memorySettings struct {
	stored settings.Settings
}

func (m *memorySettings) Get(context.Context) (settings.Settings, error) {
	return m.stored.Clone(), nil
}

func (m *memorySettings) Put(_ context.Context, s settings.Settings) error {
	m.stored = s.Clone()
	return nil
}

type memoryCalendar struct {
	data workingdays.Data
}

func (m *memoryCalendar) Get(context.Context) (workingdays.Data, error) {
	out := workingdays.Data{}
	for year, months := range m.data {
		out[year] = map[int]int{}
		for month, days := range months {
			out[year][month] = days
		}
	}
	return out, nil
}

func (m *memoryCalendar) Put(_ context.Context, data workingdays.Data) error {
	m.data = data
	return nil
}

type fixture struct {
	router   http.Handler
	settings *memorySettings
	calendar *memoryCalendar
	changed  []settings.Key
	recalc   int
}

func newFixture() *fixture {
	f := &fixture{settings: &memorySettings{stored: settings.Settings{}}, calendar: &memoryCalendar{data: workingdays.Data{}}}
	settingsSvc := settings.NewService(f.settings)
	settingsSvc.AfterUpdate = func(_ context.Context, key settings.Key) { f.changed = append(f.changed, key) }
	calendarSvc := workingdays.NewService(f.calendar)
	calendarSvc.AfterUpdate = func(context.Context) { f.recalc++ }

	router := chi.NewRouter()
	NewHandler(settingsSvc, calendarSvc).RegisterRoutes(router)
	f.router = router
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestGetSettingsBackfillsDefaults(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data struct {
			Values      settings.Values       `json:"values"`
			Definitions []settings.Definition `json:"definitions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Values.CAS != 0.25 || env.Data.Values.SalariuCIM != 4050 || len(env.Data.Definitions) != 14 {
		t.Fatalf("unexpected settings %+v", env.Data)
	}
	if len(f.settings.stored) != 14 {
		t.Fatalf("expected normalized settings to be persisted, got %d keys", len(f.settings.stored))
	}
}

func TestUpdateSettingWithEscapedKey(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPut, "/settings/Deducere%20%2F%20minor%20in%20intretinere", `{"value":120}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := f.settings.stored[settings.KeyDeducereMinor].CurrentValue; got != 120 {
		t.Fatalf("expected 120, got %v", got)
	}
	if len(f.changed) != 1 || f.changed[0] != settings.KeyDeducereMinor {
		t.Fatalf("expected hook for the key, got %v", f.changed)
	}
}

func TestUpdateSettingPercent(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPut, "/settings/CASS", `{"value":16,"percent":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := f.settings.stored[settings.KeyCASS].CurrentValue; got != 0.16 {
		t.Fatalf("expected 0.16, got %v", got)
	}
}

func TestUpdateSettingErrors(t *testing.T) {
	f := newFixture()
	if rec := f.do(http.MethodPut, "/settings/Nope", `{"value":1}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown key, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPut, "/settings/CAS", `{"value":-1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative value, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPut, "/settings/CAS", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing value, got %d", rec.Code)
	}
	if len(f.changed) != 0 {
		t.Fatalf("hook must not run on failures, got %v", f.changed)
	}
}

func TestReplaceSettingsRejectsUnknownKeys(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPut, "/settings", `{"Bonus":{"currentValue":1,"history":[]}}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = f.do(http.MethodPut, "/settings", `{"CAS":{"currentValue":25,"history":[{"value":25,"startDate":"2024-01-01","endDate":null}]}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := f.settings.stored[settings.KeyCAS].CurrentValue; got != 0.25 {
		t.Fatalf("expected whole percentage to be normalized, got %v", got)
	}
}

func TestWorkingDays(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPut, "/working-days", `{"2025":{"1":21,"2":20}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if days, ok := f.calendar.data.DaysFor(2025, 2); !ok || days != 20 {
		t.Fatalf("expected 20 days in February, got %d %v", days, ok)
	}

	rec = f.do(http.MethodPut, "/working-days/2025/3", `{"days":21}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if days, _ := f.calendar.data.DaysFor(2025, 1); days != 21 {
		t.Fatal("expected other months to be kept")
	}
	if f.recalc != 2 {
		t.Fatalf("expected two recompute hooks, got %d", f.recalc)
	}

	if rec := f.do(http.MethodPut, "/working-days", `{"25":{"1":21}}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short year, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPut, "/working-days/2025/13", `{"days":20}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for month 13, got %d", rec.Code)
	}

	rec = f.do(http.MethodGet, "/working-days", "")
	if !strings.Contains(rec.Body.String(), `"2025":{"1":21,"2":20,"3":21}`) {
		t.Fatalf("unexpected calendar %s", rec.Body.String())
	}
}
