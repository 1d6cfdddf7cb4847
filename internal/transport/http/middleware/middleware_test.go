package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salarizare/internal/platform/metrics"
)

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestRequestIDGeneratesAndEchoes(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected generated id to be echoed, got %q / %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Fatalf("expected caller id to be kept, got %q", seen)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	handler := RateLimit(limiter)(http.HandlerFunc(noContent))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.10:4444"); code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send("203.0.113.10:5555"); code != http.StatusTooManyRequests {
		t.Fatalf("expected same host to be throttled, got %d", code)
	}
	if code := send("203.0.113.11:4444"); code != http.StatusNoContent {
		t.Fatalf("expected other host to pass, got %d", code)
	}
}

func TestRateLimitSkipsProbes(t *testing.T) {
	handler := RateLimit(NewLimiter(0.001, 1))(http.HandlerFunc(noContent))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("probe %d throttled", i)
		}
	}
}

func TestLimiterSweep(t *testing.T) {
	limiter := NewLimiter(1, 1)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }
	limiter.Allow("a")
	limiter.now = func() time.Time { return base.Add(time.Hour) }
	limiter.Allow("b")

	if removed := limiter.Sweep(10 * time.Minute); removed != 1 {
		t.Fatalf("expected one idle bucket removed, got %d", removed)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	if ip := clientIP(req); ip != "198.51.100.1" {
		t.Fatalf("unexpected ip %q", ip)
	}
}

func TestLoggerRecordsMetrics(t *testing.T) {
	collector := metrics.New()
	handler := Logger(collector)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	snap := collector.Snapshot()
	if snap["requestsTotal"] != uint64(1) || snap["errorsTotal"] != uint64(1) {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestRecovererReturns500(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	handler := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected oversize body to fail, got %d", rec.Code)
	}
}

func TestSecureHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(true)(http.HandlerFunc(noContent)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("missing headers: %v", rec.Header())
	}
}

type memoryIdempotency struct {
	saved map[string]StoredResponse
	hash  map[string]string
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{saved: map[string]StoredResponse{}, hash: map[string]string{}}
}

func (m *memoryIdempotency) Check(_ context.Context, endpoint, key, requestHash string) (StoredResponse, bool, error) {
	id := endpoint + "|" + key
	stored, ok := m.saved[id]
	if !ok {
		return StoredResponse{}, false, nil
	}
	if m.hash[id] != requestHash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (m *memoryIdempotency) Save(_ context.Context, endpoint, key, requestHash string, response StoredResponse) error {
	id := endpoint + "|" + key
	m.saved[id] = response
	m.hash[id] = requestHash
	return nil
}

func TestIdempotentReplaysAndConflicts(t *testing.T) {
	calls := 0
	handler := Idempotent(newMemoryIdempotency())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
		req.Header.Set(IdempotencyKeyHeader, "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(`{"a":1}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	replay := send(`{"a":1}`)
	if replay.Code != http.StatusCreated || replay.Header().Get("Idempotent-Replay") != "true" || replay.Body.String() != `{"success":true}` {
		t.Fatalf("expected replay, got %d %q", replay.Code, replay.Body.String())
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if rec := send(`{"a":2}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on payload change, got %d", rec.Code)
	}
}

func TestIdempotentWithoutKeyPassesThrough(t *testing.T) {
	calls := 0
	handler := Idempotent(newMemoryIdempotency())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{}")))
	}
	if calls != 2 {
		t.Fatalf("expected two calls, got %d", calls)
	}
}
