package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"salarizare/internal/platform/logger"
	"salarizare/internal/platform/querier"
	"salarizare/internal/transport/http/api"
)

const IdempotencyKeyHeader = "Idempotency-Key"

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// StoredResponse is the response replayed for a repeated key.
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type IdempotencyStoreAPI interface {
	Check(ctx context.Context, endpoint, key, requestHash string) (StoredResponse, bool, error)
	Save(ctx context.Context, endpoint, key, requestHash string, response StoredResponse) error
}

type IdempotencyStore struct {
	DB querier.Querier
}

func NewIdempotencyStore(db querier.Querier) *IdempotencyStore {
	return &IdempotencyStore{DB: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) Check(ctx context.Context, endpoint, key, requestHash string) (StoredResponse, bool, error) {
	var storedHash string
	var stored StoredResponse
	err := s.DB.QueryRow(ctx, `
    SELECT request_hash, status, response_json
    FROM idempotency_keys
    WHERE key = $1 AND endpoint = $2
  `, key, endpoint).Scan(&storedHash, &stored.Status, &stored.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return StoredResponse{}, false, nil
	}
	if err != nil {
		return StoredResponse{}, false, err
	}
	if storedHash != requestHash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, endpoint, key, requestHash string, response StoredResponse) error {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO idempotency_keys (key, endpoint, request_hash, status, response_json)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (key, endpoint)
    DO UPDATE SET status = EXCLUDED.status, response_json = EXCLUDED.response_json
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, key, endpoint, requestHash, response.Status, response.Body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

type bufferedWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) WriteHeader(code int) {
	b.status = code
	b.ResponseWriter.WriteHeader(code)
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.body.Write(p)
	return b.ResponseWriter.Write(p)
}

// Idempotent replays the stored response when a request repeats an
// Idempotency-Key with the same body, and rejects the key with 409 when the
// body differs. Requests without the header pass through. Only 2xx responses
// are remembered.
func Idempotent(store IdempotencyStoreAPI) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if store == nil || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			requestID := GetRequestID(r)
			payload, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_body", "request body could not be read", requestID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))

			endpoint := r.Method + " " + r.URL.Path
			hash := RequestHash(payload)
			stored, found, err := store.Check(r.Context(), endpoint, key, hash)
			if errors.Is(err, ErrIdempotencyConflict) {
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", requestID)
				return
			}
			if err != nil {
				api.Fail(w, http.StatusInternalServerError, "idempotency_failed", "idempotency check failed", requestID)
				return
			}
			if found {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replay", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			recorder := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			if recorder.status < 200 || recorder.status >= 300 {
				return
			}
			response := StoredResponse{Status: recorder.status, Body: json.RawMessage(bytes.TrimSpace(recorder.body.Bytes()))}
			if err := store.Save(r.Context(), endpoint, key, hash, response); err != nil {
				logger.FromContext(r.Context()).Warn().Err(err).Str("endpoint", endpoint).Msg("idempotency save failed")
			}
		})
	}
}
