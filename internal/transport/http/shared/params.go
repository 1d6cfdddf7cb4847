package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON reads a single JSON document and rejects unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// IDParam parses a positive integer URL parameter.
func IDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Period reads ?year=&month=, defaulting to the month of now.
func Period(r *http.Request, now time.Time, v *Validator) (int, int) {
	year, month := now.Year(), int(now.Month())
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			v.Add("year", "must be a number")
		}
		year = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			v.Add("month", "must be a number")
		}
		month = parsed
	}
	v.IntRange("year", year, 1000, 9999, "must have four digits")
	v.IntRange("month", month, 1, 12, "must be between 1 and 12")
	return year, month
}
