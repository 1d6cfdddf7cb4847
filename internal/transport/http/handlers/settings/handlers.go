package settingshandler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"salarizare/internal/domain/settings"
	"salarizare/internal/domain/workingdays"
	"salarizare/internal/platform/logger"
	"salarizare/internal/transport/http/api"
	"salarizare/internal/transport/http/middleware"
	"salarizare/internal/transport/http/shared"
)

type Handler struct {
	Settings    *settings.Service
	WorkingDays *workingdays.Service
}

func NewHandler(settingsSvc *settings.Service, workingDaysSvc *workingdays.Service) *Handler {
	return &Handler{Settings: settingsSvc, WorkingDays: workingDaysSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.handleGetSettings)
	r.Put("/settings", h.handleReplaceSettings)
	r.Put("/settings/{key}", h.handleUpdateSetting)
	r.Get("/working-days", h.handleGetWorkingDays)
	r.Put("/working-days", h.handleReplaceWorkingDays)
	r.Put("/working-days/{year}/{month}", h.handleSetMonth)
}

type settingsView struct {
	Settings    settings.Settings     `json:"settings"`
	Values      settings.Values       `json:"values"`
	Definitions []settings.Definition `json:"definitions"`
}

func view(s settings.Settings) settingsView {
	return settingsView{Settings: s, Values: s.Values(), Definitions: settings.Definitions}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r)
	switch {
	case errors.Is(err, settings.ErrUnknownKey):
		api.Fail(w, http.StatusNotFound, "unknown_setting", err.Error(), requestID)
	case errors.Is(err, settings.ErrInvalidValue),
		errors.Is(err, workingdays.ErrInvalidYear),
		errors.Is(err, workingdays.ErrInvalidMonth),
		errors.Is(err, workingdays.ErrInvalidDays):
		api.Fail(w, http.StatusBadRequest, "invalid_value", err.Error(), requestID)
	default:
		logger.FromContext(r.Context()).Error().Err(err).Str("code", code).Msg(message)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.Settings.Load(r.Context())
	if err != nil {
		h.fail(w, r, err, "settings_failed", "failed to load settings")
		return
	}
	api.Success(w, view(current), middleware.GetRequestID(r))
}

func (h *Handler) handleReplaceSettings(w http.ResponseWriter, r *http.Request) {
	var payload settings.Settings
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r))
		return
	}
	saved, err := h.Settings.Replace(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err, "settings_save_failed", "failed to save settings")
		return
	}
	api.Success(w, view(saved), middleware.GetRequestID(r))
}

type settingUpdate struct {
	Value   *float64 `json:"value"`
	Percent bool     `json:"percent"`
}

// handleUpdateSetting records a new value for one constant. The key is the
// path-escaped label, e.g. "Deducere%20%2F%20minor%20in%20intretinere".
func (h *Handler) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r)
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_key", "setting key is not valid", requestID)
		return
	}
	var payload settingUpdate
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	if payload.Value == nil {
		v.Add("value", "is required")
	} else {
		v.NonNegative("value", *payload.Value)
	}
	if v.Reject(w, requestID) {
		return
	}
	saved, err := h.Settings.Update(r.Context(), settings.Key(key), *payload.Value, payload.Percent)
	if err != nil {
		h.fail(w, r, err, "setting_update_failed", "failed to update setting")
		return
	}
	api.Success(w, view(saved), requestID)
}

func (h *Handler) handleGetWorkingDays(w http.ResponseWriter, r *http.Request) {
	data, err := h.WorkingDays.Get(r.Context())
	if err != nil {
		h.fail(w, r, err, "working_days_failed", "failed to load working days")
		return
	}
	if data == nil {
		data = workingdays.Data{}
	}
	api.Success(w, data, middleware.GetRequestID(r))
}

func (h *Handler) handleReplaceWorkingDays(w http.ResponseWriter, r *http.Request) {
	var payload workingdays.Data
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r))
		return
	}
	if err := h.WorkingDays.Replace(r.Context(), payload); err != nil {
		h.fail(w, r, err, "working_days_save_failed", "failed to save working days")
		return
	}
	if payload == nil {
		payload = workingdays.Data{}
	}
	api.Success(w, payload, middleware.GetRequestID(r))
}

func (h *Handler) handleSetMonth(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r)
	v := shared.NewValidator()
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		v.Add("year", "must be a number")
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		v.Add("month", "must be a number")
	}
	var payload struct {
		Days *int `json:"days"`
	}
	if err := shared.DecodeJSON(r, &payload); err != nil {
		v.Add("days", "invalid request payload")
	} else if payload.Days == nil {
		v.Add("days", "is required")
	}
	if v.Reject(w, requestID) {
		return
	}
	if err := h.WorkingDays.SetMonth(r.Context(), year, month, *payload.Days); err != nil {
		h.fail(w, r, err, "working_days_save_failed", "failed to save working days")
		return
	}
	api.Success(w, map[string]int{"year": year, "month": month, "days": *payload.Days}, requestID)
}
