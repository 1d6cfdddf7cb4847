package payrollhandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"salarizare/internal/domain/employee"
	"salarizare/internal/domain/payroll"
	"salarizare/internal/platform/jobs"
	"salarizare/internal/platform/logger"
	"salarizare/internal/transport/http/api"
	"salarizare/internal/transport/http/middleware"
	"salarizare/internal/transport/http/shared"
)

// JobRunner is the part of the job service the handlers use.
type JobRunner interface {
	RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error)
	Enqueue(jobType string, run func(context.Context) (any, error)) bool
}

type Handler struct {
	Payroll *payroll.Service
	Jobs    JobRunner
	now     func() time.Time
}

func NewHandler(svc *payroll.Service, runner JobRunner) *Handler {
	return &Handler{Payroll: svc, Jobs: runner, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleListEmployees)
		r.Put("/", h.handleReplaceEmployees)
		r.Post("/", h.handleAddEmployee)
		r.Get("/{employeeID}", h.handleGetEmployee)
		r.Patch("/{employeeID}", h.handleEditEmployee)
		r.Delete("/{employeeID}", h.handleRemoveEmployee)
		r.Get("/{employeeID}/payslip", h.handlePayslip)
	})
	r.Route("/payroll", func(r chi.Router) {
		r.Get("/", h.handleBreakdown)
		r.Get("/export", h.handleExportRegister)
		r.Post("/recompute", h.handleRecompute)
		r.Post("/archive", h.handleArchive)
	})
	r.Get("/deducere", h.handleLookupDeduction)
	r.Get("/deducere/table", h.handleDeductionTable)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r)
	switch {
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, employee.ErrNameRequired), errors.Is(err, employee.ErrUnknownField), errors.Is(err, employee.ErrInvalidValue), errors.Is(err, payroll.ErrInvalidPeriod):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), requestID)
	case errors.Is(err, payroll.ErrNoStorage):
		api.Fail(w, http.StatusServiceUnavailable, "storage_unavailable", "file storage is not configured", requestID)
	default:
		logger.FromContext(r.Context()).Error().Err(err).Str("code", code).Msg(message)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) period(w http.ResponseWriter, r *http.Request) (payroll.Period, bool) {
	v := shared.NewValidator()
	year, month := shared.Period(r, h.now(), v)
	if v.Reject(w, middleware.GetRequestID(r)) {
		return payroll.Period{}, false
	}
	return payroll.Period{Year: year, Month: month}, true
}

func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := shared.IDParam(r, "employeeID")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "employee id must be a positive number", middleware.GetRequestID(r))
	}
	return id, ok
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.Payroll.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, r, err, "employees_list_failed", "failed to list employees")
		return
	}
	if list == nil {
		list = []employee.Employee{}
	}
	api.Success(w, list, middleware.GetRequestID(r))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	emp, err := h.Payroll.GetEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "employee_get_failed", "failed to load employee")
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r))
}

func (h *Handler) handleReplaceEmployees(w http.ResponseWriter, r *http.Request) {
	var payload []employee.Employee
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r))
		return
	}
	saved, err := h.Payroll.SaveEmployees(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err, "employees_save_failed", "failed to save employees")
		return
	}
	api.Success(w, saved, middleware.GetRequestID(r))
}

func (h *Handler) handleAddEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employee.Employee
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r))
		return
	}
	v := shared.NewValidator()
	v.Required("nume", payload.Nume, "is required")
	v.Enum("principalLocMunca", payload.PrincipalLocMunca, []string{employee.Da, employee.Nu}, "must be DA or NU")
	v.Enum("ticheteDeMasa", payload.TicheteDeMasa, []string{employee.Da, employee.Nu}, "must be DA or NU")
	if v.Reject(w, middleware.GetRequestID(r)) {
		return
	}
	created, err := h.Payroll.AddEmployee(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err, "employee_create_failed", "failed to add employee")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r))
}

// cellEdit is one grid cell change. Value may be sent as a JSON string or a
// bare number.
type cellEdit struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (c cellEdit) raw() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func (h *Handler) handleEditEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	var payload cellEdit
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r))
		return
	}
	v := shared.NewValidator()
	v.Required("field", payload.Field, "is required")
	if v.Reject(w, middleware.GetRequestID(r)) {
		return
	}
	updated, err := h.Payroll.EditEmployee(r.Context(), id, strings.TrimSpace(payload.Field), payload.raw())
	if err != nil {
		h.fail(w, r, err, "employee_update_failed", "failed to update employee")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r))
}

func (h *Handler) handleRemoveEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	if err := h.Payroll.RemoveEmployee(r.Context(), id); err != nil {
		h.fail(w, r, err, "employee_delete_failed", "failed to remove employee")
		return
	}
	api.Success(w, map[string]int64{"id": id}, middleware.GetRequestID(r))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	pdf, emp, err := h.Payroll.Payslip(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, err, "payslip_failed", "failed to render payslip")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=fluturas-%s-%s.pdf", emp.DisplayID(), p))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("payslip write failed")
	}
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	breakdown, err := h.Payroll.Breakdown(r.Context(), p)
	if err != nil {
		h.fail(w, r, err, "payroll_failed", "failed to compute payroll")
		return
	}
	api.Success(w, breakdown, middleware.GetRequestID(r))
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	breakdown, err := h.Payroll.Breakdown(r.Context(), p)
	if err != nil {
		h.fail(w, r, err, "export_failed", "failed to export register")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=stat-salarii-%s.csv", p))
	if err := payroll.WriteRegisterCSV(w, breakdown); err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("export register write failed")
	}
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	run := func(ctx context.Context) (any, error) {
		n, err := h.Payroll.Recompute(ctx)
		return map[string]int{"employees": n}, err
	}
	var (
		details any
		err     error
	)
	if h.Jobs != nil {
		details, err = h.Jobs.RunNow(r.Context(), jobs.JobRecomputeEmployees, run)
	} else {
		details, err = run(r.Context())
	}
	if err != nil {
		h.fail(w, r, err, "recompute_failed", "failed to recompute employees")
		return
	}
	api.Success(w, details, middleware.GetRequestID(r))
}

// handleArchive stores every payslip of the month. With ?async=true the work
// is queued and 202 is returned.
func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	run := func(ctx context.Context) (any, error) {
		files, err := h.Payroll.ArchivePayslips(ctx, p)
		return map[string]any{"period": p.String(), "files": files}, err
	}
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async && h.Jobs != nil {
		if !h.Jobs.Enqueue(jobs.JobArchivePayslips, run) {
			api.Fail(w, http.StatusServiceUnavailable, "queue_full", "job queue is full", middleware.GetRequestID(r))
			return
		}
		api.WriteJSON(w, http.StatusAccepted, api.Envelope{Success: true, Data: map[string]string{"period": p.String(), "status": "queued"}, RequestID: middleware.GetRequestID(r)})
		return
	}
	details, err := run(r.Context())
	if err != nil {
		h.fail(w, r, err, "archive_failed", "failed to archive payslips")
		return
	}
	api.Success(w, details, middleware.GetRequestID(r))
}

func (h *Handler) handleLookupDeduction(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := shared.NewValidator()
	income, err := strconv.ParseFloat(strings.TrimSpace(query.Get("income")), 64)
	if err != nil {
		v.Add("income", "must be a number")
	} else {
		v.NonNegative("income", income)
	}
	dependents := 0
	if raw := strings.TrimSpace(query.Get("dependents")); raw != "" {
		if dependents, err = strconv.Atoi(raw); err != nil {
			v.Add("dependents", "must be a whole number")
		}
	}
	if v.Reject(w, middleware.GetRequestID(r)) {
		return
	}
	pct, found := payroll.LookupDeduction(income, dependents)
	result := map[string]any{"income": income, "dependents": dependents, "found": found}
	if found {
		result["percentage"] = pct
	}
	api.Success(w, result, middleware.GetRequestID(r))
}

func (h *Handler) handleDeductionTable(w http.ResponseWriter, r *http.Request) {
	api.Success(w, payroll.Deductions(), middleware.GetRequestID(r))
}
