package tachandler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"salarizare/internal/domain/formula"
	"salarizare/internal/domain/tac"
	"salarizare/internal/platform/logger"
	"salarizare/internal/transport/http/api"
	"salarizare/internal/transport/http/middleware"
	"salarizare/internal/transport/http/shared"
)

const maxBulkTransactions = 500

type Handler struct {
	TACs        *tac.Service
	Idempotency middleware.IdempotencyStoreAPI
}

func NewHandler(svc *tac.Service, idempotency middleware.IdempotencyStoreAPI) *Handler {
	return &Handler{TACs: svc, Idempotency: idempotency}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tacs", func(r chi.Router) {
		r.Get("/", h.handleListTACs)
		r.Post("/", h.handleCreateTAC)
		r.Post("/validate", h.handleValidateTAC)
		r.Post("/samples", h.handleSeedSamples)
		r.Get("/by-name/{name}", h.handleGetTACByName)
		r.Get("/{tacID}", h.handleGetTAC)
		r.Put("/{tacID}", h.handleUpdateTAC)
		r.Delete("/{tacID}", h.handleDeleteTAC)
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.handleListTransactions)
		r.With(middleware.Idempotent(h.Idempotency)).Post("/", h.handleCreateTransaction)
		r.With(middleware.Idempotent(h.Idempotency)).Post("/bulk", h.handleBulkCreate)
		r.Get("/{transactionID}", h.handleGetTransaction)
		r.Delete("/{transactionID}", h.handleDeleteTransaction)
		r.Post("/{transactionID}/reapply", h.handleReapply)
	})
	r.Get("/entries", h.handleListEntries)
	r.Get("/entries/export", h.handleExportEntries)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r)
	switch {
	case errors.Is(err, tac.ErrTACNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "tac not found", requestID)
	case errors.Is(err, tac.ErrTransactionNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "transaction not found", requestID)
	case errors.Is(err, tac.ErrTACNameTaken):
		api.Fail(w, http.StatusConflict, "name_taken", err.Error(), requestID)
	case errors.Is(err, tac.ErrTACNameRequired), errors.Is(err, tac.ErrFisaContRequired), errors.Is(err, tac.ErrTransactionDate):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), requestID)
	default:
		logger.FromContext(r.Context()).Error().Err(err).Str("code", code).Msg(message)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) id(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, ok := shared.IDParam(r, param)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "id must be a positive number", middleware.GetRequestID(r))
	}
	return id, ok
}

type tacPayload struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Rows        []tac.Row `json:"rows"`
}

// decodeTAC reads a TAC body and rejects formulas that cannot be parsed.
func (h *Handler) decodeTAC(w http.ResponseWriter, r *http.Request) (tac.TAC, bool) {
	requestID := middleware.GetRequestID(r)
	var payload tacPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return tac.TAC{}, false
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	for i, row := range payload.Rows {
		v.Required(fmt.Sprintf("rows[%d].fisaCont", i), row.FisaCont, "is required")
	}
	for _, issue := range tac.CheckRows(payload.Rows) {
		v.Add(fmt.Sprintf("rows[%d].%s", issue.Row, issue.Field), issue.Message)
	}
	if v.Reject(w, requestID) {
		return tac.TAC{}, false
	}
	return tac.TAC{Name: payload.Name, Description: payload.Description, Rows: payload.Rows}, true
}

func (h *Handler) handleListTACs(w http.ResponseWriter, r *http.Request) {
	list, err := h.TACs.ListTACs(r.Context())
	if err != nil {
		h.fail(w, r, err, "tacs_list_failed", "failed to list tacs")
		return
	}
	if list == nil {
		list = []tac.TAC{}
	}
	api.Success(w, list, middleware.GetRequestID(r))
}

func (h *Handler) handleGetTAC(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r, "tacID")
	if !ok {
		return
	}
	t, err := h.TACs.GetTAC(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "tac_get_failed", "failed to load tac")
		return
	}
	api.Success(w, t, middleware.GetRequestID(r))
}

func (h *Handler) handleGetTACByName(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_name", "tac name is not valid", middleware.GetRequestID(r))
		return
	}
	t, err := h.TACs.GetTACByName(r.Context(), name)
	if err != nil {
		h.fail(w, r, err, "tac_get_failed", "failed to load tac")
		return
	}
	api.Success(w, t, middleware.GetRequestID(r))
}

func (h *Handler) handleCreateTAC(w http.ResponseWriter, r *http.Request) {
	t, ok := h.decodeTAC(w, r)
	if !ok {
		return
	}
	id, err := h.TACs.CreateTAC(r.Context(), t)
	if err != nil {
		h.fail(w, r, err, "tac_create_failed", "failed to create tac")
		return
	}
	created, err := h.TACs.GetTAC(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "tac_create_failed", "failed to load created tac")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r))
}

func (h *Handler) handleUpdateTAC(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r, "tacID")
	if !ok {
		return
	}
	t, ok := h.decodeTAC(w, r)
	if !ok {
		return
	}
	t.ID = id
	if err := h.TACs.UpdateTAC(r.Context(), t); err != nil {
		h.fail(w, r, err, "tac_update_failed", "failed to update tac")
		return
	}
	updated, err := h.TACs.GetTAC(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "tac_update_failed", "failed to load updated tac")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r))
}

func (h *Handler) handleDeleteTAC(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r, "tacID")
	if !ok {
		return
	}
	if err := h.TACs.DeleteTAC(r.Context(), id); err != nil {
		h.fail(w, r, err, "tac_delete_failed", "failed to delete tac")
		return
	}
	api.Success(w, map[string]int64{"id": id}, middleware.GetRequestID(r))
}

// handleValidateTAC checks rows without storing them.
func (h *Handler) handleValidateTAC(w http.ResponseWriter, r *http.Request) {
	var payload tacPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r))
		return
	}
	issues := tac.CheckRows(payload.Rows)
	if issues == nil {
		issues = []tac.RowIssue{}
	}
	api.Success(w, map[string]any{"valid": len(issues) == 0, "issues": issues}, middleware.GetRequestID(r))
}

func (h *Handler) handleSeedSamples(w http.ResponseWriter, r *http.Request) {
	n, err := h.TACs.SeedSamples(r.Context())
	if err != nil {
		h.fail(w, r, err, "samples_failed", "failed to seed sample transactions")
		return
	}
	api.Success(w, map[string]int{"seeded": n}, middleware.GetRequestID(r))
}

// transactionPayload carries variables either as typed JSON values or as raw
// form strings; raw values are parsed and win on conflicts.
type transactionPayload struct {
	TACID           *int64            `json:"tacId"`
	TransactionDate string            `json:"transactionDate"`
	Description     string            `json:"description"`
	Variables       formula.Vars      `json:"variables"`
	VariableInputs  map[string]string `json:"variableInputs"`
}

func (p transactionPayload) input(field string, v *shared.Validator) tac.TransactionInput {
	date, _ := v.Date(field+"transactionDate", p.TransactionDate)
	if p.TACID != nil && *p.TACID <= 0 {
		v.Add(field+"tacId", "must be a positive number")
	}
	vars := formula.Vars{}
	for key, value := range p.Variables {
		vars[key] = value
	}
	for key, value := range tac.ParseVariableInputs(p.VariableInputs) {
		vars[key] = value
	}
	return tac.TransactionInput{
		TACID:           p.TACID,
		TransactionDate: date,
		Description:     strings.TrimSpace(p.Description),
		Variables:       vars,
	}
}

func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r)
	var payload transactionPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	in := payload.input("", v)
	if v.Reject(w, requestID) {
		return
	}
	report, err := h.TACs.CreateTransaction(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "transaction_create_failed", "failed to create transaction")
		return
	}
	api.Created(w, reportView(report), requestID)
}

func (h *Handler) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r)
	var payload []transactionPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	if len(payload) == 0 || len(payload) > maxBulkTransactions {
		v.Add("transactions", fmt.Sprintf("must contain between 1 and %d items", maxBulkTransactions))
	}
	inputs := make([]tac.TransactionInput, 0, len(payload))
	for i, p := range payload {
		inputs = append(inputs, p.input(fmt.Sprintf("[%d].", i), v))
	}
	if v.Reject(w, requestID) {
		return
	}
	reports, err := h.TACs.CreateTransactions(r.Context(), inputs)
	if err != nil {
		h.fail(w, r, err, "transactions_create_failed", "failed to create transactions")
		return
	}
	views := make([]applyView, 0, len(reports))
	for _, report := range reports {
		views = append(views, reportView(report))
	}
	api.Created(w, views, requestID)
}

type applyView struct {
	tac.ApplyReport
	Totals tac.LedgerTotals `json:"totals"`
}

func reportView(report tac.ApplyReport) applyView {
	if report.Entries == nil {
		report.Entries = []tac.AccountFileEntry{}
	}
	return applyView{ApplyReport: report, Totals: tac.Totals(report.Entries)}
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := h.TACs.ListTransactions(r.Context())
	if err != nil {
		h.fail(w, r, err, "transactions_list_failed", "failed to list transactions")
		return
	}
	if list == nil {
		list = []tac.Transaction{}
	}
	page := shared.ParsePagination(r, 50, 500)
	start, end := page.Window(len(list))
	api.Success(w, map[string]any{"items": list[start:end], "total": len(list), "limit": page.Limit, "offset": page.Offset}, middleware.GetRequestID(r))
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r, "transactionID")
	if !ok {
		return
	}
	t, err := h.TACs.GetTransaction(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "transaction_get_failed", "failed to load transaction")
		return
	}
	entries, err := h.TACs.ListEntries(r.Context(), &id)
	if err != nil {
		h.fail(w, r, err, "transaction_get_failed", "failed to load entries")
		return
	}
	if entries == nil {
		entries = []tac.AccountFileEntry{}
	}
	api.Success(w, map[string]any{"transaction": t, "entries": entries, "totals": tac.Totals(entries)}, middleware.GetRequestID(r))
}

func (h *Handler) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r, "transactionID")
	if !ok {
		return
	}
	if err := h.TACs.DeleteTransaction(r.Context(), id); err != nil {
		h.fail(w, r, err, "transaction_delete_failed", "failed to delete transaction")
		return
	}
	api.Success(w, map[string]int64{"id": id}, middleware.GetRequestID(r))
}

func (h *Handler) handleReapply(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r, "transactionID")
	if !ok {
		return
	}
	report, err := h.TACs.Reapply(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "reapply_failed", "failed to reapply transaction")
		return
	}
	api.Success(w, reportView(report), middleware.GetRequestID(r))
}

func (h *Handler) entriesFilter(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("transactionId"))
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		v := shared.NewValidator()
		v.Add("transactionId", "must be a positive number")
		v.Reject(w, middleware.GetRequestID(r))
		return nil, false
	}
	return &id, true
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.entriesFilter(w, r)
	if !ok {
		return
	}
	entries, err := h.TACs.ListEntries(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "entries_list_failed", "failed to list entries")
		return
	}
	if entries == nil {
		entries = []tac.AccountFileEntry{}
	}
	api.Success(w, map[string]any{"entries": entries, "totals": tac.Totals(entries)}, middleware.GetRequestID(r))
}

func (h *Handler) handleExportEntries(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.entriesFilter(w, r)
	if !ok {
		return
	}
	entries, err := h.TACs.ListEntries(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "export_failed", "failed to export entries")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=fise-cont-%s.csv", time.Now().UTC().Format("20060102")))
	if err := tac.WriteLedgerCSV(w, entries); err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("export entries write failed")
	}
}
