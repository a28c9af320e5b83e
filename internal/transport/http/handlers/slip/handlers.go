package sliphandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"unifiedpro/internal/domain/audit"
	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/domain/slip"
	"unifiedpro/internal/platform/metrics"
	"unifiedpro/internal/transport/http/api"
	"unifiedpro/internal/transport/http/middleware"
	"unifiedpro/internal/transport/http/shared"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

type Handler struct {
	Service     *slip.Service
	Idempotency middleware.IdempotencyStorer
	Audit       audit.Recorder
	Metrics     *metrics.Collector
	Perms       middleware.PermissionChecker
}

func NewHandler(service *slip.Service, idempotency middleware.IdempotencyStorer, recorder audit.Recorder, collector *metrics.Collector, perms middleware.PermissionChecker) *Handler {
	return &Handler{Service: service, Idempotency: idempotency, Audit: recorder, Metrics: collector, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermSlipsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermSlipsWrite, h.Perms)
	idem := middleware.Idempotent(h.Idempotency)

	r.Route("/salary/slips", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(read).Get("/summary", h.handleSummary)
		r.With(read).Get("/export.xlsx", h.handleExport)
		r.With(write, idem).Post("/generate", h.handleGenerate)
		r.With(read).Get("/{id}", h.handleGet)
		r.With(read).Get("/{id}/pdf", h.handlePDF)
		r.With(write, idem).Post("/{id}/paid", h.handleMarkPaid)
	})
}

type listResponse struct {
	Slips   []slip.Slip  `json:"slips"`
	Summary slip.Summary `json:"summary"`
	Months  []string     `json:"months"`
}

func filterFrom(r *http.Request) slip.Filter {
	q := r.URL.Query()
	return slip.Filter{Query: q.Get("query"), Month: q.Get("month"), Status: q.Get("status")}
}

// handleList returns the filtered slips. Summary and months always describe
// every slip of the tenant so the cards do not move with the filters.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	slips, summary, months, err := h.Service.List(r.Context(), user.TenantID, filterFrom(r))
	if err != nil {
		writeError(w, reqID, "slips_list_failed", err)
		return
	}
	if slips == nil {
		slips = []slip.Slip{}
	}
	if months == nil {
		months = []string{}
	}
	api.Success(w, listResponse{Slips: slips, Summary: summary, Months: months}, reqID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.Summary(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, reqID, "slips_summary_failed", err)
		return
	}
	api.Success(w, summary, reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	slips, _, _, err := h.Service.List(r.Context(), user.TenantID, filterFrom(r))
	if err != nil {
		writeError(w, reqID, "slips_export_failed", err)
		return
	}
	data, err := slip.Register(slips)
	if err != nil {
		writeError(w, reqID, "slips_export_failed", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=salary-slips.xlsx")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	sl, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, reqID, "slips_get_failed", err)
		return
	}
	api.Success(w, sl, reqID)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	sl, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, reqID, "slips_pdf_failed", err)
		return
	}
	data, err := slip.PDF(sl)
	if err != nil {
		writeError(w, reqID, "slips_pdf_failed", err)
		return
	}
	w.Header().Set("Content-Type", pdfContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=salary-slip-"+sl.ID+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	var payload slip.GenerateRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	result, err := h.Service.Generate(r.Context(), user.TenantID, payload)
	if err != nil {
		writeError(w, reqID, "slips_generate_failed", err)
		return
	}
	shared.Audit(r, h.Audit, user, audit.ActionGenerate, "salary_slip", result.From, nil, result)
	if result.Queued {
		api.WriteJSON(w, http.StatusAccepted, api.Envelope{Success: true, Data: result, RequestID: reqID})
		return
	}
	h.Metrics.Add(metrics.SlipsGenerated, uint64(result.Generated))
	api.Success(w, result, reqID)
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	sl, err := h.Service.MarkPaid(r.Context(), user.TenantID, id)
	if err != nil {
		writeError(w, reqID, "slips_mark_paid_failed", err)
		return
	}
	h.Metrics.Inc(metrics.SlipsPaid)
	shared.Audit(r, h.Audit, user, audit.ActionMarkPaid, "salary_slip", id, map[string]string{"status": slip.StatusDraft}, map[string]string{"status": sl.Status})
	api.Success(w, sl, reqID)
}

func writeError(w http.ResponseWriter, reqID, code string, err error) {
	if shared.RejectInvalid(w, reqID, err) {
		return
	}
	switch {
	case errors.Is(err, slip.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, slip.ErrAlreadyPaid):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, slip.ErrInvalidMonth):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "month", Reason: err.Error()}})
	case errors.Is(err, slip.ErrInvalidPeriod):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "to", Reason: err.Error()}})
	case errors.Is(err, slip.ErrNoStructures):
		api.Fail(w, http.StatusUnprocessableEntity, "no_structures", err.Error(), reqID)
	case errors.Is(err, slip.ErrQueueFull):
		api.Fail(w, http.StatusServiceUnavailable, "queue_full", err.Error(), reqID)
	default:
		zap.L().Error("salary slip request failed", zap.String("code", code), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, code, "salary slip request failed", reqID)
	}
}
