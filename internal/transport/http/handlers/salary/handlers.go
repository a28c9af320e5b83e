package salaryhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"unifiedpro/internal/domain/audit"
	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/domain/salary"
	"unifiedpro/internal/platform/metrics"
	"unifiedpro/internal/transport/http/api"
	"unifiedpro/internal/transport/http/middleware"
	"unifiedpro/internal/transport/http/shared"
)

type Handler struct {
	Service     *salary.Service
	Idempotency middleware.IdempotencyStorer
	Audit       audit.Recorder
	Metrics     *metrics.Collector
	Perms       middleware.PermissionChecker
}

func NewHandler(service *salary.Service, idempotency middleware.IdempotencyStorer, recorder audit.Recorder, collector *metrics.Collector, perms middleware.PermissionChecker) *Handler {
	return &Handler{Service: service, Idempotency: idempotency, Audit: recorder, Metrics: collector, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermStructuresRead, h.Perms)
	write := middleware.RequirePermission(auth.PermStructuresWrite, h.Perms)
	idem := middleware.Idempotent(h.Idempotency)

	r.Route("/salary/structures", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write, idem).Post("/", h.handleCreate)
		r.With(write, idem).Put("/bulk", h.handleUpdateBulk)
		r.With(read).Post("/preview", h.handlePreview)
		r.With(read).Get("/{profileID}", h.handleGet)
		r.With(write).Delete("/{profileID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	items, err := h.Service.List(r.Context(), user.TenantID)
	if err != nil {
		zap.L().Error("list salary structures failed", zap.String("tenant_id", user.TenantID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "structures_list_failed", "failed to list salary structures", reqID)
		return
	}
	if items == nil {
		items = []salary.Structure{}
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	st, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "profileID"))
	if err != nil {
		if errors.Is(err, salary.ErrStructureNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "structures_get_failed", "failed to load salary structure", reqID)
		return
	}
	api.Success(w, st, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, false)
}

func (h *Handler) handleUpdateBulk(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, true)
}

// submit saves a structure. Create refuses a profile that already has one;
// bulk update replaces every line of an existing one.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, replace bool) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	var payload salary.SubmitRequest
	if err := api.Decode(r, &payload); err != nil {
		h.Metrics.Inc(metrics.StructuresRejected)
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	var before any
	if replace {
		if existing, err := h.Service.Get(r.Context(), user.TenantID, payload.ProfileID); err == nil {
			before = existing
		}
	}

	var (
		result salary.SubmitResult
		err    error
	)
	if replace {
		result, err = h.Service.UpdateBulk(r.Context(), user.TenantID, payload)
	} else {
		result, err = h.Service.Create(r.Context(), user.TenantID, payload)
	}
	if err != nil {
		h.Metrics.Inc(metrics.StructuresRejected)
		writeSubmitError(w, reqID, replace, err)
		return
	}

	if replace {
		h.Metrics.Inc(metrics.StructuresUpdated)
		shared.Audit(r, h.Audit, user, audit.ActionUpdate, "salary_structure", result.ProfileID, before, result)
		api.Success(w, result, reqID)
		return
	}
	h.Metrics.Inc(metrics.StructuresCreated)
	shared.Audit(r, h.Audit, user, audit.ActionCreate, "salary_structure", result.ProfileID, nil, result)
	api.Created(w, result, reqID)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	var payload salary.SubmitRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	totals, err := h.Service.Preview(r.Context(), user.TenantID, payload)
	if err != nil {
		if shared.RejectInvalid(w, reqID, err) || rejectField(w, reqID, err) {
			return
		}
		zap.L().Error("structure preview failed", zap.String("tenant_id", user.TenantID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "structures_preview_failed", "failed to compute totals", reqID)
		return
	}
	api.Success(w, totals, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	profileID := chi.URLParam(r, "profileID")
	if err := h.Service.Delete(r.Context(), user.TenantID, profileID); err != nil {
		if errors.Is(err, salary.ErrStructureNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "structures_delete_failed", "failed to delete salary structure", reqID)
		return
	}
	shared.Audit(r, h.Audit, user, audit.ActionDelete, "salary_structure", profileID, nil, nil)
	api.Success(w, map[string]string{"basicProfileId": profileID}, reqID)
}

func rejectField(w http.ResponseWriter, reqID string, err error) bool {
	var fieldErr *salary.FieldError
	if !errors.As(err, &fieldErr) {
		return false
	}
	shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: fieldErr.Field, Reason: fieldErr.Reason}})
	return true
}

func writeSubmitError(w http.ResponseWriter, reqID string, replace bool, err error) {
	if shared.RejectInvalid(w, reqID, err) || rejectField(w, reqID, err) {
		return
	}
	switch {
	case salary.IsGateError(err):
		api.Fail(w, http.StatusUnprocessableEntity, "incomplete_structure", salary.UserMessage(err), reqID)
	case errors.Is(err, salary.ErrStructureExists):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, salary.ErrStructureNotFound), errors.Is(err, salary.ErrProfileNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, salary.ErrUnknownComponent):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", err.Error(), reqID)
	default:
		code, message := "structures_create_failed", salary.MessageCreateFailed
		if replace {
			code, message = "structures_update_failed", salary.MessageUpdateFailed
		}
		zap.L().Error("salary structure submit failed", zap.String("code", code), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
