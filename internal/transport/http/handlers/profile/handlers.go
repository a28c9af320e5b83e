package profilehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"unifiedpro/internal/domain/audit"
	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/domain/profile"
	"unifiedpro/internal/transport/http/api"
	"unifiedpro/internal/transport/http/middleware"
	"unifiedpro/internal/transport/http/shared"
)

type Handler struct {
	Service *profile.Service
	Audit   audit.Recorder
	Perms   middleware.PermissionChecker
}

func NewHandler(service *profile.Service, recorder audit.Recorder, perms middleware.PermissionChecker) *Handler {
	return &Handler{Service: service, Audit: recorder, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermProfilesRead, h.Perms)
	write := middleware.RequirePermission(auth.PermProfilesWrite, h.Perms)

	r.Route("/profiles", func(r chi.Router) {
		r.With(read).Get("/employees", h.handleListEmployees)
		r.With(write).Post("/employees", h.handleCreateEmployee)
		r.With(read).Get("/employees/{id}", h.handleGetEmployee)
		r.With(write).Put("/employees/{id}", h.handleUpdateEmployee)

		r.With(read).Get("/basic", h.handleListBasic)
		r.With(write).Post("/basic", h.handleCreateBasic)
		r.With(write).Delete("/basic/{id}", h.handleDeleteBasic)
		r.With(read).Get("/basic/{id}/detailed", h.handleDetailed)
	})
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	list, err := h.Service.ListEmployees(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, reqID, "employees_list_failed", err)
		return
	}
	api.Success(w, list, reqID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.GetEmployee(r.Context(), user.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, reqID, "employees_get_failed", err)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	var payload profile.EmployeeInput
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	emp, err := h.Service.CreateEmployee(r.Context(), user.TenantID, payload)
	if err != nil {
		writeError(w, reqID, "employees_create_failed", err)
		return
	}
	shared.Audit(r, h.Audit, user, audit.ActionCreate, "employee", emp.ID, nil, emp)
	api.Created(w, emp, reqID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	var payload profile.EmployeeInput
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	id := chi.URLParam(r, "id")
	emp, err := h.Service.UpdateEmployee(r.Context(), user.TenantID, id, payload)
	if err != nil {
		writeError(w, reqID, "employees_update_failed", err)
		return
	}
	shared.Audit(r, h.Audit, user, audit.ActionUpdate, "employee", id, nil, emp)
	api.Success(w, emp, reqID)
}

func (h *Handler) handleListBasic(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	list, err := h.Service.ListBasicProfiles(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, reqID, "profiles_list_failed", err)
		return
	}
	api.Success(w, list, reqID)
}

func (h *Handler) handleCreateBasic(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	var payload profile.BasicProfileInput
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	b, err := h.Service.CreateBasicProfile(r.Context(), user.TenantID, payload)
	if err != nil {
		writeError(w, reqID, "profiles_create_failed", err)
		return
	}
	shared.Audit(r, h.Audit, user, audit.ActionCreate, "basic_profile", b.ID, nil, b)
	api.Created(w, b, reqID)
}

func (h *Handler) handleDeleteBasic(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Service.DeleteBasicProfile(r.Context(), user.TenantID, id); err != nil {
		writeError(w, reqID, "profiles_delete_failed", err)
		return
	}
	shared.Audit(r, h.Audit, user, audit.ActionDelete, "basic_profile", id, nil, nil)
	api.Success(w, map[string]string{"id": id}, reqID)
}

// handleDetailed serves the profile as edit mode loads it: employee,
// department, job type, current structure lines and deductions.
func (h *Handler) handleDetailed(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	d, err := h.Service.Detailed(r.Context(), user.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, reqID, "profiles_get_failed", err)
		return
	}
	api.Success(w, d, reqID)
}

func writeError(w http.ResponseWriter, reqID, code string, err error) {
	if shared.RejectInvalid(w, reqID, err) {
		return
	}
	switch {
	case errors.Is(err, profile.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, profile.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, profile.ErrInvalidReference):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", err.Error(), reqID)
	default:
		zap.L().Error("profile request failed", zap.String("code", code), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, code, "profile request failed", reqID)
	}
}
