package cataloghandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"unifiedpro/internal/domain/audit"
	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/domain/salary"
	"unifiedpro/internal/transport/http/api"
	"unifiedpro/internal/transport/http/middleware"
	"unifiedpro/internal/transport/http/shared"
)

// StructureReader loads the saved structure used to fill current amounts.
type StructureReader interface {
	Get(ctx context.Context, tenantID, profileID string) (salary.Structure, error)
}

type Handler struct {
	Catalog    *catalog.Service
	Structures StructureReader
	Audit      audit.Recorder
	Perms      middleware.PermissionChecker
}

func NewHandler(service *catalog.Service, structures StructureReader, recorder audit.Recorder, perms middleware.PermissionChecker) *Handler {
	return &Handler{Catalog: service, Structures: structures, Audit: recorder, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermCatalogRead, h.Perms)).Get("/salary/catalog", h.handleSnapshot)
	mount(h, r, "/salary/pay-grades", "pay_grade", h.Catalog.PayGrades)
	mount(h, r, "/salary/components", "salary_component", h.Catalog.Components)
	mount(h, r, "/salary/pay-frequencies", "pay_frequency", h.Catalog.PayFrequencies)
	mount(h, r, "/salary/deductions", "deduction", h.Catalog.Deductions)
	mount(h, r, "/salary/job-types", "job_type", h.Catalog.JobTypes)
	mount(h, r, "/salary/departments", "department", h.Catalog.Departments)
}

// handleSnapshot serves the catalog a structure builder chooses from. With
// ?profileId= the components carry the amounts of that profile's saved
// structure.
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}

	snapshot, err := h.Catalog.Snapshot(r.Context(), user.TenantID)
	if err != nil {
		zap.L().Error("catalog snapshot failed", zap.String("tenant_id", user.TenantID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "catalog_load_failed", "failed to load salary catalog", reqID)
		return
	}

	if profileID := r.URL.Query().Get("profileId"); profileID != "" && h.Structures != nil {
		st, err := h.Structures.Get(r.Context(), user.TenantID, profileID)
		switch {
		case err == nil:
			current := make(map[string]float64, len(st.Components))
			for _, line := range st.Components {
				current[line.ComponentID] = line.Amount
			}
			snapshot = snapshot.WithCurrent(current)
		case errors.Is(err, salary.ErrStructureNotFound):
		default:
			api.Fail(w, http.StatusInternalServerError, "catalog_load_failed", "failed to load current structure", reqID)
			return
		}
	}

	api.Success(w, snapshot, reqID)
}

type entity[In any] interface {
	EntityID() string
	Input() In
}

// mount registers list, get, create, patch and delete for one catalog
// resource under path.
func mount[T entity[In], In any](h *Handler, r chi.Router, path, entityType string, res *catalog.Resource[T, In]) {
	read := middleware.RequirePermission(auth.PermCatalogRead, h.Perms)
	write := middleware.RequirePermission(auth.PermCatalogWrite, h.Perms)
	area := entityType + "s"

	r.With(read).Get(path, func(w http.ResponseWriter, r *http.Request) {
		user, reqID, ok := shared.Caller(w, r)
		if !ok {
			return
		}
		items, err := res.List(r.Context(), user.TenantID)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, area+"_list_failed", "failed to list "+area, reqID)
			return
		}
		api.Success(w, items, reqID)
	})

	r.With(read).Get(path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		user, reqID, ok := shared.Caller(w, r)
		if !ok {
			return
		}
		item, err := res.Get(r.Context(), user.TenantID, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, reqID, area+"_get_failed", err)
			return
		}
		api.Success(w, item, reqID)
	})

	r.With(write).Post(path, func(w http.ResponseWriter, r *http.Request) {
		user, reqID, ok := shared.Caller(w, r)
		if !ok {
			return
		}
		var in In
		if err := api.Decode(r, &in); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
			return
		}
		item, err := res.Create(r.Context(), user.TenantID, in)
		if err != nil {
			writeError(w, reqID, area+"_create_failed", err)
			return
		}
		shared.Audit(r, h.Audit, user, audit.ActionCreate, entityType, item.EntityID(), nil, item)
		api.Created(w, item, reqID)
	})

	r.With(write).Patch(path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		user, reqID, ok := shared.Caller(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		existing, err := res.Get(r.Context(), user.TenantID, id)
		if err != nil {
			writeError(w, reqID, area+"_update_failed", err)
			return
		}
		in := existing.Input()
		if err := api.Decode(r, &in); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
			return
		}
		item, err := res.Update(r.Context(), user.TenantID, id, in)
		if err != nil {
			writeError(w, reqID, area+"_update_failed", err)
			return
		}
		shared.Audit(r, h.Audit, user, audit.ActionUpdate, entityType, id, existing, item)
		api.Success(w, item, reqID)
	})

	r.With(write).Delete(path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		user, reqID, ok := shared.Caller(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		if err := res.Delete(r.Context(), user.TenantID, id); err != nil {
			writeError(w, reqID, area+"_delete_failed", err)
			return
		}
		shared.Audit(r, h.Audit, user, audit.ActionDelete, entityType, id, nil, nil)
		api.Success(w, map[string]string{"id": id}, reqID)
	})
}

func writeError(w http.ResponseWriter, reqID, code string, err error) {
	if shared.RejectInvalid(w, reqID, err) {
		return
	}
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, catalog.ErrInUse), errors.Is(err, catalog.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	default:
		zap.L().Error("catalog request failed", zap.String("code", code), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, code, "catalog request failed", reqID)
	}
}
