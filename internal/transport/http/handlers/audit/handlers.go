package audithandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"unifiedpro/internal/domain/audit"
	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/transport/http/api"
	"unifiedpro/internal/transport/http/middleware"
	"unifiedpro/internal/transport/http/shared"
)

// EventLister reads the audit trail of a tenant.
type EventLister interface {
	Count(ctx context.Context, tenantID string, filter audit.Filter) (int, error)
	List(ctx context.Context, tenantID string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Service EventLister
	Perms   middleware.PermissionChecker
}

func NewHandler(service EventLister, perms middleware.PermissionChecker) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/events", h.handleListEvents)
	})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page := shared.ParsePagination(r, 100, 500)
	filter := audit.Filter{Action: q.Get("action"), EntityType: q.Get("entityType"), ActorUser: q.Get("actorUserId")}
	includeDetails := q.Get("includeDetails") == "true"

	total, err := h.Service.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		zap.L().Warn("audit count failed", zap.String("tenant_id", user.TenantID), zap.Error(err))
	}

	events, err := h.Service.List(r.Context(), user.TenantID, filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		zap.L().Error("audit list failed", zap.String("tenant_id", user.TenantID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, reqID)
}
