package shared

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"unifiedpro/internal/domain/audit"
	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/transport/http/api"
	"unifiedpro/internal/transport/http/middleware"
)

// Caller returns the authenticated user and the request id, or writes a
// 401 and reports false.
func Caller(w http.ResponseWriter, r *http.Request) (auth.UserContext, string, bool) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return auth.UserContext{}, reqID, false
	}
	return user, reqID, true
}

// Audit records one event for the caller. Failures are logged, not returned.
func Audit(r *http.Request, recorder audit.Recorder, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	entry := audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      after,
	}
	if err := recorder.Record(context.WithoutCancel(r.Context()), entry); err != nil {
		zap.L().Warn("audit record failed",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}
