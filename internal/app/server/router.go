package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"unifiedpro/internal/domain/audit"
	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/domain/profile"
	"unifiedpro/internal/domain/salary"
	"unifiedpro/internal/domain/slip"
	"unifiedpro/internal/platform/config"
	"unifiedpro/internal/platform/metrics"
	"unifiedpro/internal/transport/http/api"
	audithandler "unifiedpro/internal/transport/http/handlers/audit"
	authhandler "unifiedpro/internal/transport/http/handlers/auth"
	cataloghandler "unifiedpro/internal/transport/http/handlers/catalog"
	profilehandler "unifiedpro/internal/transport/http/handlers/profile"
	salaryhandler "unifiedpro/internal/transport/http/handlers/salary"
	sliphandler "unifiedpro/internal/transport/http/handlers/slip"
	"unifiedpro/internal/transport/http/middleware"
)

// AuditTrail both records and lists audit events.
type AuditTrail interface {
	audit.Recorder
	audithandler.EventLister
}

// Services is everything the router dispatches to.
type Services struct {
	Auth        authhandler.Authenticator
	Catalog     *catalog.Service
	Profiles    *profile.Service
	Structures  *salary.Service
	Slips       *slip.Service
	Audit       AuditTrail
	Idempotency middleware.IdempotencyStorer
	Perms       middleware.PermissionChecker
	Metrics     *metrics.Collector
	Ready       func(ctx context.Context) error
}

// NewRouter builds the HTTP surface: health checks, metrics and the
// versioned API behind the shared middleware chain.
func NewRouter(cfg config.Config, logger *zap.Logger, s Services) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger, s.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := s.Ready(ctx); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.With(middleware.RequirePermission(auth.PermSystemAdmin, s.Perms)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, s.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(s.Auth, s.Audit).RegisterRoutes(r)
		cataloghandler.NewHandler(s.Catalog, s.Structures, s.Audit, s.Perms).RegisterRoutes(r)
		profilehandler.NewHandler(s.Profiles, s.Audit, s.Perms).RegisterRoutes(r)
		salaryhandler.NewHandler(s.Structures, s.Idempotency, s.Audit, s.Metrics, s.Perms).RegisterRoutes(r)
		sliphandler.NewHandler(s.Slips, s.Idempotency, s.Audit, s.Metrics, s.Perms).RegisterRoutes(r)
		audithandler.NewHandler(s.Audit, s.Perms).RegisterRoutes(r)
	})

	return router
}
