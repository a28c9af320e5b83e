package audithandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unifiedpro/internal/domain/audit"
	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/transport/http/middleware"
)

type stubLister struct {
	filter   audit.Filter
	limit    int
	offset   int
	countErr error
	listErr  error
}

func (s *stubLister) Count(ctx context.Context, tenantID string, filter audit.Filter) (int, error) {
	return 42, s.countErr
}

func (s *stubLister) List(ctx context.Context, tenantID string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error) {
	s.filter, s.limit, s.offset = filter, limit, offset
	if s.listErr != nil {
		return nil, s.listErr
	}
	return []audit.Event{{ID: "a1", Action: audit.ActionCreate, EntityType: "salary_structure"}}, nil
}

func newRouter(t *testing.T, lister EventLister, role string) http.Handler {
	t.Helper()
	perms, err := auth.NewEnforcer(auth.RolePermissions)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: role})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(lister, perms).RegisterRoutes(r)
	return r
}

func TestListEvents(t *testing.T) {
	lister := &stubLister{}
	rec := httptest.NewRecorder()
	newRouter(t, lister, auth.RoleSystemAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events?action=create&entityType=salary_structure&limit=1000&offset=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("X-Total-Count"))
	assert.Contains(t, rec.Body.String(), `"id":"a1"`)
	assert.Equal(t, audit.Filter{Action: "create", EntityType: "salary_structure"}, lister.filter)
	assert.Equal(t, 500, lister.limit)
	assert.Equal(t, 5, lister.offset)
}

func TestListEventsCountFailureStillLists(t *testing.T) {
	lister := &stubLister{countErr: errors.New("timeout")}
	rec := httptest.NewRecorder()
	newRouter(t, lister, auth.RoleSystemAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, lister.limit)
}

func TestListEventsFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, &stubLister{listErr: errors.New("boom")}, auth.RoleSystemAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "audit_list_failed")
}

func TestHRCanReadAudit(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, &stubLister{}, auth.RoleHR).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestManagerCannotReadAudit(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, &stubLister{}, auth.RoleManager).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
