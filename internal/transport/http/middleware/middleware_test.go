package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/platform/metrics"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Fatal("expected request id in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected incoming request id to be kept, got %q", got)
	}
}

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", TenantID: "t1", RoleID: "r1", RoleName: auth.RoleHR}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	called := false
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UserID != "u1" || user.RoleName != auth.RoleHR {
			t.Fatalf("unexpected user: %+v", user)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestAuthMiddlewareIgnoresBadTokens(t *testing.T) {
	cases := []string{"", "Bearer", "Basic abc", "Bearer not-a-token"}
	for _, header := range cases {
		header := header
		t.Run(header, func(t *testing.T) {
			handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := GetUser(r.Context()); ok {
					t.Fatal("did not expect user in context")
				}
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
		})
	}
}

func TestRequireUser(t *testing.T) {
	handler := RequireUser(noContent())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(WithUser(context.Background(), auth.UserContext{UserID: "u1"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

type stubChecker struct {
	allowed bool
	err     error
	role    string
}

func (s *stubChecker) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	s.role = role
	return s.allowed, s.err
}

func TestRequirePermission(t *testing.T) {
	userCtx := WithUser(context.Background(), auth.UserContext{UserID: "u1", RoleName: auth.RoleManager})
	cases := []struct {
		name    string
		ctx     context.Context
		checker *stubChecker
		want    int
	}{
		{"anonymous", context.Background(), &stubChecker{allowed: true}, http.StatusUnauthorized},
		{"checker error", userCtx, &stubChecker{err: errors.New("boom")}, http.StatusInternalServerError},
		{"denied", userCtx, &stubChecker{}, http.StatusForbidden},
		{"allowed", userCtx, &stubChecker{allowed: true}, http.StatusNoContent},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			handler := RequirePermission(auth.PermStructuresWrite, tc.checker)(noContent())
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(tc.ctx))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRequirePermissionUsesRoleName(t *testing.T) {
	checker := &stubChecker{allowed: true}
	ctx := WithUser(context.Background(), auth.UserContext{UserID: "u1", RoleID: "uuid-1", RoleName: auth.RoleHR})
	RequirePermission(auth.PermCatalogRead, checker)(noContent()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	if checker.role != auth.RoleHR {
		t.Fatalf("expected role name, got %q", checker.role)
	}
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())
	userCtx := WithUser(context.Background(), auth.UserContext{TenantID: "tenant-1", UserID: "user-1"})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/salary/structures", nil).WithContext(userCtx)
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/salary/structures", nil).WithContext(userCtx)
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user key, got %d", secondRec.Code)
	}
	if secondRec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())

	first := httptest.NewRequest(http.MethodGet, "/api/v1/salary/catalog", nil)
	first.RemoteAddr = "203.0.113.10:4444"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/api/v1/salary/catalog", nil)
	second.RemoteAddr = "203.0.113.10:5555"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by ip key, got %d", secondRec.Code)
	}

	third := httptest.NewRequest(http.MethodGet, "/api/v1/salary/catalog", nil)
	third.Header.Set("X-Forwarded-For", "192.0.2.1, 10.0.0.1")
	third.RemoteAddr = "203.0.113.10:6666"
	thirdRec := httptest.NewRecorder()
	limited.ServeHTTP(thirdRec, third)
	if thirdRec.Code != http.StatusNoContent {
		t.Fatalf("expected forwarded client to have its own bucket, got %d", thirdRec.Code)
	}
}

func TestRateLimitRefills(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(noContent())
	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.20:1111"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}
	time.Sleep(60 * time.Millisecond)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected request after refill to pass, got %d", code)
	}
}

func TestSensitiveMutationRateLimitScope(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent())

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/salary/slips", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected read request %d to bypass sensitive limits, got %d", i+1, rec.Code)
		}
	}

	userCtx := WithUser(context.Background(), auth.UserContext{TenantID: "tenant-1", UserID: "hr-1"})
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/salary/slips/generate", nil).WithContext(userCtx)
		req.RemoteAddr = "198.51.100.41:9999"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if i < 2 && rec.Code != http.StatusNoContent {
			t.Fatalf("expected sensitive request %d to pass, got %d", i+1, rec.Code)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected third sensitive request to be throttled, got %d", rec.Code)
		}
	}
}

func TestLoginLimitedByEmail(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent())
	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"HR@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("192.0.2.1:1"); code != http.StatusNoContent {
		t.Fatalf("expected first login to pass, got %d", code)
	}
	if code := send("192.0.2.2:1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second login for same email to be throttled, got %d", code)
	}
}

func TestBodyLimit(t *testing.T) {
	handler := BodyLimit(8)(noContent())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"too long"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected reads to pass, got %d", rec.Code)
	}
}

func TestSecureHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(true)(noContent()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff header")
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS in production")
	}
}

func TestCORSAllowsDashboardOrigin(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"})(noContent())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/salary/catalog", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("expected origin to be allowed, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/salary/catalog", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("expected unknown origin to be refused")
	}
}

func TestLoggerRecordsMetrics(t *testing.T) {
	collector := metrics.New()
	handler := Logger(nil, collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	snap := collector.Snapshot()
	if snap["requestsTotal"] != uint64(1) || snap["errorsTotal"] != uint64(1) {
		t.Fatalf("unexpected metrics: %v", snap)
	}
}

type memoryIdempotency struct {
	mu      sync.Mutex
	entries map[string]struct {
		hash string
		resp StoredResponse
	}
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{entries: map[string]struct {
		hash string
		resp StoredResponse
	}{}}
}

func (m *memoryIdempotency) Check(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (StoredResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[tenantID+userID+endpoint+key]
	if !ok {
		return StoredResponse{}, false, nil
	}
	if entry.hash != requestHash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	return entry.resp, true, nil
}

func (m *memoryIdempotency) Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response StoredResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tenantID+userID+endpoint+key] = struct {
		hash string
		resp StoredResponse
	}{requestHash, response}
	return nil
}

func TestIdempotentReplaysAndRejectsConflicts(t *testing.T) {
	calls := 0
	handler := Idempotent(newMemoryIdempotency())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"p1"}}`))
	}))
	userCtx := WithUser(context.Background(), auth.UserContext{TenantID: "t1", UserID: "u1"})
	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/salary/structures", strings.NewReader(body)).WithContext(userCtx)
		req.Header.Set(IdempotencyKeyHeader, "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send(`{"employeeId":"p1"}`)
	if first.Code != http.StatusCreated || first.Header().Get(ReplayedHeader) != "" {
		t.Fatalf("expected fresh 201, got %d %q", first.Code, first.Header().Get(ReplayedHeader))
	}

	replay := send(`{"employeeId":"p1"}`)
	if replay.Code != http.StatusCreated || replay.Header().Get(ReplayedHeader) != "true" {
		t.Fatalf("expected replayed 201, got %d", replay.Code)
	}
	if replay.Body.String() != `{"success":true,"data":{"id":"p1"}}` {
		t.Fatalf("unexpected replay body: %s", replay.Body.String())
	}

	conflict := send(`{"employeeId":"p2"}`)
	if conflict.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", conflict.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, got %d", calls)
	}
}

func TestIdempotentReplayIsByteIdentical(t *testing.T) {
	handler := Idempotent(newMemoryIdempotency())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]string{"id": "p1"}})
	}))
	userCtx := WithUser(context.Background(), auth.UserContext{TenantID: "t1", UserID: "u1"})
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/salary/structures", strings.NewReader(`{"employeeId":"p1"}`)).WithContext(userCtx)
		req.Header.Set(IdempotencyKeyHeader, "key-newline")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	replay := send()
	if replay.Header().Get(ReplayedHeader) != "true" {
		t.Fatal("expected a replayed response")
	}
	if !bytes.Equal(first.Body.Bytes(), replay.Body.Bytes()) {
		t.Fatalf("expected identical bodies, got %q and %q", first.Body.String(), replay.Body.String())
	}
	if !bytes.HasSuffix(replay.Body.Bytes(), []byte("\n")) {
		t.Fatalf("expected the trailing newline to survive, got %q", replay.Body.String())
	}
}

func TestStoredResponseSurvivesJSONRoundTrip(t *testing.T) {
	in := StoredResponse{Status: http.StatusCreated, Body: []byte("{\"success\": true}\n")}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out StoredResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != in.Status || !bytes.Equal(out.Body, in.Body) {
		t.Fatalf("expected %q, got %q", in.Body, out.Body)
	}
}

func TestIdempotentSkipsFailures(t *testing.T) {
	store := newMemoryIdempotency()
	handler := Idempotent(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`)).WithContext(WithUser(context.Background(), auth.UserContext{TenantID: "t1", UserID: "u1"}))
	req.Header.Set(IdempotencyKeyHeader, "key-2")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if len(store.entries) != 0 {
		t.Fatal("expected failed response not to be stored")
	}
}
