package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dhaval110/social-media-backend/internal/api"
	"github.com/dhaval110/social-media-backend/internal/auth"
	"github.com/dhaval110/social-media-backend/internal/observability/metrics"
	"github.com/dhaval110/social-media-backend/internal/storage"
)

func newTestServer(t *testing.T, rateLimit RateLimitConfig) (*Server, *api.Handler) {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	handler := api.NewHandler(storage.NewMemoryRepository(), tokens)
	handler.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := New(handler, Config{
		Addr:      ":0",
		RateLimit: rateLimit,
		Metrics:   metrics.New(),
		Logger:    handler.Logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { srv.rateLimiter.Close() })
	return srv, handler
}

func responseMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload["message"]
}

func signupToken(t *testing.T, srv *Server, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("signup failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return resp.Token
}

func TestGatewayRejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t, RateLimitConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := responseMessage(t, rec); got != "no token provided" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestGatewayRejectsMalformedHeader(t *testing.T) {
	srv, _ := newTestServer(t, RateLimitConfig{})

	cases := []struct {
		name   string
		header string
	}{
		{name: "wrong scheme", header: "Basic abc123"},
		{name: "no scheme", header: "justatoken"},
		{name: "empty credentials", header: "Bearer "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			req.Header.Set("Authorization", tc.header)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if got := responseMessage(t, rec); got != "invalid token format" {
				t.Fatalf("unexpected message %q", got)
			}
		})
	}
}

func TestGatewayRejectsInvalidToken(t *testing.T) {
	srv, _ := newTestServer(t, RateLimitConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := responseMessage(t, rec); got != "invalid token" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestGatewayAdmitsValidToken(t *testing.T) {
	srv, _ := newTestServer(t, RateLimitConfig{})
	token := signupToken(t, srv, "ada@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGatewaySkipsPublicRoutes(t *testing.T) {
	srv, _ := newTestServer(t, RateLimitConfig{})

	// Auth endpoints and health are reachable without a token. The auth
	// routes answer with their own validation errors, never the gateway's.
	paths := []struct {
		method string
		path   string
		status int
	}{
		{method: http.MethodGet, path: "/", status: http.StatusOK},
		{method: http.MethodGet, path: "/healthz", status: http.StatusOK},
		{method: http.MethodPost, path: "/api/auth/login", status: http.StatusBadRequest},
		{method: http.MethodGet, path: "/reset-redirect?token=abc", status: http.StatusFound},
	}
	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader([]byte("{}")))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d: %s", tc.method, tc.path, tc.status, rec.Code, rec.Body.String())
		}
	}
}

func TestLoginRateLimitPerIP(t *testing.T) {
	srv, _ := newTestServer(t, RateLimitConfig{LoginLimit: 2, LoginWindow: time.Minute})

	attempt := func(ip string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"email": "a@x.com", "password": "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := attempt("10.0.0.1"); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}
	rec := attempt("10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := responseMessage(t, rec); got != "too many login attempts" {
		t.Fatalf("unexpected message %q", got)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	// A different client IP is not throttled.
	if rec := attempt("10.0.0.2"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected fresh IP to pass the limiter, got %d", rec.Code)
	}
}

func TestGlobalRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, RateLimitConfig{GlobalRPS: 0.001, GlobalBurst: 1})

	first := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request through, got %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, second)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := responseMessage(t, rec); got != "too many requests" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t, RateLimitConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	headers := map[string]string{
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"X-Content-Type-Options": "nosniff",
	}
	for name, want := range headers {
		if got := rec.Header().Get(name); got != want {
			t.Fatalf("%s: expected %q, got %q", name, want, got)
		}
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv, _ := newTestServer(t, RateLimitConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("expected inbound request id echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	srv, _ := newTestServer(t, RateLimitConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := `socialapi_http_requests_total{method="GET",path="/healthz",status="200"} 1`
	if !bytes.Contains(rec.Body.Bytes(), []byte(want)) {
		t.Fatalf("expected %q in exposition, got:\n%s", want, rec.Body.String())
	}
}

func TestAuditEntriesCarryUserID(t *testing.T) {
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	handler := api.NewHandler(storage.NewMemoryRepository(), tokens)
	handler.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	var auditBuf bytes.Buffer
	srv, err := New(handler, Config{
		Addr:        ":0",
		Metrics:     metrics.New(),
		Logger:      handler.Logger,
		AuditLogger: slog.New(slog.NewJSONHandler(&auditBuf, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	token := signupToken(t, srv, "ada@example.com")
	user, err := handler.Store.GetUserByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/videos/missing/like", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}

	if !bytes.Contains(auditBuf.Bytes(), []byte(`"user_id":"`+user.ID+`"`)) {
		t.Fatalf("expected audit entry with user_id %q, got:\n%s", user.ID, auditBuf.String())
	}
}

func TestNewRequiresHandlerAndTokens(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Fatal("expected error for nil handler")
	}
	if _, err := New(&api.Handler{}, Config{}); err == nil {
		t.Fatal("expected error for missing token manager")
	}
}

func TestTokenBucket(t *testing.T) {
	bucket := newTokenBucket(0.001, 2)
	if !bucket.Allow() || !bucket.Allow() {
		t.Fatal("expected the burst capacity to be spendable")
	}
	if bucket.Allow() {
		t.Fatal("expected the bucket to be exhausted")
	}
}

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(*http.Request)
		remote string
		want   string
	}{
		{
			name:   "forwarded-for wins",
			setup:  func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1") },
			remote: "192.0.2.1:1234",
			want:   "203.0.113.7",
		},
		{
			name:   "real-ip fallback",
			setup:  func(r *http.Request) { r.Header.Set("X-Real-IP", "203.0.113.9") },
			remote: "192.0.2.1:1234",
			want:   "203.0.113.9",
		},
		{
			name:   "remote addr",
			setup:  func(r *http.Request) {},
			remote: "192.0.2.1:1234",
			want:   "192.0.2.1",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			tc.setup(req)
			if got := extractClientIP(req); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
