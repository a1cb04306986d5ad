package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		name string
		path string
		want string
	}{
		{name: "root", path: "/", want: "/"},
		{name: "empty", path: "", want: "/"},
		{name: "collection", path: "/api/videos", want: "/api/videos"},
		{name: "uuid segment", path: "/api/videos/0b92a1de-5c93-4a86-9f1a-2f6f7f0f1c2d", want: "/api/videos/:id"},
		{name: "subresource kept", path: "/api/videos/0b92a1de-5c93-4a86-9f1a-2f6f7f0f1c2d/comments", want: "/api/videos/:id/comments"},
		{name: "trailing slash", path: "/api/users/", want: "/api/users"},
		{name: "digit heavy segment", path: "/api/users/u123456", want: "/api/users/:id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePath(tc.path); got != tc.want {
				t.Fatalf("normalizePath(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestWriteRendersCounters(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest("get", "/api/videos", 200, 40*time.Millisecond)
	recorder.ObserveRequest("GET", "/api/videos", 200, 60*time.Millisecond)
	recorder.ObserveAuthEvent("signup")
	recorder.ObserveAuthEvent("LOGIN")
	recorder.ObserveUpload("video")
	recorder.ObserveEngagement("like")
	recorder.ObserveMailDelivery(true)
	recorder.ObserveMailDelivery(false)

	var buf bytes.Buffer
	recorder.Write(&buf)
	output := buf.String()

	expectations := []string{
		`socialapi_http_requests_total{method="GET",path="/api/videos",status="200"} 2`,
		`socialapi_http_request_duration_seconds_count{method="GET",path="/api/videos",status="200"} 2`,
		`socialapi_auth_events_total{event="signup"} 1`,
		`socialapi_auth_events_total{event="login"} 1`,
		`socialapi_media_uploads_total{kind="video"} 1`,
		`socialapi_engagement_events_total{event="like"} 1`,
		`socialapi_mail_deliveries_total{result="sent"} 1`,
		`socialapi_mail_deliveries_total{result="failed"} 1`,
	}
	for _, line := range expectations {
		if !strings.Contains(output, line) {
			t.Fatalf("expected output to contain %q, got:\n%s", line, output)
		}
	}
}

func TestResetClearsCounters(t *testing.T) {
	recorder := New()
	recorder.ObserveAuthEvent("signup")
	recorder.Reset()
	if counts := recorder.AuthEventCounts(); len(counts) != 0 {
		t.Fatalf("expected empty counters after reset, got %v", counts)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest("GET", "/healthz", 200, time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "socialapi_http_requests_total") {
		t.Fatalf("expected request counters in exposition, got:\n%s", rec.Body.String())
	}
}

func TestHTTPMiddlewareRecordsStatus(t *testing.T) {
	recorder := New()
	handler := HTTPMiddleware(recorder, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/videos/missing-0123456789", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var buf bytes.Buffer
	recorder.Write(&buf)
	want := `socialapi_http_requests_total{method="GET",path="/api/videos/:id",status="404"} 1`
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("expected %q in exposition, got:\n%s", want, buf.String())
	}
}
