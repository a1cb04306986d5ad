package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type requestLabel struct {
	method string
	path   string
	status string
}

// Recorder aggregates in-memory counters for HTTP traffic and domain events:
// auth flow outcomes, media uploads, engagement actions, and mail delivery.
// Writers are coordinated via a RWMutex so handlers can record concurrently.
type Recorder struct {
	mu               sync.RWMutex
	requestCount     map[requestLabel]uint64
	requestDuration  map[requestLabel]time.Duration
	authEvents       map[string]uint64
	uploadEvents     map[string]uint64
	engagementEvents map[string]uint64
	mailEvents       map[string]uint64
}

var defaultRecorder = New()

// New constructs an empty Recorder with initialized backing maps so callers
// can record immediately without additional setup.
func New() *Recorder {
	return &Recorder{
		requestCount:     make(map[requestLabel]uint64),
		requestDuration:  make(map[requestLabel]time.Duration),
		authEvents:       make(map[string]uint64),
		uploadEvents:     make(map[string]uint64),
		engagementEvents: make(map[string]uint64),
		mailEvents:       make(map[string]uint64),
	}
}

// Default returns the singleton Recorder shared by the package-level helpers.
func Default() *Recorder {
	return defaultRecorder
}

// ObserveRequest normalizes the request label set and accumulates totals for
// request count and cumulative duration by HTTP method, normalized path, and
// status code.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	label := requestLabel{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
		status: fmt.Sprintf("%d", status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// ObserveAuthEvent records an auth flow outcome keyed by event name
// (e.g. "signup", "login", "google_login", "reset_request", "reset_complete").
func (r *Recorder) ObserveAuthEvent(event string) {
	name := normalizeName(event)
	r.mu.Lock()
	r.authEvents[name]++
	r.mu.Unlock()
}

// ObserveUpload records a stored media object keyed by kind
// (e.g. "video", "thumbnail", "profile_picture").
func (r *Recorder) ObserveUpload(kind string) {
	name := normalizeName(kind)
	r.mu.Lock()
	r.uploadEvents[name]++
	r.mu.Unlock()
}

// ObserveEngagement records an engagement action keyed by event name
// (e.g. "like", "unlike", "comment").
func (r *Recorder) ObserveEngagement(event string) {
	name := normalizeName(event)
	r.mu.Lock()
	r.engagementEvents[name]++
	r.mu.Unlock()
}

// ObserveMailDelivery records one outbound email attempt by result.
func (r *Recorder) ObserveMailDelivery(sent bool) {
	result := "sent"
	if !sent {
		result = "failed"
	}
	r.mu.Lock()
	r.mailEvents[result]++
	r.mu.Unlock()
}

// AuthEventCounts returns a copy of the auth event counters for reporting and
// tests.
func (r *Recorder) AuthEventCounts() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make(map[string]uint64, len(r.authEvents))
	for k, v := range r.authEvents {
		events[k] = v
	}
	return events
}

// Reset clears all counters on the recorder. It is intended for test setups.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestCount = make(map[requestLabel]uint64)
	r.requestDuration = make(map[requestLabel]time.Duration)
	r.authEvents = make(map[string]uint64)
	r.uploadEvents = make(map[string]uint64)
	r.engagementEvents = make(map[string]uint64)
	r.mailEvents = make(map[string]uint64)
}

// Handler exposes the Recorder as an http.Handler that writes Prometheus text
// exposition data with the appropriate content type.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.Write(w)
	})
}

// Write renders the Recorder's metrics in Prometheus text format, sorting
// label sets to provide stable output for scrapes and tests.
func (r *Recorder) Write(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requestLabels := r.sortedRequestLabels()

	fmt.Fprintln(w, "# HELP socialapi_http_requests_total Total number of HTTP requests processed by the API")
	fmt.Fprintln(w, "# TYPE socialapi_http_requests_total counter")
	for _, label := range requestLabels {
		count := r.requestCount[label]
		fmt.Fprintf(w, "socialapi_http_requests_total{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, count)
	}

	fmt.Fprintln(w, "# HELP socialapi_http_request_duration_seconds_sum Cumulative duration of HTTP requests in seconds")
	fmt.Fprintln(w, "# TYPE socialapi_http_request_duration_seconds_sum counter")
	for _, label := range requestLabels {
		duration := r.requestDuration[label].Seconds()
		fmt.Fprintf(w, "socialapi_http_request_duration_seconds_sum{method=\"%s\",path=\"%s\",status=\"%s\"} %f\n", label.method, label.path, label.status, duration)
	}

	fmt.Fprintln(w, "# HELP socialapi_http_request_duration_seconds_count Total number of observations for request durations")
	fmt.Fprintln(w, "# TYPE socialapi_http_request_duration_seconds_count counter")
	for _, label := range requestLabels {
		count := r.requestCount[label]
		fmt.Fprintf(w, "socialapi_http_request_duration_seconds_count{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, count)
	}

	fmt.Fprintln(w, "# HELP socialapi_auth_events_total Auth flow outcomes by event")
	fmt.Fprintln(w, "# TYPE socialapi_auth_events_total counter")
	for _, event := range sortedKeys(r.authEvents) {
		fmt.Fprintf(w, "socialapi_auth_events_total{event=\"%s\"} %d\n", event, r.authEvents[event])
	}

	fmt.Fprintln(w, "# HELP socialapi_media_uploads_total Stored media objects by kind")
	fmt.Fprintln(w, "# TYPE socialapi_media_uploads_total counter")
	for _, kind := range sortedKeys(r.uploadEvents) {
		fmt.Fprintf(w, "socialapi_media_uploads_total{kind=\"%s\"} %d\n", kind, r.uploadEvents[kind])
	}

	fmt.Fprintln(w, "# HELP socialapi_engagement_events_total Likes, unlikes, and comments")
	fmt.Fprintln(w, "# TYPE socialapi_engagement_events_total counter")
	for _, event := range sortedKeys(r.engagementEvents) {
		fmt.Fprintf(w, "socialapi_engagement_events_total{event=\"%s\"} %d\n", event, r.engagementEvents[event])
	}

	fmt.Fprintln(w, "# HELP socialapi_mail_deliveries_total Outbound email attempts by result")
	fmt.Fprintln(w, "# TYPE socialapi_mail_deliveries_total counter")
	for _, result := range sortedKeys(r.mailEvents) {
		fmt.Fprintf(w, "socialapi_mail_deliveries_total{result=\"%s\"} %d\n", result, r.mailEvents[result])
	}
}

func (r *Recorder) sortedRequestLabels() []requestLabel {
	labels := make([]requestLabel, 0, len(r.requestCount))
	for label := range r.requestCount {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].method != labels[j].method {
			return labels[i].method < labels[j].method
		}
		if labels[i].path != labels[j].path {
			return labels[i].path < labels[j].path
		}
		return labels[i].status < labels[j].status
	})
	return labels
}

func sortedKeys(counters map[string]uint64) []string {
	keys := make([]string, 0, len(counters))
	for key := range counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// normalizePath collapses record identifiers in path segments so the label
// cardinality stays bounded across users and videos.
func normalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if looksLikeIdentifier(part) {
			parts[i] = ":id"
		}
	}
	normalized := strings.Join(parts, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if strings.HasSuffix(normalized, "/") && len(normalized) > 1 {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized
}

func looksLikeIdentifier(segment string) bool {
	if len(segment) >= 16 {
		return true
	}
	digitCount := 0
	for _, r := range segment {
		if r >= '0' && r <= '9' {
			digitCount++
		}
	}
	return digitCount >= 3
}

func normalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

// ObserveRequest is a helper on the default recorder.
func ObserveRequest(method, path string, status int, duration time.Duration) {
	defaultRecorder.ObserveRequest(method, path, status, duration)
}

// ObserveAuthEvent records an auth flow outcome on the default recorder.
func ObserveAuthEvent(event string) {
	defaultRecorder.ObserveAuthEvent(event)
}

// ObserveUpload records a stored media object on the default recorder.
func ObserveUpload(kind string) {
	defaultRecorder.ObserveUpload(kind)
}

// ObserveEngagement records an engagement action on the default recorder.
func ObserveEngagement(event string) {
	defaultRecorder.ObserveEngagement(event)
}

// ObserveMailDelivery records an outbound email attempt on the default recorder.
func ObserveMailDelivery(sent bool) {
	defaultRecorder.ObserveMailDelivery(sent)
}

// Handler exposes the default recorder as an HTTP handler.
func Handler() http.Handler {
	return defaultRecorder.Handler()
}
