package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDReplacesNonUUIDValues(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/v1/projects/p1/trends", nil)
	request.Header.Set("X-Request-Id", "not-a-uuid; DROP TABLE")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if seen == "not-a-uuid; DROP TABLE" {
		t.Fatalf("arbitrary caller string adopted as request id")
	}
	if uuid.Validate(seen) != nil {
		t.Fatalf("replacement request id %q is not a uuid", seen)
	}
	if got := recorder.Header().Get("X-Request-Id"); got != seen {
		t.Fatalf("response header %q, want the effective id %q", got, seen)
	}
}

func TestRequestIDKeepsValidUUID(t *testing.T) {
	supplied := uuid.NewString()
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	request.Header.Set("X-Request-Id", supplied)
	handler.ServeHTTP(httptest.NewRecorder(), request)

	if seen != supplied {
		t.Fatalf("request id = %q, want the supplied %q", seen, supplied)
	}
}

func TestRateLimitOnlyGatesVersionedAPI(t *testing.T) {
	handler := RateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	apiRequest := func() int {
		request := httptest.NewRequest(http.MethodGet, "/v1/projects/p1/jobs/stats", nil)
		request.RemoteAddr = "10.0.0.9:5511"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder.Code
	}

	if code := apiRequest(); code != http.StatusOK {
		t.Fatalf("first api request = %d, want 200", code)
	}
	if code := apiRequest(); code != http.StatusTooManyRequests {
		t.Fatalf("burst-exceeding api request = %d, want 429", code)
	}

	// The probe path stays reachable from the same throttled client.
	probe := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	probe.RemoteAddr = "10.0.0.9:5511"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, probe)
	if recorder.Code != http.StatusOK {
		t.Fatalf("probe request = %d, probes must bypass the limiter", recorder.Code)
	}
}

func TestAuthRequiresBearerTokenOnVersionedAPI(t *testing.T) {
	handler := Auth("segredo")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodPost, "/v1/verify/tabular", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("missing token = %d, want 401", recorder.Code)
	}

	request = httptest.NewRequest(http.MethodPost, "/v1/verify/tabular", nil)
	request.Header.Set("Authorization", "Bearer segredo")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("valid token = %d, want 200", recorder.Code)
	}

	request = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("probe path = %d, must stay open without a token", recorder.Code)
	}
}
