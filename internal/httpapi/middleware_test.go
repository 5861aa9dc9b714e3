package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatalf("expected a generated request id in context")
	}
	if got := rec.Header().Get("X-Request-Id"); got != seen {
		t.Fatalf("response header %q does not match context id %q", got, seen)
	}
}

func TestRequestIDHonorsInboundHeader(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "req-abc-123" {
		t.Fatalf("expected inbound id to be kept, got %q", seen)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "req-abc-123" {
		t.Fatalf("expected inbound id echoed, got %q", got)
	}
}

func TestRateLimitReturns429WithRetryAfter(t *testing.T) {
	h := RequestID(RateLimit(okHandler(), 2, 1))

	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:51234"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst exhausted, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on 429")
	}
	var body map[string]any
	if err := json.NewDecoder(last.Body).Decode(&body); err != nil {
		t.Fatalf("decode 429 body: %v", err)
	}
	if body["error"] == "" || body["error"] == nil {
		t.Fatalf("expected error message in 429 body, got %v", body)
	}
	if rid, _ := body["request_id"].(string); rid == "" {
		t.Fatalf("expected request_id in 429 body, got %v", body)
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	h := RateLimit(okHandler(), 1, 1)

	first := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	first.RemoteAddr = "198.51.100.1:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first client first request: expected 200, got %d", rec.Code)
	}

	// A different address gets its own bucket.
	second := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	second.RemoteAddr = "198.51.100.2:40000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Fatalf("second client: expected 200, got %d", rec.Code)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	h := SecurityHeaders(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Fatalf("%s: expected %q, got %q", header, want, got)
		}
	}
}

func TestCORSPreflightFromLocalhost(t *testing.T) {
	h := CORS(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected origin echoed, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}
}

func TestCORSForeignOriginNotEchoed(t *testing.T) {
	h := CORS(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/info", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin must not be echoed, got %q", got)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}

	req.Header.Del("X-Forwarded-For")
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected remote host, got %q", got)
	}
}
