package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDPropagatesValidHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/v1/leadgen/jobs/job-1", nil)
	request.Header.Set(RequestIDHeader, "req-42.a:b")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if seen != "req-42.a:b" {
		t.Fatalf("expected request id in context, got %q", seen)
	}
	if got := recorder.Header().Get(RequestIDHeader); got != "req-42.a:b" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	cases := map[string]string{
		"log_injection": "abc status=200\nforged",
		"json_breaking": `abc"}`,
		"too_long":      strings.Repeat("a", maxRequestIDLength+1),
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			request.Header.Set(RequestIDHeader, value)
			handler.ServeHTTP(httptest.NewRecorder(), request)

			if seen == value || seen == "" || seen == "unknown" {
				t.Fatalf("expected a generated request id, got %q", seen)
			}
		})
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	if got := GetRequestID(request.Context()); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}
