package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTraceLogsStatusAndJobFields(t *testing.T) {
	var logs bytes.Buffer
	handler := RequestID(Trace(log.New(&logs, "", 0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(JobIDHeader, "job-1")
		w.Header().Set(JobStatusHeader, "running")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})))

	request := httptest.NewRequest(http.MethodGet, "/v1/leadgen/jobs/job-1", nil)
	request.Header.Set(RequestIDHeader, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), request)

	line := logs.String()
	for _, want := range []string{
		"request_id=req-1",
		"path=/v1/leadgen/jobs/job-1",
		"status=200",
		"bytes=11",
		"job_id=job-1 job_status=running",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in trace line %q", want, line)
		}
	}
}

func TestTraceDefaultsStatusAndOmitsJobFields(t *testing.T) {
	var logs bytes.Buffer
	handler := Trace(log.New(&logs, "", 0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	line := logs.String()
	if !strings.Contains(line, "status=200") {
		t.Fatalf("expected implicit 200 in %q", line)
	}
	if strings.Contains(line, "job_id=") {
		t.Fatalf("expected no job fields in %q", line)
	}
}

func TestTraceCapturesErrorStatus(t *testing.T) {
	var logs bytes.Buffer
	handler := Trace(log.New(&logs, "", 0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/leadgen/jobs/nope", nil))

	if !strings.Contains(logs.String(), "status=404") {
		t.Fatalf("expected status=404 in %q", logs.String())
	}
}
