package middleware

import (
	"log"
	"net/http"
	"time"
)

// Handlers set these so job polling can be followed in the trace log.
const (
	JobIDHeader     = "X-Job-Id"
	JobStatusHeader = "X-Job-Status"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(status int) {
	if s.status == 0 {
		s.status = status
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(data []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(data)
	s.bytes += n
	return n, err
}

func Trace(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			jobFields := ""
			if jobID := recorder.Header().Get(JobIDHeader); jobID != "" {
				jobFields = " job_id=" + jobID + " job_status=" + recorder.Header().Get(JobStatusHeader)
			}
			logger.Printf(
				"trace request_id=%s method=%s path=%s status=%d bytes=%d%s duration_ms=%d",
				GetRequestID(r.Context()),
				r.Method,
				r.URL.Path,
				status,
				recorder.bytes,
				jobFields,
				time.Since(start).Milliseconds(),
			)
		})
	}
}
