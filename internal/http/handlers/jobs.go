package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/iago/outreach-leadgen/internal/domain"
	"github.com/iago/outreach-leadgen/internal/http/middleware"
	"github.com/iago/outreach-leadgen/internal/repository"
	"github.com/iago/outreach-leadgen/internal/service"
)

const (
	jobsPath               = "/v1/leadgen/jobs"
	idempotentReplayHeader = "Idempotent-Replayed"
)

// CreateJob records a queued job and returns where to poll it.
func (api *API) CreateJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var input domain.LeadgenJobInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	payloadHash := hashPayload(input)
	if idempotencyKey != "" {
		if entry, exists := api.idempotency.Get(idempotencyKey); exists {
			if entry.PayloadHash != payloadHash {
				writeError(w, r, http.StatusConflict, "idempotency_conflict", "Idempotency-Key already used with different payload")
				return
			}
			status := domain.JobStatusQueued
			if current, err := api.jobsService.GetJob(r.Context(), entry.JobID); err == nil {
				status = current.Status
			} else {
				api.logf("idempotent replay lookup failed job_id=%s err=%v", entry.JobID, err)
			}
			w.Header().Set(idempotentReplayHeader, "true")
			writeAccepted(w, entry.JobID, status, entry.CreatedAt)
			return
		}
	}

	record, err := api.jobsService.CreateJob(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		api.logf("create job failed err=%v", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to enqueue leadgen job")
		return
	}

	if idempotencyKey != "" {
		api.idempotency.Put(idempotencyKey, payloadHash, record.JobID, record.CreatedAt)
	}
	writeAccepted(w, record.JobID, record.Status, record.CreatedAt)
}

func writeAccepted(w http.ResponseWriter, jobID string, status domain.JobStatus, acceptedAt time.Time) {
	setJobHeaders(w, jobID, status)
	if status == domain.JobStatusQueued || status == domain.JobStatusRunning {
		w.Header().Set("Retry-After", "2")
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":      jobID,
		"status":      status,
		"status_url":  jobsPath + "/" + jobID,
		"accepted_at": acceptedAt.Format(time.RFC3339Nano),
	})
}

func (api *API) JobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	jobID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, jobsPath+"/"))
	if jobID == "" || strings.Contains(jobID, "/") {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "job_id is required")
		return
	}

	record, err := api.jobsService.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		api.logf("load job failed job_id=%s err=%v", jobID, err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		return
	}

	setJobHeaders(w, record.JobID, record.Status)
	if !record.Terminal() {
		w.Header().Set("Retry-After", "2")
	}
	writeJSON(w, http.StatusOK, record)
}

// RunJob executes the job within the request and returns the final record.
func (api *API) RunJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var input domain.LeadgenJobInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}

	record, err := api.jobsService.RunSync(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		api.logf("run job failed err=%v", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to run leadgen job")
		return
	}
	setJobHeaders(w, record.JobID, record.Status)
	writeJSON(w, http.StatusOK, record)
}

// setJobHeaders exposes the job id and status to the trace middleware.
func setJobHeaders(w http.ResponseWriter, jobID string, status domain.JobStatus) {
	w.Header().Set(middleware.JobIDHeader, jobID)
	w.Header().Set(middleware.JobStatusHeader, string(status))
}
