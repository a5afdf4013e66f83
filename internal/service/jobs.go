package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iago/outreach-leadgen/internal/domain"
	"github.com/iago/outreach-leadgen/internal/queue"
	"github.com/iago/outreach-leadgen/internal/repository"
)

var ErrInvalidInput = errors.New("invalid job input")

// InputRunner executes a job from an explicit input without the job store.
type InputRunner interface {
	RunInput(ctx context.Context, jobID string, input domain.LeadgenJobInput) *domain.JobRecord
}

type JobsDependencies struct {
	Store    repository.JobStore
	Producer queue.Producer
	Runner   InputRunner
	Now      func() time.Time
	Logger   *log.Logger
}

type JobsService struct {
	store    repository.JobStore
	producer queue.Producer
	runner   InputRunner
	now      func() time.Time
	logger   *log.Logger
}

func NewJobsService(deps JobsDependencies) *JobsService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &JobsService{
		store:    deps.Store,
		producer: deps.Producer,
		runner:   deps.Runner,
		now:      deps.Now,
		logger:   deps.Logger,
	}
}

// CreateJob records a queued job and hands its id to the queue. Creating a
// job with an existing id overwrites it.
func (s *JobsService) CreateJob(ctx context.Context, input domain.LeadgenJobInput) (*domain.JobRecord, error) {
	input, err := prepareInput(input)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &domain.JobRecord{
		JobID:        input.JobID,
		Status:       domain.JobStatusQueued,
		Input:        &input,
		LinkedInURLs: []string{},
		LeadsPreview: []domain.Lead{},
		Debug:        domain.JobDebug{WideningStepsApplied: []domain.WideningStep{}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if s.producer == nil {
		return record, nil
	}
	message := domain.QueueMessage{JobID: record.JobID, RequestedAt: now}
	if err := s.producer.Enqueue(ctx, message); err != nil {
		reason := "enqueue failed: " + err.Error()
		if _, updateErr := s.store.Update(ctx, record.JobID, func(current *domain.JobRecord) error {
			current.Status = domain.JobStatusFailed
			current.Error = domain.StringPtr(reason)
			return nil
		}); updateErr != nil {
			s.logf("mark job failed after enqueue error job_id=%s err=%v", record.JobID, updateErr)
		}
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	s.logf("job queued job_id=%s target_leads=%d", record.JobID, input.Limits.TargetLeads)
	return record, nil
}

// GetJob returns repository.ErrNotFound when the id is unknown.
func (s *JobsService) GetJob(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	return s.store.Get(ctx, strings.TrimSpace(jobID))
}

// RunSync executes the job within the caller's request and stores the final
// record so later polls can read it.
func (s *JobsService) RunSync(ctx context.Context, input domain.LeadgenJobInput) (*domain.JobRecord, error) {
	if s.runner == nil {
		return nil, errors.New("synchronous runner is not configured")
	}
	input, err := prepareInput(input)
	if err != nil {
		return nil, err
	}

	record := s.runner.RunInput(ctx, input.JobID, input)
	if err := s.store.Create(ctx, record); err != nil {
		s.logf("store synchronous job failed job_id=%s err=%v", record.JobID, err)
	}
	return record, nil
}

func prepareInput(input domain.LeadgenJobInput) (domain.LeadgenJobInput, error) {
	input.JobID = strings.TrimSpace(input.JobID)
	if input.JobID == "" {
		input.JobID = uuid.NewString()
	}
	if !validJobID(input.JobID) {
		return input, fmt.Errorf("%w: job_id may only contain letters, digits, '-' and '_'", ErrInvalidInput)
	}
	if input.Limits.TargetLeads < 0 || input.Limits.MaxRuntimeMS < 0 {
		return input, fmt.Errorf("%w: limits must not be negative", ErrInvalidInput)
	}
	input.Limits = input.Limits.Normalized()
	return input, nil
}

func validJobID(jobID string) bool {
	if len(jobID) > 128 {
		return false
	}
	for _, char := range jobID {
		switch {
		case char >= 'a' && char <= 'z', char >= 'A' && char <= 'Z', char >= '0' && char <= '9', char == '-', char == '_':
		default:
			return false
		}
	}
	return true
}

func (s *JobsService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
