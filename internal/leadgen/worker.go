package leadgen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iago/outreach-leadgen/internal/apollo"
	"github.com/iago/outreach-leadgen/internal/domain"
	"github.com/iago/outreach-leadgen/internal/icp"
	"github.com/iago/outreach-leadgen/internal/repository"
)

var (
	ErrJobNotFound  = errors.New("leadgen job not found")
	ErrJobNotQueued = errors.New("leadgen job is not queued")
)

const DefaultPerPage = 25

// Searcher fetches one page of people matching filters.
type Searcher interface {
	Search(ctx context.Context, filters icp.Filters, page, perPage int) (apollo.SearchPage, error)
}

// ArtifactStore keeps the CSV export and the import document.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Config struct {
	Searcher Searcher
	Store    repository.JobStore
	// Artifacts is nil when object storage is not configured.
	Artifacts  ArtifactStore
	PerPage    int
	PresignTTL time.Duration
	Now        func() time.Time
	Logger     *log.Logger
}

// Worker turns an ICP into deduplicated leads within a time and count budget.
type Worker struct {
	searcher   Searcher
	store      repository.JobStore
	artifacts  ArtifactStore
	perPage    int
	presignTTL time.Duration
	now        func() time.Time
	logger     *log.Logger
}

func NewWorker(config Config) *Worker {
	if config.PerPage <= 0 {
		config.PerPage = DefaultPerPage
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Worker{
		searcher:   config.Searcher,
		store:      config.Store,
		artifacts:  config.Artifacts,
		perPage:    config.PerPage,
		presignTTL: config.PresignTTL,
		now:        config.Now,
		logger:     config.Logger,
	}
}

// Run claims a queued job from the store, executes it and writes the final
// record back. Jobs that are missing or not queued are refused.
func (w *Worker) Run(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	if w.store == nil {
		return nil, errors.New("leadgen worker has no job store")
	}

	claimed, err := w.store.Update(ctx, jobID, func(record *domain.JobRecord) error {
		if record.Status != domain.JobStatusQueued {
			return fmt.Errorf("%w: job_id=%s status=%s", ErrJobNotQueued, jobID, record.Status)
		}
		record.Status = domain.JobStatusRunning
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: job_id=%s", ErrJobNotFound, jobID)
		}
		return nil, err
	}
	w.logf("leadgen job claimed job_id=%s", jobID)

	var result outcome
	if claimed.Input == nil {
		result = outcome{status: domain.JobStatusFailed, err: domain.StringPtr("job input is missing")}
	} else {
		result = w.execute(ctx, jobID, *claimed.Input)
	}

	final, err := w.store.Update(ctx, jobID, func(record *domain.JobRecord) error {
		result.apply(record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write final job record: %w", err)
	}
	return final, nil
}

// RunInput executes input directly without reading or writing the job store.
func (w *Worker) RunInput(ctx context.Context, jobID string, input domain.LeadgenJobInput) *domain.JobRecord {
	if strings.TrimSpace(jobID) == "" {
		jobID = input.JobID
	}
	input.JobID = jobID

	started := w.now().UTC()
	result := w.execute(ctx, jobID, input)

	record := &domain.JobRecord{
		JobID:     jobID,
		Input:     &input,
		CreatedAt: started,
	}
	result.apply(record)
	record.UpdatedAt = w.now().UTC()
	return record
}

func (w *Worker) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}
