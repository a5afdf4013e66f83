package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/iago/outreach-leadgen/internal/domain"
)

var ErrNotFound = errors.New("resource not found")

// JobStore abstracts lead-generation job records.
type JobStore interface {
	Create(ctx context.Context, record *domain.JobRecord) error
	Get(ctx context.Context, jobID string) (*domain.JobRecord, error)
	Update(ctx context.Context, jobID string, mutate func(*domain.JobRecord) error) (*domain.JobRecord, error)
}

// Persister is the side channel that lets other processes observe jobs.
type Persister interface {
	Save(ctx context.Context, record *domain.JobRecord) error
	Load(ctx context.Context, jobID string) (*domain.JobRecord, error)
}

type MemoryJobStoreConfig struct {
	Persister          Persister
	PersistenceEnabled bool
	Logger             *log.Logger
	Now                func() time.Time
}

// MemoryJobStore keeps the authoritative copy of every job in memory and
// mirrors writes to an optional persister.
type MemoryJobStore struct {
	mu        sync.Mutex
	jobs      map[string]*domain.JobRecord
	persister Persister
	logger    *log.Logger
	now       func() time.Time
}

func NewMemoryJobStore(config MemoryJobStoreConfig) *MemoryJobStore {
	if config.Now == nil {
		config.Now = time.Now
	}
	store := &MemoryJobStore{
		jobs:   make(map[string]*domain.JobRecord),
		logger: config.Logger,
		now:    config.Now,
	}
	if config.PersistenceEnabled {
		store.persister = config.Persister
	}
	return store
}

func (s *MemoryJobStore) PersistenceEnabled() bool {
	return s.persister != nil
}

// Create stores the record, overwriting any job with the same id.
func (s *MemoryJobStore) Create(ctx context.Context, record *domain.JobRecord) error {
	if record == nil || strings.TrimSpace(record.JobID) == "" {
		return errors.New("job id is required")
	}

	now := s.now().UTC()
	clone := cloneRecord(record)
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	if clone.UpdatedAt.IsZero() {
		clone.UpdatedAt = clone.CreatedAt
	}

	s.mu.Lock()
	s.jobs[clone.JobID] = clone
	snapshot := cloneRecord(clone)
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return nil
}

// Get returns the job. A record that is not terminal yet is refreshed from the
// persister so progress written by another process shows up here.
func (s *MemoryJobStore) Get(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	cached, ok := s.cached(jobID)
	if !ok {
		loaded, err := s.load(ctx, jobID)
		if err != nil {
			return nil, err
		}
		return cloneRecord(loaded), nil
	}
	if s.persister == nil || cached.Terminal() {
		return cached, nil
	}
	return s.refresh(ctx, cached), nil
}

// Update applies mutate to the current record under the store lock. When
// mutate returns an error nothing is written.
func (s *MemoryJobStore) Update(
	ctx context.Context,
	jobID string,
	mutate func(*domain.JobRecord) error,
) (*domain.JobRecord, error) {
	cached, ok := s.cached(jobID)
	switch {
	case !ok:
		if _, err := s.load(ctx, jobID); err != nil {
			return nil, err
		}
	case s.persister != nil && !cached.Terminal():
		s.refresh(ctx, cached)
	}

	s.mu.Lock()
	current, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	working := cloneRecord(current)
	if err := mutate(working); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	working.JobID = jobID
	working.UpdatedAt = s.now().UTC()
	s.jobs[jobID] = working
	snapshot := cloneRecord(working)
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return cloneRecord(snapshot), nil
}

func (s *MemoryJobStore) cached(jobID string) (*domain.JobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}
	return cloneRecord(record), true
}

// refresh replaces the in-memory copy with the persisted one when the latter
// has a newer UpdatedAt. Load failures keep the cached copy.
func (s *MemoryJobStore) refresh(ctx context.Context, cached *domain.JobRecord) *domain.JobRecord {
	persisted, err := s.persister.Load(ctx, cached.JobID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && s.logger != nil {
			s.logger.Printf("job store refresh failed job_id=%s err=%v", cached.JobID, err)
		}
		return cached
	}
	if !persisted.UpdatedAt.After(cached.UpdatedAt) {
		return cached
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.jobs[cached.JobID]
	if ok && !persisted.UpdatedAt.After(current.UpdatedAt) {
		return cloneRecord(current)
	}
	s.jobs[cached.JobID] = cloneRecord(persisted)
	return cloneRecord(persisted)
}

// load reads a job another process persisted and caches it in memory.
func (s *MemoryJobStore) load(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	if s.persister == nil {
		return nil, ErrNotFound
	}
	record, err := s.persister.Load(ctx, jobID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && s.logger != nil {
			s.logger.Printf("job store load failed job_id=%s err=%v", jobID, err)
		}
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.jobs[jobID]; ok {
		return existing, nil
	}
	s.jobs[jobID] = cloneRecord(record)
	return s.jobs[jobID], nil
}

func (s *MemoryJobStore) persist(ctx context.Context, record *domain.JobRecord) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, record); err != nil && s.logger != nil {
		s.logger.Printf("job store persist failed job_id=%s status=%s err=%v", record.JobID, record.Status, err)
	}
}

func validateJobID(jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return errors.New("job id is required")
	}
	for _, r := range jobID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("invalid job id %q", jobID)
		}
	}
	return nil
}

func cloneRecord(record *domain.JobRecord) *domain.JobRecord {
	if record == nil {
		return nil
	}
	clone := *record
	if record.Input != nil {
		input := cloneInput(*record.Input)
		clone.Input = &input
	}
	if record.IcpUsed != nil {
		used := record.IcpUsed.Clone()
		clone.IcpUsed = &used
	}
	clone.LinkedInURLs = cloneStrings(record.LinkedInURLs)
	if record.LeadsPreview != nil {
		clone.LeadsPreview = append([]domain.Lead{}, record.LeadsPreview...)
	}
	if record.Debug.WideningStepsApplied != nil {
		clone.Debug.WideningStepsApplied = append([]domain.WideningStep{}, record.Debug.WideningStepsApplied...)
	}
	clone.DownloadCSVURL = cloneStringPtr(record.DownloadCSVURL)
	clone.CSVObjectKey = cloneStringPtr(record.CSVObjectKey)
	clone.MinioObjectKey = cloneStringPtr(record.MinioObjectKey)
	clone.Error = cloneStringPtr(record.Error)
	return &clone
}

func cloneInput(input domain.LeadgenJobInput) domain.LeadgenJobInput {
	clone := input
	clone.Icp = input.Icp.Clone()
	if input.SegmentIcps != nil {
		clone.SegmentIcps = make([]domain.Icp, len(input.SegmentIcps))
		for i, segment := range input.SegmentIcps {
			clone.SegmentIcps[i] = segment.Clone()
		}
	}
	if input.Destination != nil {
		destination := *input.Destination
		if input.Destination.Segments != nil {
			destination.Segments = append([]domain.SegmentDescriptor{}, input.Destination.Segments...)
		}
		clone.Destination = &destination
	}
	return clone
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string{}, values...)
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
