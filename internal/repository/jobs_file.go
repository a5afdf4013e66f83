package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/iago/outreach-leadgen/internal/domain"
)

const fileLockRetryDelay = 25 * time.Millisecond

// FilePersister writes one JSON document per job into a directory. A lock
// file next to each document serializes writers across processes.
type FilePersister struct {
	dir string
}

func NewFilePersister(dir string) (*FilePersister, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "leadgen-jobs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create job dir: %w", err)
	}
	return &FilePersister{dir: dir}, nil
}

func (p *FilePersister) Dir() string {
	return p.dir
}

func (p *FilePersister) Save(ctx context.Context, record *domain.JobRecord) error {
	if record == nil {
		return errors.New("job record is required")
	}
	if err := validateJobID(record.JobID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	path := p.path(record.JobID)
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, fileLockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock job file: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock job file: %s busy", path)
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(p.dir, record.JobID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp job file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write job file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close job file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace job file: %w", err)
	}
	return nil
}

func (p *FilePersister) Load(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	if err := validateJobID(jobID); err != nil {
		return nil, ErrNotFound
	}

	path := p.path(jobID)
	lock := flock.New(path + ".lock")
	locked, err := lock.TryRLockContext(ctx, fileLockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock job file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock job file: %s busy", path)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read job file: %w", err)
	}

	var record domain.JobRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode job file: %w", err)
	}
	return &record, nil
}

func (p *FilePersister) path(jobID string) string {
	return filepath.Join(p.dir, jobID+".json")
}
