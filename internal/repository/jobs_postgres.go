package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iago/outreach-leadgen/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadgenJobsSchema = `
	CREATE TABLE IF NOT EXISTS leadgen_jobs (
		id text PRIMARY KEY,
		status text NOT NULL,
		record jsonb NOT NULL,
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL
	)
`

// PostgresPersister mirrors job records into the leadgen_jobs table.
type PostgresPersister struct {
	pool *pgxpool.Pool
}

func NewPostgresPersister(ctx context.Context, databaseURL string) (*PostgresPersister, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	if _, err := pool.Exec(ctx, leadgenJobsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure leadgen_jobs table: %w", err)
	}
	return &PostgresPersister{pool: pool}, nil
}

func (p *PostgresPersister) Close() {
	p.pool.Close()
}

func (p *PostgresPersister) Save(ctx context.Context, record *domain.JobRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO leadgen_jobs (
			id,
			status,
			record,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at
	`,
		record.JobID,
		string(record.Status),
		payload,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

func (p *PostgresPersister) Load(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx, `
		SELECT record
		FROM leadgen_jobs
		WHERE id = $1
	`, jobID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query job: %w", err)
	}

	var record domain.JobRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &record, nil
}
