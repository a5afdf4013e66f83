package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iago/outreach-leadgen/internal/domain"
)

type RedisPersisterConfig struct {
	Prefix string
	TTL    time.Duration
}

// RedisPersister keeps each job as a JSON string with an expiry.
type RedisPersister struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisPersister(client redis.Cmdable, config RedisPersisterConfig) *RedisPersister {
	if config.Prefix == "" {
		config.Prefix = "leadgen:job:"
	}
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	return &RedisPersister{client: client, prefix: config.Prefix, ttl: config.TTL}
}

func (p *RedisPersister) Save(ctx context.Context, record *domain.JobRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := p.client.Set(ctx, p.prefix+record.JobID, payload, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis set job: %w", err)
	}
	return nil
}

func (p *RedisPersister) Load(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	payload, err := p.client.Get(ctx, p.prefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get job: %w", err)
	}

	var record domain.JobRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &record, nil
}
