package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iago/outreach-leadgen/internal/domain"
	"github.com/iago/outreach-leadgen/internal/leadgen"
	"github.com/iago/outreach-leadgen/internal/queue"
)

// JobRunner executes one stored lead-generation job.
type JobRunner interface {
	Run(ctx context.Context, jobID string) (*domain.JobRecord, error)
}

// Processor consumes queued job ids and hands them to the runner.
type Processor struct {
	consumer queue.Consumer
	runner   JobRunner
	logger   *log.Logger
}

func NewProcessor(consumer queue.Consumer, runner JobRunner, logger *log.Logger) *Processor {
	return &Processor{
		consumer: consumer,
		runner:   runner,
		logger:   logger,
	}
}

func (p *Processor) Start(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := p.consumer.Consume(ctx, p.processMessage)
		if err == nil || ctx.Err() != nil {
			return
		}
		if p.logger != nil {
			p.logger.Printf("worker consume loop error: %v", err)
		}

		timer := time.NewTimer(2 * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// processMessage returns an error only when redelivery could help. A job that
// is already claimed or finished is acknowledged.
func (p *Processor) processMessage(ctx context.Context, message domain.QueueMessage) error {
	started := time.Now()
	record, err := p.runner.Run(ctx, message.JobID)
	switch {
	case errors.Is(err, leadgen.ErrJobNotQueued):
		if p.logger != nil {
			p.logger.Printf("job skipped job_id=%s attempt=%d reason=not_queued", message.JobID, message.Attempt)
		}
		return nil
	case err != nil:
		return fmt.Errorf("run job %s: %w", message.JobID, err)
	}

	if p.logger != nil {
		p.logger.Printf("job processed job_id=%s status=%s leads=%d attempt=%d duration_ms=%d",
			record.JobID, record.Status, record.LeadsCount, message.Attempt, time.Since(started).Milliseconds())
	}
	return nil
}
