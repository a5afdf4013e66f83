package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iago/outreach-leadgen/internal/domain"
)

type LocalQueueConfig struct {
	BufferSize  int
	MaxAttempts int
	RetryDelay  time.Duration
}

// LocalQueue dispatches jobs in-process when Redis is not configured.
type LocalQueue struct {
	ch          chan domain.QueueMessage
	maxAttempts int
	retryDelay  time.Duration
	logger      *log.Logger

	dlqMu sync.Mutex
	dlq   []domain.QueueMessage
}

func NewLocalQueue(cfg LocalQueueConfig, logger *log.Logger) *LocalQueue {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 512
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &LocalQueue{
		ch:          make(chan domain.QueueMessage, cfg.BufferSize),
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      logger,
		dlq:         make([]domain.QueueMessage, 0),
	}
}

func (q *LocalQueue) Enqueue(ctx context.Context, message domain.QueueMessage) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- message:
		return nil
	}
}

func (q *LocalQueue) EnqueueBatch(ctx context.Context, messages []domain.QueueMessage) error {
	for _, message := range messages {
		if err := q.Enqueue(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

// Consume runs handler for each message until ctx ends. Failed messages are
// retried with a linear delay and parked in the DLQ after MaxAttempts.
func (q *LocalQueue) Consume(ctx context.Context, handler func(context.Context, domain.QueueMessage) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case message := <-q.ch:
			err := handler(ctx, message)
			if err == nil {
				continue
			}

			message.Attempt++
			if message.Attempt >= q.maxAttempts {
				q.dlqMu.Lock()
				q.dlq = append(q.dlq, message)
				q.dlqMu.Unlock()
				if q.logger != nil {
					q.logger.Printf("local queue moved message to DLQ job_id=%s attempt=%d err=%v", message.JobID, message.Attempt, err)
				}
				continue
			}

			delay := time.Duration(message.Attempt) * q.retryDelay
			go func(retryMessage domain.QueueMessage) {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-ctx.Done():
					return
				case <-timer.C:
				}
				select {
				case <-ctx.Done():
				case q.ch <- retryMessage:
				}
			}(message)
		}
	}
}

func (q *LocalQueue) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

// DeadLetters returns a copy of the messages that exhausted their attempts.
func (q *LocalQueue) DeadLetters() []domain.QueueMessage {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return append([]domain.QueueMessage(nil), q.dlq...)
}
