package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"LoadPulse/pkg/logger"
)

var (
	// ErrQueueFull is returned by PublishMessage when the buffer is at
	// capacity. Callers treat it as backpressure, not a fault.
	ErrQueueFull = errors.New("queue: buffer full")

	// ErrQueueStopped is returned after Stop.
	ErrQueueStopped = errors.New("queue: stopped")
)

// MemoryQueue is an in-process task queue backed by a buffered channel and a
// fixed worker pool. With Workers=1 it serializes all messages, which is how
// the forecast engine guarantees that a predict never overlaps a training
// step on the same model instance.
type MemoryQueue struct {
	logger *logger.Logger
	config *QueueConfig
	jobs   map[string]Job

	ch      chan *Message
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	seq     int64
}

// NewMemoryQueue creates an in-process queue. Workers defaults to 1 and
// QueueSize to 64.
func NewMemoryQueue(l *logger.Logger, cfg *QueueConfig) *MemoryQueue {
	if cfg == nil {
		cfg = &QueueConfig{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	return &MemoryQueue{
		logger: l,
		config: cfg,
		jobs:   make(map[string]Job),
		ch:     make(chan *Message, cfg.QueueSize),
	}
}

// RegisterJob binds a job to the message type it handles.
func (q *MemoryQueue) RegisterJob(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[job.Type()]; exists {
		return fmt.Errorf("queue: job already registered for type %q", job.Type())
	}
	q.jobs[job.Type()] = job
	return nil
}

// Start launches the worker pool.
func (q *MemoryQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.running = true

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	return nil
}

// PublishMessage enqueues a payload for the job registered under msgType.
// Non-blocking: a full buffer returns ErrQueueFull.
func (q *MemoryQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return ErrQueueStopped
	}
	q.seq++

	msg := &Message{
		ID:        strconv.FormatInt(q.seq, 10),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	// The send is non-blocking, so holding the lock across it is cheap; it
	// keeps Stop from closing the channel mid-publish.
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	for msg := range q.ch {
		q.process(ctx, msg)
	}
}

func (q *MemoryQueue) process(ctx context.Context, msg *Message) {
	q.mu.RLock()
	job, ok := q.jobs[msg.Type]
	q.mu.RUnlock()
	if !ok {
		if q.logger != nil {
			q.logger.Warn("queue: no job for message type", logger.String("type", msg.Type))
		}
		return
	}

	for {
		msg.Attempts++
		err := job.Handle(ctx, msg.Payload)
		if err == nil {
			return
		}
		if q.logger != nil {
			q.logger.Warn("queue: job failed",
				logger.String("job", job.Name()),
				logger.Int("attempt", msg.Attempts),
				logger.Error(err))
		}
		if msg.Attempts > q.config.RetryLimit {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.config.RetryDelay):
		}
	}
}

// Stop rejects further publishes, then drains the buffered messages and
// waits for the workers to finish them. The worker context stays live
// through the drain so in-flight jobs run to completion.
func (q *MemoryQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	cancel := q.cancel
	close(q.ch)
	q.mu.Unlock()

	q.wg.Wait()
	cancel()
}

var _ QueueService = (*MemoryQueue)(nil)
