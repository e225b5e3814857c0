// Package jobqueue runs issuance batches in the background using Redis lists.
package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/CertFox/internal/pkg/issuance"
)

const (
	// Redis key prefixes
	JobKeyPrefix     = "batch:job:"
	JobQueueKey      = "batch:queue"
	JobProcessingKey = "batch:processing"

	// Jobs expire after 24 hours
	JobTTL = 24 * time.Hour
)

// ErrJobNotFound is returned for unknown, expired or foreign jobs.
var ErrJobNotFound = errors.New("batch job not found")

// Runner executes one batch.
type Runner interface {
	IssueBatch(ctx context.Context, req issuance.Request) (*issuance.Result, error)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// newJobID returns a lexicographically sortable identifier.
func newJobID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Queue manages background batches using Redis
type Queue struct {
	client  *redis.Client
	runner  Runner
	workers int
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueue creates a new batch queue
func NewQueue(client *redis.Client, runner Runner, workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		client:  client,
		runner:  runner,
		workers: workers,
	}
}

// Start starts the queue workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	log.Infof("[BatchQueue] Starting %d workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Stop cancels running batches and waits for the workers to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}
	log.Info("[BatchQueue] Stopping workers...")
	close(q.stopCh)
	q.cancel()
	q.running = false
	q.wg.Wait()
	log.Info("[BatchQueue] All workers stopped")
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	log.Infof("[BatchQueue] Worker %d started", id)

	for {
		select {
		case <-q.stopCh:
			log.Infof("[BatchQueue] Worker %d stopping", id)
			return
		default:
		}

		if _, err := q.processNext(ctx, time.Second); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("[BatchQueue] Worker %d: %v", id, err)
			time.Sleep(time.Second)
		}
	}
}

// Enqueue stores a queued job and pushes it onto the queue.
func (q *Queue) Enqueue(ctx context.Context, req issuance.Request) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:        newJobID(),
		TenantID:  req.TenantID,
		Status:    JobStatusQueued,
		Request:   req,
		Issued:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Infof("[BatchQueue] Enqueued job %s for tenant %d (%d recipients)", job.ID, job.TenantID, len(req.Recipients))
	return job, nil
}

// GetJob returns the job if it belongs to tenantID.
func (q *Queue) GetJob(ctx context.Context, tenantID uint, id string) (*Job, error) {
	job, err := q.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.TenantID != tenantID {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (q *Queue) load(ctx context.Context, id string) (*Job, error) {
	data, err := q.client.Get(ctx, JobKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

func (q *Queue) save(ctx context.Context, job *Job) {
	data, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[BatchQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL).Err(); err != nil {
		log.Errorf("[BatchQueue] Failed to update job %s: %v", job.ID, err)
	}
}

// processNext moves one job to the processing list and runs it. It reports false when
// no job arrived within timeout.
func (q *Queue) processNext(ctx context.Context, timeout time.Duration) (bool, error) {
	id, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	// Bookkeeping must survive a canceled worker context.
	bg := context.Background()
	defer func() {
		if err := q.client.LRem(bg, JobProcessingKey, 1, id).Err(); err != nil {
			log.Errorf("[BatchQueue] Failed to remove job %s from processing: %v", id, err)
		}
	}()

	job, err := q.load(bg, id)
	if err != nil {
		return true, fmt.Errorf("job %s: %w", id, err)
	}

	job.MarkAsRunning()
	q.save(bg, job)

	res, runErr := q.runner.IssueBatch(ctx, job.Request)
	job.Finish(res, runErr)
	q.save(bg, job)

	if runErr != nil {
		log.Errorf("[BatchQueue] Job %s failed: %v", job.ID, runErr)
	} else {
		log.Infof("[BatchQueue] Job %s %s with %d certificates", job.ID, job.Status, len(job.Issued))
	}
	return true, nil
}
