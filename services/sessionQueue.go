package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alidon256/Mindset-Pulse-sub000/metrics"
	"github.com/Alidon256/Mindset-Pulse-sub000/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionQueue is a durable Redis list of completed sessions waiting for a
// progression update. Producers LPUSH and the worker moves the oldest job
// into a processing list with BLMOVE. A job leaves the processing list only
// once it is applied, put back for another attempt, or dead-lettered, so a
// crash mid-job loses nothing: Recover returns leftovers to the queue.
type SessionQueue struct {
	client     *redis.Client
	key        string
	processing string
	dead       string
}

func NewSessionQueue(client *redis.Client, key string) *SessionQueue {
	return &SessionQueue{
		client:     client,
		key:        key,
		processing: key + ":processing",
		dead:       key + ":dead",
	}
}

// Enqueue stores a job for userID and returns its id.
func (q *SessionQueue) Enqueue(ctx context.Context, userID string, session models.CompletedSession) (string, error) {
	job := models.SessionJob{
		ID:         uuid.NewString(),
		UserID:     userID,
		Session:    session,
		EnqueuedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session job: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return "", fmt.Errorf("failed to push to Redis: %w", err)
	}
	return job.ID, nil
}

// Pop waits up to timeout for the next job and parks it in the processing
// list. It returns (nil, nil) on timeout.
func (q *SessionQueue) Pop(ctx context.Context, timeout time.Duration) (*models.SessionJob, error) {
	raw, err := q.client.BLMove(ctx, q.key, q.processing, "RIGHT", "LEFT", timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var job models.SessionJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// Unreadable payloads would block the processing list forever.
		if derr := q.client.LMove(ctx, q.processing, q.dead, "LEFT", "LEFT").Err(); derr != nil {
			return nil, fmt.Errorf("error while unmarshalling session job: %w (dead-letter: %v)", err, derr)
		}
		return nil, fmt.Errorf("error while unmarshalling session job: %w", err)
	}
	job.Raw = raw
	return &job, nil
}

// Ack removes an applied job from the processing list.
func (q *SessionQueue) Ack(ctx context.Context, job *models.SessionJob) error {
	return q.client.LRem(ctx, q.processing, 1, job.Raw).Err()
}

// Retry puts a failed job back at the consuming end of the queue so it is
// the next one tried.
func (q *SessionQueue) Retry(ctx context.Context, job *models.SessionJob) error {
	return q.settle(ctx, job, func(pipe redis.Pipeliner, data []byte) {
		pipe.RPush(ctx, q.key, data)
	})
}

// DeadLetter parks a job that will not be retried.
func (q *SessionQueue) DeadLetter(ctx context.Context, job *models.SessionJob) error {
	return q.settle(ctx, job, func(pipe redis.Pipeliner, data []byte) {
		pipe.LPush(ctx, q.dead, data)
	})
}

func (q *SessionQueue) settle(ctx context.Context, job *models.SessionJob, push func(redis.Pipeliner, []byte)) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal session job: %w", err)
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processing, 1, job.Raw)
		push(pipe, data)
		return nil
	})
	return err
}

// Recover moves jobs left in the processing list by a previous run back to
// the consuming end of the queue, oldest last so it is popped first.
func (q *SessionQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.processing, q.key, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, err
		}
		moved++
	}
}

func (q *SessionQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// JobSource is the consuming side of a session queue. A popped job must be
// settled with exactly one of Ack, Retry or DeadLetter.
type JobSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*models.SessionJob, error)
	Ack(ctx context.Context, job *models.SessionJob) error
	Retry(ctx context.Context, job *models.SessionJob) error
	DeadLetter(ctx context.Context, job *models.SessionJob) error
	Len(ctx context.Context) (int64, error)
}

// SessionWorker drains queued sessions into the progression store.
type SessionWorker struct {
	source      JobSource
	updater     *ProgressionUpdater
	maxAttempts int
	log         *slog.Logger
	// today resolves a job without a completion date.
	today func(time.Time) models.Date
}

// NewSessionWorker builds a worker that gives a job up to maxAttempts
// applications before dead-lettering it.
func NewSessionWorker(source JobSource, updater *ProgressionUpdater, loc *time.Location, maxAttempts int, log *slog.Logger) *SessionWorker {
	if loc == nil {
		loc = time.UTC
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &SessionWorker{
		source:      source,
		updater:     updater,
		maxAttempts: maxAttempts,
		log:         log,
		today:       func(t time.Time) models.Date { return models.DateOf(t.In(loc)) },
	}
}

// Run processes jobs until ctx is cancelled.
func (w *SessionWorker) Run(ctx context.Context) error {
	w.log.Info("session worker started")
	for {
		if ctx.Err() != nil {
			w.log.Info("session worker stopped")
			return nil
		}
		if err := w.ProcessOne(ctx, 5*time.Second); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Error("session job failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessOne handles at most one job. A job that fails to apply goes back on
// the queue until it has used maxAttempts, then to the dead-letter list; an
// out-of-order session is dead-lettered at once. The failure is returned.
func (w *SessionWorker) ProcessOne(ctx context.Context, wait time.Duration) error {
	job, err := w.source.Pop(ctx, wait)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}
	if n, err := w.source.Len(ctx); err == nil {
		metrics.SetPendingJobs(n)
	}

	day := job.Session.CompletionDate
	if day.IsZero() {
		day = w.today(job.EnqueuedAt)
	}

	// The job is parked in processing, so finish it even during shutdown.
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	outcome := <-w.updater.RecordDetached(ctx, job.UserID, job.Session, day)
	if outcome.Err == nil {
		if err := w.source.Ack(settleCtx, job); err != nil {
			return fmt.Errorf("ack job %s: %w", job.ID, err)
		}
		return nil
	}

	job.Attempts++
	job.LastError = outcome.Err.Error()
	failed := fmt.Errorf("job %s for user %s (attempt %d): %w", job.ID, job.UserID, job.Attempts, outcome.Err)

	if errors.Is(outcome.Err, ErrOutOfOrderSession) || job.Attempts >= w.maxAttempts {
		metrics.RecordFailure("dead_letter")
		w.log.Error("session job dead-lettered", "job_id", job.ID, "user_id", job.UserID, "attempts", job.Attempts, "error", outcome.Err)
		if err := w.source.DeadLetter(settleCtx, job); err != nil {
			return errors.Join(failed, fmt.Errorf("dead-letter job %s: %w", job.ID, err))
		}
		return failed
	}

	if err := w.source.Retry(settleCtx, job); err != nil {
		return errors.Join(failed, fmt.Errorf("requeue job %s: %w", job.ID, err))
	}
	return failed
}
