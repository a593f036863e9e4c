package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Alidon256/Mindset-Pulse-sub000/metrics"
	"github.com/Alidon256/Mindset-Pulse-sub000/models"
)

// ErrConcurrentUpdate means every attempt lost the version race. Callers
// surface it as a "try again" to the user.
var ErrConcurrentUpdate = errors.New("progression was updated concurrently, try again")

// ErrOutOfOrderSession rejects a session dated before the user's last activity.
var ErrOutOfOrderSession = errors.New("session is dated before the last recorded activity")

// ProgressionUpdater runs the load/apply/swap cycle around ApplySession.
type ProgressionUpdater struct {
	store        ProgressionStore
	maxAttempts  int
	writeTimeout time.Duration
	log          *slog.Logger

	// inflight tracks detached writes so shutdown can wait for them.
	inflight sync.WaitGroup
}

// ProgressionOutcome is the result of a detached update.
type ProgressionOutcome struct {
	State models.ProgressionState
	Err   error
}

func NewProgressionUpdater(store ProgressionStore, maxAttempts int, writeTimeout time.Duration, log *slog.Logger) *ProgressionUpdater {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &ProgressionUpdater{
		store:        store,
		maxAttempts:  maxAttempts,
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// Current returns the stored state for a user.
func (u *ProgressionUpdater) Current(ctx context.Context, userID string) (models.ProgressionState, error) {
	rec, err := u.store.Load(ctx, userID)
	if err != nil {
		return models.ProgressionState{}, err
	}
	return rec.State, nil
}

// Record applies one completed session to the user's stored progression.
// A lost compare-and-swap reloads and recomputes, so concurrent sessions are
// never dropped; after maxAttempts it returns ErrConcurrentUpdate.
func (u *ProgressionUpdater) Record(ctx context.Context, userID string, session models.CompletedSession, today models.Date) (models.ProgressionState, error) {
	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		rec, err := u.store.Load(ctx, userID)
		if err != nil {
			metrics.RecordFailure("storage")
			return models.ProgressionState{}, err
		}

		if today.Before(rec.State.LastActivityDate) {
			return models.ProgressionState{}, fmt.Errorf("record session for %s on %s (last activity %s): %w",
				userID, today, rec.State.LastActivityDate, ErrOutOfOrderSession)
		}

		next := ApplySession(rec.State, session, today)

		ok, err := u.store.CompareAndSwap(ctx, userID, rec.Version, next)
		if err != nil {
			metrics.RecordFailure("storage")
			return models.ProgressionState{}, err
		}
		if ok {
			metrics.RecordSessionApplied(string(session.ActivityType))
			u.log.Info("progression updated",
				"user_id", userID,
				"activity", session.ActivityType,
				"streak", next.CurrentStreak,
				"sessions_today", next.SessionsToday,
				"points", next.ResiliencePoints,
				"version", rec.Version+1,
			)
			return next, nil
		}

		metrics.RecordConflict()
		u.log.Warn("progression version conflict", "user_id", userID, "attempt", attempt, "version", rec.Version)
	}

	metrics.RecordFailure("conflict")
	return models.ProgressionState{}, fmt.Errorf("record session for %s: %w", userID, ErrConcurrentUpdate)
}

// RecordDetached runs Record in its own goroutine on a context that ignores the
// caller's cancellation, bounded only by the updater's write timeout. The
// returned channel receives exactly one outcome and is buffered, so the caller
// may stop listening. Wait blocks until every detached write has finished.
func (u *ProgressionUpdater) RecordDetached(ctx context.Context, userID string, session models.CompletedSession, today models.Date) <-chan ProgressionOutcome {
	out := make(chan ProgressionOutcome, 1)
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.writeTimeout)

	u.inflight.Add(1)
	go func() {
		defer u.inflight.Done()
		defer cancel()
		state, err := u.Record(detached, userID, session, today)
		if err != nil {
			u.log.Error("detached progression update failed", "user_id", userID, "error", err)
		}
		out <- ProgressionOutcome{State: state, Err: err}
	}()

	return out
}

// Wait blocks until all detached writes have returned or ctx is done.
func (u *ProgressionUpdater) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
