package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/common"
	"github.com/dmitrijs2005/nutrisync/internal/logging"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"
)

// Runner runs a single sync pass.
type Runner interface {
	RunSyncPass(ctx context.Context) (Outcome, error)
}

// Observer reports connectivity and its transitions.
type Observer interface {
	IsOnline() bool
	Observe(ctx context.Context) <-chan bool
}

// Result is the last pass the scheduler ran.
type Result struct {
	Outcome Outcome
	Err     error
	At      time.Time
}

type Scheduler struct {
	runner   Runner
	conn     Observer
	interval time.Duration
	log      logging.Logger

	retryBase  time.Duration
	retryMax   time.Duration
	maxRetries uint64

	trigger chan struct{}
	group   singleflight.Group

	mu   sync.Mutex
	last Result
}

type SchedulerOption func(*Scheduler)

// WithBackoff sets the exponential backoff for retryable failures: the first
// wait is base, waits are capped at max (0 for no cap) and at most retries
// extra attempts are made.
func WithBackoff(base, max time.Duration, retries int) SchedulerOption {
	return func(s *Scheduler) {
		s.retryBase, s.retryMax = base, max
		if retries < 0 {
			retries = 0
		}
		s.maxRetries = uint64(retries)
	}
}

func NewScheduler(r Runner, conn Observer, interval time.Duration, log logging.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner:     r,
		conn:       conn,
		interval:   interval,
		log:        log,
		retryBase:  2 * time.Second,
		retryMax:   time.Minute,
		maxRetries: 5,
		trigger:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trigger asks Run for a pass. Requests made while one is queued collapse
// into it.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// SyncNow runs a pass and waits for it. Callers arriving while a pass is in
// flight share its result instead of starting another.
func (s *Scheduler) SyncNow(ctx context.Context) (Outcome, error) {
	v, err, _ := s.group.Do("sync", func() (any, error) {
		out, err := s.runner.RunSyncPass(ctx)
		s.mu.Lock()
		s.last = Result{Outcome: out, Err: err, At: time.Now()}
		s.mu.Unlock()
		return out, err
	})
	out, _ := v.(Outcome)
	return out, err
}

// Last returns the most recent pass; At is zero if none ran yet.
func (s *Scheduler) Last() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) newBackoff() retry.Backoff {
	b := retry.NewExponential(s.retryBase)
	if s.retryMax > 0 {
		b = retry.WithCappedDuration(s.retryMax, b)
	}
	return retry.WithMaxRetries(s.maxRetries, b)
}

// runWithRetry runs a pass, retrying partial failures with backoff. Going
// offline ends the attempt; the next reconnect starts a new one.
func (s *Scheduler) runWithRetry(ctx context.Context, reason string) {
	attempt := 0
	err := retry.Do(ctx, s.newBackoff(), func(ctx context.Context) error {
		attempt++
		_, err := s.SyncNow(ctx)
		if errors.Is(err, common.ErrPartialSync) {
			s.log.Info(ctx, "sync pass incomplete, will retry", "reason", reason, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
	case errors.Is(err, common.ErrOffline):
		s.log.Debug(ctx, "sync skipped while offline", "reason", reason)
	case errors.Is(err, context.Canceled):
	default:
		s.log.Warn(ctx, "sync failed", "reason", reason, "attempts", attempt, "error", err)
	}
}

// Run drives passes until ctx is done: once whenever connectivity comes back,
// every interval while online, and whenever Trigger is called.
func (s *Scheduler) Run(ctx context.Context) {
	states := s.conn.Observe(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	online := false
	for {
		select {
		case <-ctx.Done():
			return
		case now, ok := <-states:
			if !ok {
				return
			}
			if now && !online {
				s.runWithRetry(ctx, "reconnect")
			}
			online = now
		case <-ticker.C:
			if s.conn.IsOnline() {
				s.runWithRetry(ctx, "periodic")
			}
		case <-s.trigger:
			s.runWithRetry(ctx, "manual")
		}
	}
}
