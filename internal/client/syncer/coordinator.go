package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/common"
	"github.com/dmitrijs2005/nutrisync/internal/logging"
)

// Syncable is one entity kind as seen by the coordinator.
type Syncable interface {
	Kind() models.Kind
	PushPending(ctx context.Context) (models.SyncReport, error)
	Refresh(ctx context.Context, ownerID string, notBefore time.Time) (int, error)
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

type Oracle interface {
	IsOnline() bool
}

// Outcome describes a finished pass.
type Outcome struct {
	Reports    []models.SyncReport
	Refreshed  int
	Purged     int64
	StartedAt  time.Time
	FinishedAt time.Time
}

func (o Outcome) Pushed() int {
	n := 0
	for _, r := range o.Reports {
		n += r.Pushed + r.Deleted
	}
	return n
}

func (o Outcome) Failed() int {
	n := 0
	for _, r := range o.Reports {
		n += r.Failed
	}
	return n
}

type Coordinator struct {
	entities  []Syncable
	oracle    Oracle
	log       logging.Logger
	retention time.Duration
	owners    []string
	now       func() time.Time
}

type CoordinatorOption func(*Coordinator)

// WithRetention keeps synced records for d after creation; zero keeps them
// forever.
func WithRetention(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.retention = d }
}

// WithOwners adds owners that are refreshed on every pass, touched or not.
func WithOwners(ids ...string) CoordinatorOption {
	return func(c *Coordinator) { c.owners = append(c.owners, ids...) }
}

func WithCoordinatorClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(entities []Syncable, oracle Oracle, log logging.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{entities: entities, oracle: oracle, log: log, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunSyncPass runs one reconciliation pass.
//
// It returns common.ErrOffline without doing anything when the server is
// believed unreachable, and an error wrapping common.ErrPartialSync when some
// records could not be pushed. Both are retryable. Local storage failures
// are returned as-is after the remaining kinds have been processed.
func (c *Coordinator) RunSyncPass(ctx context.Context) (Outcome, error) {
	out := Outcome{StartedAt: c.now()}
	if !c.oracle.IsOnline() {
		return out, common.ErrOffline
	}

	owners := map[string]struct{}{}
	for _, id := range c.owners {
		owners[id] = struct{}{}
	}

	var localErrs []error
	for _, e := range c.entities {
		rep, err := e.PushPending(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		if err != nil {
			c.log.Error(ctx, "push failed", "kind", string(e.Kind()), "error", err)
			localErrs = append(localErrs, fmt.Errorf("%s: %w", e.Kind(), err))
		}
		out.Reports = append(out.Reports, rep)
		for _, o := range rep.Owners {
			owners[o] = struct{}{}
		}
	}

	// history older than the retention window is not downloaded again
	var notBefore time.Time
	if c.retention > 0 {
		notBefore = out.StartedAt.Add(-c.retention)
	}

	ids := make([]string, 0, len(owners))
	for id := range owners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, e := range c.entities {
		for _, id := range ids {
			n, err := e.Refresh(ctx, id, notBefore)
			if err != nil {
				c.log.Warn(ctx, "refresh failed", "kind", string(e.Kind()), "owner", id, "error", err)
				continue
			}
			out.Refreshed += n
		}
	}

	failed := out.Failed()
	if failed == 0 && len(localErrs) == 0 {
		c.purge(ctx, &out)
	}
	out.FinishedAt = c.now()

	c.log.Info(ctx, "sync pass finished",
		"pushed", out.Pushed(), "failed", failed, "refreshed", out.Refreshed,
		"purged", out.Purged, "elapsed", out.FinishedAt.Sub(out.StartedAt))

	if len(localErrs) > 0 {
		return out, errors.Join(localErrs...)
	}
	if failed > 0 {
		return out, fmt.Errorf("%w: %d records still pending", common.ErrPartialSync, failed)
	}
	return out, nil
}

func (c *Coordinator) purge(ctx context.Context, out *Outcome) {
	if c.retention <= 0 {
		return
	}
	cutoff := c.now().Add(-c.retention)
	for _, e := range c.entities {
		n, err := e.Purge(ctx, cutoff)
		if err != nil {
			c.log.Warn(ctx, "purge failed", "kind", string(e.Kind()), "error", err)
			continue
		}
		out.Purged += n
	}
}
