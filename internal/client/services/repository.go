package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/client/remote"
	"github.com/dmitrijs2005/nutrisync/internal/client/repositories/records"
	"github.com/dmitrijs2005/nutrisync/internal/common"
	"github.com/dmitrijs2005/nutrisync/internal/dbx"
	"github.com/dmitrijs2005/nutrisync/internal/logging"
	"github.com/google/uuid"
)

// OfflineID is reported as the id of a record that was only stored locally.
const OfflineID = "offline"

var ErrNoOwner = errors.New("owner id is required")

// RemoteEndpoint is the server side of one entity kind.
type RemoteEndpoint[T models.Payload] interface {
	Create(ctx context.Context, ownerID, localID string, p T) (string, error)
	Update(ctx context.Context, ownerID, serverID string, p T) error
	Delete(ctx context.Context, serverID string) error
	List(ctx context.Context, ownerID string) ([]remote.Item[T], error)
}

// Oracle answers whether the server is believed reachable right now.
type Oracle interface {
	IsOnline() bool
}

// DeletePolicy decides what happens locally when a remote delete cannot be
// confirmed.
type DeletePolicy int

const (
	// HardDelete removes the local row regardless of the remote outcome.
	HardDelete DeletePolicy = iota
	// Tombstone keeps a deleted marker until the server confirms the delete.
	Tombstone
)

type options struct {
	now    func() time.Time
	newID  func() string
	policy DeletePolicy
}

type Option func(*options)

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

func WithIDGenerator(gen func() string) Option { return func(o *options) { o.newID = gen } }

func WithDeletePolicy(p DeletePolicy) Option { return func(o *options) { o.policy = p } }

// Created is the result of Create. ServerID is empty when the record was
// only stored locally.
type Created struct {
	LocalID  string
	ServerID string
}

// ID is the server id, or OfflineID when the server has not seen the record.
func (c Created) ID() string {
	if c.ServerID == "" {
		return OfflineID
	}
	return c.ServerID
}

type Repository[T models.Payload] struct {
	kind   models.Kind
	store  records.Store[T]
	remote RemoteEndpoint[T]
	oracle Oracle
	log    logging.Logger
	locks  dbx.KeyedMutex
	opts   options
}

func NewRepository[T models.Payload](store records.Store[T], endpoint RemoteEndpoint[T], oracle Oracle,
	log logging.Logger, opts ...Option) *Repository[T] {
	var zero T
	o := options{now: time.Now, newID: uuid.NewString, policy: HardDelete}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{
		kind:   zero.Kind(),
		store:  store,
		remote: endpoint,
		oracle: oracle,
		log:    log.With("kind", string(zero.Kind())),
		opts:   o,
	}
}

func (r *Repository[T]) Kind() models.Kind { return r.kind }

func (r *Repository[T]) now() time.Time { return r.opts.now().UTC() }

// Create stores p for ownerID. When online it is created on the server first;
// any remote failure leaves a local, unsynced record instead. Only local
// storage errors are returned.
func (r *Repository[T]) Create(ctx context.Context, ownerID string, p T) (Created, error) {
	if ownerID == "" {
		return Created{}, ErrNoOwner
	}
	if err := models.ValidateDate(p.LogDate()); err != nil {
		return Created{}, err
	}

	now := r.now()
	rec := models.Record[T]{
		LocalID:   r.opts.newID(),
		OwnerID:   ownerID,
		Date:      p.LogDate(),
		Payload:   p,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if r.oracle.IsOnline() {
		serverID, err := r.remote.Create(ctx, ownerID, rec.LocalID, p)
		if err != nil {
			r.log.Warn(ctx, "remote create failed, kept locally", "local_id", rec.LocalID, "error", err)
		} else {
			rec.ServerID = serverID
			rec.IsSynced = true
		}
	}

	if err := r.store.Insert(ctx, &rec); err != nil {
		if cached, ok := r.cachedByServerID(ctx, rec.ServerID); ok {
			// a refresh cached the new server record first
			return Created{LocalID: cached.LocalID, ServerID: cached.ServerID}, nil
		}
		return Created{}, fmt.Errorf("save %s: %w", r.kind, err)
	}
	return Created{LocalID: rec.LocalID, ServerID: rec.ServerID}, nil
}

func (r *Repository[T]) cachedByServerID(ctx context.Context, serverID string) (*models.Record[T], bool) {
	if serverID == "" {
		return nil, false
	}
	rec, err := r.store.GetByServerID(ctx, serverID)
	return rec, err == nil
}

// ReadByDate lists the owner's records for one day, newest first.
func (r *Repository[T]) ReadByDate(ctx context.Context, ownerID, date string) ([]models.Record[T], error) {
	recs, err := r.store.ByOwnerAndDate(ctx, ownerID, date)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.kind, err)
	}
	return recs, nil
}

// ReadByRange lists records dated between start and end inclusive.
func (r *Repository[T]) ReadByRange(ctx context.Context, ownerID, start, end string) ([]models.Record[T], error) {
	recs, err := r.store.ByOwnerAndDateRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.kind, err)
	}
	return recs, nil
}

// Get returns an active record; tombstones are reported as not found.
func (r *Repository[T]) Get(ctx context.Context, localID string) (*models.Record[T], error) {
	rec, err := r.store.Get(ctx, localID)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", r.kind, localID, err)
	}
	if rec.IsDeleted {
		return nil, fmt.Errorf("get %s %s: %w", r.kind, localID, common.ErrorNotFound)
	}
	return rec, nil
}

// Delete removes a record. A record the server knows about is deleted
// remotely when online; what happens when that is not possible depends on
// the repository's DeletePolicy.
func (r *Repository[T]) Delete(ctx context.Context, localID string) error {
	unlock := r.locks.Lock(localID)
	defer unlock()

	rec, err := r.Get(ctx, localID)
	if err != nil {
		return err
	}

	if rec.ServerID == "" {
		return r.hardDelete(ctx, localID)
	}

	if !r.oracle.IsOnline() {
		return r.deleteUnconfirmed(ctx, rec, nil)
	}

	err = r.remote.Delete(ctx, rec.ServerID)
	if err == nil || errors.Is(err, remote.ErrNotFound) {
		return r.hardDelete(ctx, localID)
	}
	return r.deleteUnconfirmed(ctx, rec, err)
}

func (r *Repository[T]) deleteUnconfirmed(ctx context.Context, rec *models.Record[T], cause error) error {
	if r.opts.policy == Tombstone {
		if cause != nil {
			r.log.Warn(ctx, "remote delete failed, tombstoned", "local_id", rec.LocalID, "server_id", rec.ServerID, "error", cause)
		}
		if err := r.store.Tombstone(ctx, rec.LocalID, r.now()); err != nil {
			return fmt.Errorf("tombstone %s: %w", r.kind, err)
		}
		return nil
	}
	if cause != nil {
		r.log.Warn(ctx, "remote delete failed, deleting locally", "local_id", rec.LocalID, "server_id", rec.ServerID, "error", cause)
	}
	// refresh skips remembered server ids; the next pass retries the delete
	err := r.store.InTx(ctx, func(ctx context.Context, tx records.Store[T]) error {
		if err := tx.Delete(ctx, rec.LocalID); err != nil {
			return err
		}
		return tx.RememberDeletion(ctx, rec.ServerID, rec.OwnerID, r.now())
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.kind, err)
	}
	return nil
}

func (r *Repository[T]) hardDelete(ctx context.Context, localID string) error {
	if err := r.store.Delete(ctx, localID); err != nil {
		return fmt.Errorf("delete %s: %w", r.kind, err)
	}
	return nil
}

// Update applies mutate to the record's payload and stores it as unsynced.
// If the server already has the record and the device is online, the change
// is pushed at once and the record flips back to synced on success.
func (r *Repository[T]) Update(ctx context.Context, localID string, mutate func(*T)) (*models.Record[T], error) {
	unlock := r.locks.Lock(localID)
	defer unlock()

	rec, err := r.Get(ctx, localID)
	if err != nil {
		return nil, err
	}

	mutate(&rec.Payload)
	if err := models.ValidateDate(rec.Payload.LogDate()); err != nil {
		return nil, err
	}
	rec.IsSynced = false
	rec.UpdatedAt = r.now()
	if err := r.store.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("update %s: %w", r.kind, err)
	}

	if rec.ServerID == "" || !r.oracle.IsOnline() {
		return rec, nil
	}
	if err := r.remote.Update(ctx, rec.OwnerID, rec.ServerID, rec.Payload); err != nil {
		r.log.Warn(ctx, "remote update failed, kept locally", "local_id", localID, "server_id", rec.ServerID, "error", err)
		return rec, nil
	}
	if err := r.store.MarkSynced(ctx, localID, rec.ServerID); err != nil {
		return nil, fmt.Errorf("mark %s synced: %w", r.kind, err)
	}
	rec.IsSynced = true
	return rec, nil
}

// Purge drops synced records created before cutoff from the cache.
func (r *Repository[T]) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := r.store.PurgeSyncedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", r.kind, err)
	}
	return n, nil
}
