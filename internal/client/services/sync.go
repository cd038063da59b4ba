package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/client/remote"
	"github.com/dmitrijs2005/nutrisync/internal/client/repositories/records"
	"github.com/dmitrijs2005/nutrisync/internal/common"
)

type pushResult int

const (
	pushSkipped pushResult = iota
	pushDone
	pushFailed
)

// PushPending replays every unsynced record against the server, then
// resolves tombstones and retries remote deletes that were never confirmed. A record without a server id is created; one that
// already has a server id is updated in place. Remote failures are counted
// in the report and leave the record pending; only local errors are returned.
func (r *Repository[T]) PushPending(ctx context.Context) (models.SyncReport, error) {
	rep := models.SyncReport{Kind: r.kind}
	owners := map[string]struct{}{}

	pending, err := r.store.Unsynced(ctx)
	if err != nil {
		return rep, fmt.Errorf("list unsynced %s: %w", r.kind, err)
	}
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res, err := r.pushOne(ctx, p.LocalID)
		if err != nil {
			return rep, err
		}
		switch res {
		case pushDone:
			rep.Pushed++
		case pushFailed:
			rep.Failed++
		}
		if res != pushSkipped {
			owners[p.OwnerID] = struct{}{}
		}
	}

	tombs, err := r.store.Tombstoned(ctx)
	if err != nil {
		return rep, fmt.Errorf("list tombstoned %s: %w", r.kind, err)
	}
	for _, t := range tombs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res, err := r.resolveTombstone(ctx, t.LocalID)
		if err != nil {
			return rep, err
		}
		switch res {
		case pushDone:
			rep.Deleted++
		case pushFailed:
			rep.Failed++
		}
		if res != pushSkipped {
			owners[t.OwnerID] = struct{}{}
		}
	}

	deletions, err := r.store.PendingDeletions(ctx)
	if err != nil {
		return rep, fmt.Errorf("list pending %s deletions: %w", r.kind, err)
	}
	for _, d := range deletions {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res, err := r.resolveDeletion(ctx, d)
		if err != nil {
			return rep, err
		}
		switch res {
		case pushDone:
			rep.Deleted++
		case pushFailed:
			rep.Failed++
		}
		owners[d.OwnerID] = struct{}{}
	}

	for o := range owners {
		rep.Owners = append(rep.Owners, o)
	}
	sort.Strings(rep.Owners)
	return rep, nil
}

func (r *Repository[T]) pushOne(ctx context.Context, localID string) (pushResult, error) {
	unlock := r.locks.Lock(localID)
	defer unlock()

	// re-read: the record may have changed while we waited for the lock
	rec, err := r.store.Get(ctx, localID)
	if errors.Is(err, common.ErrorNotFound) {
		return pushSkipped, nil
	}
	if err != nil {
		return pushSkipped, fmt.Errorf("reload %s: %w", r.kind, err)
	}
	if rec.IsSynced || rec.IsDeleted {
		return pushSkipped, nil
	}

	serverID := rec.ServerID
	if serverID == "" {
		serverID, err = r.remote.Create(ctx, rec.OwnerID, rec.LocalID, rec.Payload)
	} else {
		err = r.remote.Update(ctx, rec.OwnerID, serverID, rec.Payload)
	}
	if err != nil {
		r.log.Warn(ctx, "push failed", "local_id", localID, "server_id", rec.ServerID, "error", err)
		return pushFailed, nil
	}

	if err := r.store.MarkSynced(ctx, localID, serverID); err != nil {
		return pushSkipped, fmt.Errorf("mark %s synced: %w", r.kind, err)
	}
	r.log.Debug(ctx, "pushed", "local_id", localID, "server_id", serverID)
	return pushDone, nil
}

func (r *Repository[T]) resolveTombstone(ctx context.Context, localID string) (pushResult, error) {
	unlock := r.locks.Lock(localID)
	defer unlock()

	rec, err := r.store.Get(ctx, localID)
	if errors.Is(err, common.ErrorNotFound) {
		return pushSkipped, nil
	}
	if err != nil {
		return pushSkipped, fmt.Errorf("reload %s: %w", r.kind, err)
	}
	if !rec.IsDeleted {
		return pushSkipped, nil
	}

	if rec.ServerID != "" {
		err := r.remote.Delete(ctx, rec.ServerID)
		if err != nil && !errors.Is(err, remote.ErrNotFound) {
			r.log.Warn(ctx, "remote delete failed", "local_id", localID, "server_id", rec.ServerID, "error", err)
			return pushFailed, nil
		}
	}
	if err := r.hardDelete(ctx, localID); err != nil {
		return pushSkipped, err
	}
	return pushDone, nil
}

// resolveDeletion retries the remote delete of a record already removed
// locally. A 404 means the server no longer has it either.
func (r *Repository[T]) resolveDeletion(ctx context.Context, d records.Deletion) (pushResult, error) {
	err := r.remote.Delete(ctx, d.ServerID)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		r.log.Warn(ctx, "remote delete failed", "server_id", d.ServerID, "error", err)
		return pushFailed, nil
	}
	if err := r.store.ForgetDeletion(ctx, d.ServerID); err != nil {
		return pushSkipped, fmt.Errorf("forget %s deletion: %w", r.kind, err)
	}
	return pushDone, nil
}

// Refresh pulls the owner's records from the server. Unknown records are
// cached as synced; cached synced copies are overwritten. Records with local
// changes pending, tombstones included, are left alone, and so are server
// ids deleted locally whose remote delete is still pending. Unknown records
// created before notBefore are not cached, so purged history stays purged;
// a zero notBefore caches everything. It returns how many cached records
// were added or changed.
func (r *Repository[T]) Refresh(ctx context.Context, ownerID string, notBefore time.Time) (int, error) {
	items, err := r.remote.List(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list remote %s: %w", r.kind, err)
	}

	deletions, err := r.store.PendingDeletions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending %s deletions: %w", r.kind, err)
	}
	deleted := make(map[string]struct{}, len(deletions))
	for _, d := range deletions {
		deleted[d.ServerID] = struct{}{}
	}

	var fresh []remote.Item[T]
	changed := 0
	for _, it := range items {
		if it.OwnerID != "" && it.OwnerID != ownerID {
			r.log.Debug(ctx, "skipping record of another owner", "server_id", it.ServerID, "owner", it.OwnerID)
			continue
		}
		if _, ok := deleted[it.ServerID]; ok {
			continue
		}
		ok, err := r.overwrite(ctx, it)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			if !createdBefore(it, notBefore) {
				fresh = append(fresh, it)
			}
		case err != nil:
			return changed, err
		case ok:
			changed++
		}
	}
	if len(fresh) == 0 {
		return changed, nil
	}

	now := r.now()
	added := 0
	err = r.store.InTx(ctx, func(ctx context.Context, tx records.Store[T]) error {
		for _, it := range fresh {
			// a concurrent Create may have cached it meanwhile
			if _, err := tx.GetByServerID(ctx, it.ServerID); err == nil {
				continue
			} else if !errors.Is(err, common.ErrorNotFound) {
				return err
			}
			created := it.CreatedAt
			if created.IsZero() {
				created = now
			}
			rec := models.Record[T]{
				LocalID:   r.opts.newID(),
				ServerID:  it.ServerID,
				OwnerID:   ownerID,
				Date:      it.Payload.LogDate(),
				Payload:   it.Payload,
				IsSynced:  true,
				CreatedAt: created,
				UpdatedAt: now,
			}
			if err := tx.Insert(ctx, &rec); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return changed, fmt.Errorf("cache remote %s: %w", r.kind, err)
	}
	return changed + added, nil
}

// createdBefore reports whether it predates cutoff. The server's createdAt
// is used when known, otherwise the start of the record's day.
func createdBefore[T models.Payload](it remote.Item[T], cutoff time.Time) bool {
	if cutoff.IsZero() {
		return false
	}
	if !it.CreatedAt.IsZero() {
		return it.CreatedAt.Before(cutoff)
	}
	day, err := time.Parse(models.DayLayout, it.Payload.LogDate())
	if err != nil {
		return false
	}
	return day.Before(cutoff)
}

// overwrite replaces the cached copy of it when that copy is synced.
// It returns common.ErrorNotFound when nothing local carries it.ServerID.
func (r *Repository[T]) overwrite(ctx context.Context, it remote.Item[T]) (bool, error) {
	rec, err := r.store.GetByServerID(ctx, it.ServerID)
	if err != nil {
		return false, err
	}

	unlock := r.locks.Lock(rec.LocalID)
	defer unlock()

	rec, err = r.store.Get(ctx, rec.LocalID)
	if err != nil {
		return false, err
	}
	if !rec.IsSynced || rec.IsDeleted {
		return false, nil
	}
	rec.Payload = it.Payload
	rec.IsSynced = true
	rec.UpdatedAt = r.now()
	if err := r.store.Update(ctx, rec); err != nil {
		return false, fmt.Errorf("refresh %s: %w", r.kind, err)
	}
	return true, nil
}
