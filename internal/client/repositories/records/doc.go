// Package records is the local persistence layer for cached log records.
//
// # Overview
//
// Store[T] describes the operations the sync layer needs on one entity kind;
// SQLiteStore[T] implements it over a dbx.DBTX (either *sql.DB or *sql.Tx).
// Each kind lives in its own table (see models.Kind.Table) with the same
// columns: local and server ids, owner, calendar date, JSON payload, the
// synced and deleted flags, and creation/update timestamps.
//
// # Reads
//
// "Active" reads (ByOwner, ByOwnerAndDate, ByOwnerAndDateRange) never return
// tombstones and are ordered newest first. Get and GetByServerID return a
// record in any state, so callers can tell a tombstone from a missing row.
//
// # Identity
//
// A server id is assigned at most once. MarkSynced and Update refuse to
// replace a different, already stored server id and return
// common.ErrServerIDConflict; owner ids are never rewritten.
//
// Typical Usage
//
//	store := records.NewSQLiteStore[models.WaterLog](db)
//	_ = store.Insert(ctx, &rec)
//	pending, _ := store.Unsynced(ctx)
//	_ = store.MarkSynced(ctx, rec.LocalID, "srv-1")
package records
