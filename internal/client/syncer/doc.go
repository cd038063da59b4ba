// Package syncer reconciles the local cache with the server.
//
// Coordinator.RunSyncPass performs one full pass: push every pending record
// of every kind, resolve tombstones, refresh the owners that were touched and
// finally trim old synced rows. Scheduler decides when passes run (on
// reconnect, periodically while online, and on demand) and makes sure only
// one runs at a time.
package syncer
