// Package services implements the online-first entity repositories.
//
// A Repository[T] fronts one entity kind. Writes try the server first when
// the device looks online and fall back to the local cache otherwise; reads
// only ever touch the cache. Records that could not be written remotely stay
// unsynced until the sync coordinator calls PushPending.
//
// Key Types
//
//   - type Repository[T]: create/read/update/delete plus the sync hooks
//   - type HabitRepository: tombstone deletes and completion toggling
//   - type Repositories: the five repositories wired to one cache and client
//
// All writers of a given record, including the sync pass, serialise on a
// per-local-id lock, so at most one write for a record is in flight.
package services
