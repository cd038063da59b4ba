package records

import (
	"context"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/models"
)

// Deletion is a server id removed locally whose remote delete has not been
// confirmed yet.
type Deletion struct {
	ServerID  string
	OwnerID   string
	DeletedAt time.Time
}

// Store persists records of a single kind.
type Store[T models.Payload] interface {
	// Insert adds a new record. LocalID must be set.
	Insert(ctx context.Context, rec *models.Record[T]) error

	// Update rewrites payload, flags and timestamps of an existing record.
	// The owner is left untouched and a server id is only filled in if none
	// is stored yet.
	Update(ctx context.Context, rec *models.Record[T]) error

	// Delete removes the row outright.
	Delete(ctx context.Context, localID string) error

	// Get returns the record in any state, tombstones included.
	Get(ctx context.Context, localID string) (*models.Record[T], error)

	// GetByServerID looks a record up by the id the server assigned.
	GetByServerID(ctx context.Context, serverID string) (*models.Record[T], error)

	// Unsynced returns records that are neither synced nor deleted, oldest first.
	Unsynced(ctx context.Context) ([]models.Record[T], error)

	// Tombstoned returns records marked deleted but not yet confirmed remotely.
	Tombstoned(ctx context.Context) ([]models.Record[T], error)

	// MarkSynced sets is_synced and records serverID if none is stored yet.
	MarkSynced(ctx context.Context, localID, serverID string) error

	// Tombstone flags the record deleted and unsynced.
	Tombstone(ctx context.Context, localID string, at time.Time) error

	// ByOwner returns the owner's active records, newest first.
	ByOwner(ctx context.Context, ownerID string) ([]models.Record[T], error)

	// ByOwnerAndDate returns the owner's active records for one day.
	ByOwnerAndDate(ctx context.Context, ownerID, date string) ([]models.Record[T], error)

	// ByOwnerAndDateRange returns active records with start <= date <= end.
	ByOwnerAndDateRange(ctx context.Context, ownerID, start, end string) ([]models.Record[T], error)

	// PurgeSyncedBefore hard-deletes synced records created before cutoff and
	// reports how many rows went away.
	PurgeSyncedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RememberDeletion notes that serverID was deleted locally without the
	// server confirming it.
	RememberDeletion(ctx context.Context, serverID, ownerID string, at time.Time) error

	// PendingDeletions lists remembered deletions, oldest first.
	PendingDeletions(ctx context.Context) ([]Deletion, error)

	// ForgetDeletion drops serverID from the pending deletions.
	ForgetDeletion(ctx context.Context, serverID string) error

	// InTx runs fn against a store bound to a single transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, s Store[T]) error) error
}
