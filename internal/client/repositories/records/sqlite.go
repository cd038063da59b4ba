package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/common"
	"github.com/dmitrijs2005/nutrisync/internal/dbx"
)

const columns = `local_id, server_id, owner_id, log_date, payload, is_synced, is_deleted, created_at, updated_at`

// SQLiteStore implements Store over the kind's table.
type SQLiteStore[T models.Payload] struct {
	db    dbx.DBTX
	kind  models.Kind
	table string
}

func NewSQLiteStore[T models.Payload](db dbx.DBTX) *SQLiteStore[T] {
	var zero T
	k := zero.Kind()
	return &SQLiteStore[T]{db: db, kind: k, table: k.Table()}
}

func (s *SQLiteStore[T]) Kind() models.Kind { return s.kind }

func (s *SQLiteStore[T]) Insert(ctx context.Context, rec *models.Record[T]) error {
	if rec.LocalID == "" {
		return fmt.Errorf("insert %s: empty local id", s.kind)
	}
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", s.kind, err)
	}
	if rec.Date == "" {
		rec.Date = rec.Payload.LogDate()
	}

	query := fmt.Sprintf(`INSERT INTO %s (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, query,
		rec.LocalID, nullable(rec.ServerID), rec.OwnerID, rec.Date, string(payload),
		rec.IsSynced, rec.IsDeleted, rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", s.kind, err)
	}
	return nil
}

func (s *SQLiteStore[T]) Update(ctx context.Context, rec *models.Record[T]) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", s.kind, err)
	}
	rec.Date = rec.Payload.LogDate()

	query := fmt.Sprintf(`UPDATE %s SET
			server_id = COALESCE(server_id, ?),
			log_date = ?, payload = ?, is_synced = ?, is_deleted = ?, updated_at = ?
		WHERE local_id = ? AND (? IS NULL OR server_id IS NULL OR server_id = ?)`, s.table)
	sid := nullable(rec.ServerID)
	res, err := s.db.ExecContext(ctx, query,
		sid, rec.Date, string(payload), rec.IsSynced, rec.IsDeleted, rec.UpdatedAt.UnixNano(),
		rec.LocalID, sid, sid)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", s.kind, err)
	}
	return s.checkAffected(ctx, res, rec.LocalID)
}

func (s *SQLiteStore[T]) Delete(ctx context.Context, localID string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE local_id = ?`, s.table), localID)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (s *SQLiteStore[T]) Get(ctx context.Context, localID string) (*models.Record[T], error) {
	return s.getOne(ctx, "local_id", localID)
}

func (s *SQLiteStore[T]) GetByServerID(ctx context.Context, serverID string) (*models.Record[T], error) {
	return s.getOne(ctx, "server_id", serverID)
}

func (s *SQLiteStore[T]) Unsynced(ctx context.Context) ([]models.Record[T], error) {
	return s.list(ctx, `is_synced = 0 AND is_deleted = 0 ORDER BY created_at ASC, rowid ASC`)
}

func (s *SQLiteStore[T]) Tombstoned(ctx context.Context) ([]models.Record[T], error) {
	return s.list(ctx, `is_deleted = 1 ORDER BY created_at ASC, rowid ASC`)
}

func (s *SQLiteStore[T]) MarkSynced(ctx context.Context, localID, serverID string) error {
	sid := nullable(serverID)
	query := fmt.Sprintf(`UPDATE %s SET server_id = COALESCE(server_id, ?), is_synced = 1
		WHERE local_id = ? AND (? IS NULL OR server_id IS NULL OR server_id = ?)`, s.table)
	res, err := s.db.ExecContext(ctx, query, sid, localID, sid, sid)
	if err != nil {
		return fmt.Errorf("failed to mark %s synced: %w", s.kind, err)
	}
	return s.checkAffected(ctx, res, localID)
}

func (s *SQLiteStore[T]) Tombstone(ctx context.Context, localID string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET is_deleted = 1, is_synced = 0, updated_at = ? WHERE local_id = ?`, s.table)
	res, err := s.db.ExecContext(ctx, query, at.UnixNano(), localID)
	if err != nil {
		return fmt.Errorf("failed to tombstone %s: %w", s.kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (s *SQLiteStore[T]) ByOwner(ctx context.Context, ownerID string) ([]models.Record[T], error) {
	return s.list(ctx, `owner_id = ? AND is_deleted = 0 ORDER BY created_at DESC, rowid DESC`, ownerID)
}

func (s *SQLiteStore[T]) ByOwnerAndDate(ctx context.Context, ownerID, date string) ([]models.Record[T], error) {
	return s.list(ctx, `owner_id = ? AND log_date = ? AND is_deleted = 0
		ORDER BY created_at DESC, rowid DESC`, ownerID, date)
}

func (s *SQLiteStore[T]) ByOwnerAndDateRange(ctx context.Context, ownerID, start, end string) ([]models.Record[T], error) {
	return s.list(ctx, `owner_id = ? AND log_date >= ? AND log_date <= ? AND is_deleted = 0
		ORDER BY created_at DESC, rowid DESC`, ownerID, start, end)
}

func (s *SQLiteStore[T]) PurgeSyncedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE is_synced = 1 AND is_deleted = 0 AND created_at < ?`, s.table)
	res, err := s.db.ExecContext(ctx, query, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", s.kind, err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore[T]) RememberDeletion(ctx context.Context, serverID, ownerID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO pending_deletions
		(kind, server_id, owner_id, deleted_at) VALUES (?, ?, ?, ?)`,
		string(s.kind), serverID, ownerID, at.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to remember %s deletion: %w", s.kind, err)
	}
	return nil
}

func (s *SQLiteStore[T]) PendingDeletions(ctx context.Context) ([]Deletion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT server_id, owner_id, deleted_at
		FROM pending_deletions WHERE kind = ? ORDER BY deleted_at ASC, server_id ASC`, string(s.kind))
	if err != nil {
		return nil, fmt.Errorf("failed to select %s deletions: %w", s.kind, err)
	}
	defer rows.Close()

	var result []Deletion
	for rows.Next() {
		var (
			d  Deletion
			at int64
		)
		if err := rows.Scan(&d.ServerID, &d.OwnerID, &at); err != nil {
			return nil, fmt.Errorf("failed to scan %s deletion: %w", s.kind, err)
		}
		d.DeletedAt = time.Unix(0, at).UTC()
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLiteStore[T]) ForgetDeletion(ctx context.Context, serverID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_deletions WHERE kind = ? AND server_id = ?`,
		string(s.kind), serverID)
	if err != nil {
		return fmt.Errorf("failed to forget %s deletion: %w", s.kind, err)
	}
	return nil
}

func (s *SQLiteStore[T]) InTx(ctx context.Context, fn func(ctx context.Context, s Store[T]) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		// already inside a transaction
		return fn(ctx, s)
	}
	return dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLiteStore[T]{db: tx, kind: s.kind, table: s.table})
	})
}

// checkAffected turns a zero-row conditional update into ErrorNotFound or
// ErrServerIDConflict, depending on whether the row exists.
func (s *SQLiteStore[T]) checkAffected(ctx context.Context, res sql.Result, localID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.Get(ctx, localID); err != nil {
		return err
	}
	return common.ErrServerIDConflict
}

func (s *SQLiteStore[T]) getOne(ctx context.Context, column, value string) (*models.Record[T], error) {
	query := fmt.Sprintf(`SELECT `+columns+` FROM %s WHERE %s = ?`, s.table, column)
	rec, err := s.scan(s.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.kind, err)
	}
	return rec, nil
}

func (s *SQLiteStore[T]) list(ctx context.Context, where string, args ...any) ([]models.Record[T], error) {
	query := fmt.Sprintf(`SELECT `+columns+` FROM %s WHERE `+where, s.table)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", s.kind, err)
	}
	defer rows.Close()

	var result []models.Record[T]
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.kind, err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore[T]) scan(row scanner) (*models.Record[T], error) {
	var (
		rec                models.Record[T]
		serverID           sql.NullString
		payload            string
		created, updated   int64
		isSynced, isDelete bool
	)
	if err := row.Scan(&rec.LocalID, &serverID, &rec.OwnerID, &rec.Date, &payload,
		&isSynced, &isDelete, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
		return nil, fmt.Errorf("decode payload of %s: %w", rec.LocalID, err)
	}
	rec.ServerID = serverID.String
	rec.IsSynced = isSynced
	rec.IsDeleted = isDelete
	rec.CreatedAt = time.Unix(0, created).UTC()
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
