package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Register inserts a pending record for entry unless its key already exists.
// It reports whether a new row was created. Registering a known key is a
// no-op regardless of the existing record's status.
func (s *Store) Register(ctx context.Context, entry Entry) (bool, error) {
	if entry.Key.Kind == "" || strings.TrimSpace(entry.Key.SourceID) == "" {
		return false, errors.New("ledger entry requires source kind and source id")
	}
	res, err := s.execWithRetry(ctx, "register",
		`INSERT OR IGNORE INTO ledger_items (source_kind, source_id, file_path, title, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		string(entry.Key.Kind),
		entry.Key.SourceID,
		nullableString(entry.FilePath),
		nullableString(entry.Title),
		StatusPending,
		formatTime(time.Now()),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("register rows affected: %w", err)
	}
	return affected > 0, nil
}

// Get returns the record for key or ErrNotFound.
func (s *Store) Get(ctx context.Context, key Key) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM ledger_items WHERE source_kind = ? AND source_id = ?`,
		string(key.Kind), key.SourceID,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return record, nil
}

// Complete records a terminal outcome for a pending record in one statement.
// A record that already left pending is not touched and ErrNotPending is
// returned, which makes repeated completion of the same key harmless.
func (s *Store) Complete(ctx context.Context, key Key, outcome Outcome) error {
	if err := outcome.validate(); err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx, "complete",
		`UPDATE ledger_items
         SET status = ?, target_path = ?, error_message = ?, is_duplicate = ?, duplicate_of = ?, processed_at = ?
         WHERE source_kind = ? AND source_id = ? AND status = ?`,
		outcome.Status,
		nullableString(outcome.TargetPath),
		nullableString(outcome.Error),
		boolToInt(outcome.DuplicateOf != ""),
		nullableString(outcome.DuplicateOf),
		formatTime(time.Now()),
		string(key.Kind),
		key.SourceID,
		StatusPending,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	existing, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s is %s", ErrNotPending, key, existing.Status)
}

// PendingKeys returns pending keys in insertion order. A limit <= 0 returns
// every pending key.
func (s *Store) PendingKeys(ctx context.Context, limit int) ([]Key, error) {
	query := `SELECT source_kind, source_id FROM ledger_items WHERE status = ? ORDER BY seq`
	args := []any{StatusPending}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pending keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, err
		}
		keys = append(keys, Key{Kind: SourceKind(kind), SourceID: id})
	}
	return keys, rows.Err()
}

// ListByStatus returns records in status ordered by insertion. A limit <= 0
// returns every matching record.
func (s *Store) ListByStatus(ctx context.Context, status Status, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM ledger_items WHERE status = ? ORDER BY seq`
	args := []any{status}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryRecords(ctx, query, args...)
}

// Failed returns every failed record in insertion order.
func (s *Store) Failed(ctx context.Context) ([]Record, error) {
	return s.ListByStatus(ctx, StatusFailed, 0)
}

// Succeeded returns successful records that were actually placed in the target
// tree (not duplicates), in insertion order.
func (s *Store) Succeeded(ctx context.Context) ([]Record, error) {
	return s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM ledger_items
         WHERE status = ? AND is_duplicate = 0 AND file_path IS NOT NULL
         ORDER BY seq`,
		StatusSuccess,
	)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}
