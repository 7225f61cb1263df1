package ledger

import (
	"context"
	"fmt"
)

// Stats returns record counts grouped by status plus the duplicate count.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1), COALESCE(SUM(is_duplicate), 0) FROM ledger_items GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			status     Status
			count      int
			duplicates int
		)
		if err := rows.Scan(&status, &count, &duplicates); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		stats.Duplicates += duplicates
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusSuccess:
			stats.Success = count
		case StatusFailed:
			stats.Failed = count
		case StatusSkipped:
			stats.Skipped = count
		}
	}
	return stats, rows.Err()
}
