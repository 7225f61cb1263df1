package ledger

import "context"

// ResetFailed moves every failed record back to pending, clearing its error,
// target, and processed time. No other status is touched.
func (s *Store) ResetFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "reset failed",
		`UPDATE ledger_items
         SET status = ?, error_message = NULL, target_path = NULL, processed_at = NULL
         WHERE status = ?`,
		StatusPending,
		StatusFailed,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
