package roster

import (
	"context"
	"fmt"
	"time"
)

// PurgeRemovedBefore deletes members that reached the removed state before
// the cutoff. No other state is touched; re-admitted members left the
// removed state already and never match the filter.
func (s *Store) PurgeRemovedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM members WHERE status = ? AND removed_at IS NOT NULL AND removed_at <= ?`,
		StateRemoved,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("purge removed members: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of members grouped by state across all guilds.
func (s *Store) Stats(ctx context.Context) (map[State]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM members GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("roster stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[State]int)
	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}
