package enforcer

import (
	"context"
	"fmt"
	"time"

	"gatewarden/internal/logging"
)

// Sweep deletes removed-member records older than the retention window and
// returns the number purged.
func (m *Manager) Sweep(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-m.cfg.Retention())
	purged, err := m.store.PurgeRemovedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge removed members: %w", err)
	}
	if purged > 0 {
		m.logger.Info("cleanup sweep complete",
			logging.Int64("purged", purged),
			logging.Time("cutoff", cutoff),
		)
	}
	return purged, nil
}
