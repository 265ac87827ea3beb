package config

import "time"

// GracePeriod returns the configured grace period as a duration.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Enforcement.GracePeriodHours) * time.Hour
}

// WarningWindow returns the time from pending-removal marking to removal.
func (c *Config) WarningWindow() time.Duration {
	return time.Duration(c.Enforcement.WarningWindowHours) * time.Hour
}

// FinalNoticeLead returns how long before the removal deadline the final
// notice fires.
func (c *Config) FinalNoticeLead() time.Duration {
	return time.Duration(c.Enforcement.FinalNoticeHours) * time.Hour
}

// TickInterval returns the reconciliation cadence.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Enforcement.TickInterval) * time.Second
}

// SweepInterval returns the cleanup sweeper cadence.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Cleanup.SweepInterval) * time.Second
}

// Retention returns how long removed records are kept before purging.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Cleanup.RetentionDays) * 24 * time.Hour
}

// NotifyPause returns the pacing delay after a notification send.
func (c *Config) NotifyPause() time.Duration {
	return time.Duration(c.Enforcement.NotifyPause) * time.Second
}

// RemovalPause returns the pacing delay after a removal.
func (c *Config) RemovalPause() time.Duration {
	return time.Duration(c.Enforcement.RemovalPause) * time.Second
}
