package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateChat(); err != nil {
		return err
	}
	if err := c.validateEnforcement(); err != nil {
		return err
	}
	if err := c.validateCleanup(); err != nil {
		return err
	}
	if err := c.validateFunFacts(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateChat() error {
	if strings.TrimSpace(c.Chat.APIBaseURL) == "" {
		return errors.New("chat.api_base_url must be set")
	}
	if c.Chat.RequestTimeout <= 0 {
		return errors.New("chat.request_timeout must be positive")
	}
	// An empty bot token is allowed: the daemon degrades to a no-op
	// transport so the store and CLI remain usable offline.
	return nil
}

func (c *Config) validateEnforcement() error {
	if err := ensurePositive(map[string]int{
		"enforcement.tick_interval":        c.Enforcement.TickInterval,
		"enforcement.grace_period_hours":   c.Enforcement.GracePeriodHours,
		"enforcement.warning_window_hours": c.Enforcement.WarningWindowHours,
		"enforcement.final_notice_hours":   c.Enforcement.FinalNoticeHours,
		"enforcement.warning_retry_limit":  c.Enforcement.WarningRetryLimit,
	}); err != nil {
		return err
	}
	if c.Enforcement.NotifyPause < 0 || c.Enforcement.RemovalPause < 0 {
		return errors.New("enforcement pauses must not be negative")
	}
	if c.Enforcement.FinalNoticeHours >= c.Enforcement.WarningWindowHours {
		return errors.New("enforcement.final_notice_hours must be shorter than enforcement.warning_window_hours")
	}
	return nil
}

func (c *Config) validateCleanup() error {
	return ensurePositive(map[string]int{
		"cleanup.sweep_interval": c.Cleanup.SweepInterval,
		"cleanup.retention_days": c.Cleanup.RetentionDays,
	})
}

func (c *Config) validateFunFacts() error {
	if c.FunFacts.DailyPostHour < -1 || c.FunFacts.DailyPostHour > 23 {
		return errors.New("fun_facts.daily_post_hour must be between 0 and 23, or -1 to disable")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositive(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
