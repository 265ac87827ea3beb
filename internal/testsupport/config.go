package testsupport

import (
	"path/filepath"
	"testing"

	"gatewarden/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Chat.BotToken = "test-token"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithWindows overrides the enforcement windows, all in hours.
func WithWindows(grace, warning, finalNotice int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Enforcement.GracePeriodHours = grace
		cfg.Enforcement.WarningWindowHours = warning
		cfg.Enforcement.FinalNoticeHours = finalNotice
	}
}

// WithoutPacing removes the per-action pauses so tests run instantly.
func WithoutPacing() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Enforcement.NotifyPause = 0
		cfg.Enforcement.RemovalPause = 0
	}
}
