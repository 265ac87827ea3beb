package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Chat contains connection settings for the chat platform REST API.
type Chat struct {
	APIBaseURL     string `toml:"api_base_url"`
	BotToken       string `toml:"bot_token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Enforcement contains the lifecycle windows and scheduler cadence.
//
// Window fields are hours; intervals and pauses are seconds. The defaults
// mirror the product behavior: three days of grace, a one week warning
// window, and a final notice two days before the removal deadline.
type Enforcement struct {
	TickInterval       int `toml:"tick_interval"`
	GracePeriodHours   int `toml:"grace_period_hours"`
	WarningWindowHours int `toml:"warning_window_hours"`
	FinalNoticeHours   int `toml:"final_notice_hours"`
	WarningRetryLimit  int `toml:"warning_retry_limit"`
	NotifyPause        int `toml:"notify_pause"`
	RemovalPause       int `toml:"removal_pause"`
}

// Cleanup contains retention settings for terminal records.
type Cleanup struct {
	SweepInterval int `toml:"sweep_interval"`
	RetentionDays int `toml:"retention_days"`
}

// FunFacts contains settings for the fun fact feature.
type FunFacts struct {
	Path          string `toml:"path"`
	DailyPostHour int    `toml:"daily_post_hour"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for gatewarden.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Chat: platform REST API endpoint and bot credentials
//   - Enforcement: lifecycle windows, tick cadence, retry limit, pacing
//   - Cleanup: removed-record retention sweeping
//   - FunFacts: fact file location and optional daily post hour
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Chat        Chat        `toml:"chat"`
	Enforcement Enforcement `toml:"enforcement"`
	Cleanup     Cleanup     `toml:"cleanup"`
	FunFacts    FunFacts    `toml:"fun_facts"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/gatewarden/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path and the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gatewarden.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.FunFacts.Path, err = ExpandPath(c.FunFacts.Path); err != nil {
		return err
	}

	if strings.TrimSpace(c.Chat.BotToken) == "" {
		c.Chat.BotToken = strings.TrimSpace(os.Getenv("GATEWARDEN_BOT_TOKEN"))
	}
	c.Chat.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Chat.APIBaseURL), "/")
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the roster database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "roster.db")
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration file to the target path,
// refusing to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath expands a leading tilde and resolves the path to absolute form.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
