package config

const (
	defaultDataDir            = "~/.local/share/gatewarden"
	defaultLogDir             = "~/.local/share/gatewarden/logs"
	defaultAPIBaseURL         = "https://discord.com/api/v10"
	defaultRequestTimeout     = 15
	defaultTickInterval       = 300
	defaultGracePeriodHours   = 72
	defaultWarningWindowHours = 168
	defaultFinalNoticeHours   = 48
	defaultWarningRetryLimit  = 3
	defaultNotifyPause        = 1
	defaultRemovalPause       = 5
	defaultSweepInterval      = 86400
	defaultRetentionDays      = 7
	defaultFactsPath          = "~/.config/gatewarden/funfacts.yaml"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Chat: Chat{
			APIBaseURL:     defaultAPIBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Enforcement: Enforcement{
			TickInterval:       defaultTickInterval,
			GracePeriodHours:   defaultGracePeriodHours,
			WarningWindowHours: defaultWarningWindowHours,
			FinalNoticeHours:   defaultFinalNoticeHours,
			WarningRetryLimit:  defaultWarningRetryLimit,
			NotifyPause:        defaultNotifyPause,
			RemovalPause:       defaultRemovalPause,
		},
		Cleanup: Cleanup{
			SweepInterval: defaultSweepInterval,
			RetentionDays: defaultRetentionDays,
		},
		FunFacts: FunFacts{
			Path:          defaultFactsPath,
			DailyPostHour: -1,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
