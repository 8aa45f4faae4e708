package config

const (
	defaultAPIBaseURL            = "http://localhost:5000"
	defaultStateDir              = "~/.local/share/audioscribe"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNotifyRequestTimeout  = 10
	defaultHistoryEnabled        = true
	defaultAPIRequestTimeoutSecs = 0
)

// Compiled-in upload limits.
const (
	MaxBatchSize      = 2
	MaxFilenameLength = 100
)

var allowedSuffixes = []string{".mp3", ".wav"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultAPIBaseURL,
			RequestTimeout: defaultAPIRequestTimeoutSecs,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Batch:          true,
			Health:         true,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
	}
}
