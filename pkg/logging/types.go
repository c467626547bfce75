package logging

import (
	"fmt"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	// LogLevelDebug is for debug messages
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is for informational messages
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is for warning messages
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is for error messages
	LogLevelError LogLevel = "error"
)

// Config holds logging configuration
type Config struct {
	// AppLogPath is the application log file; empty logs to stdout
	AppLogPath string
	// AccessLogPath is the per-request log file; empty discards
	AccessLogPath string
	// Level is the minimum application log level
	Level LogLevel
	// MaxSize is the rotation threshold in bytes for file-backed logs
	MaxSize int64
	// VerifyInterval is how often file identity is re-checked
	VerifyInterval time.Duration
}

var (
	// App is the global application logger
	App *AppLogger
	// Access is the global access logger
	Access AccessLogger
)

func init() {
	// No-op loggers by default so packages can log before Initialize
	var err error

	App, err = NewAppLogger("", LogLevelInfo, 0, 0)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default app logger: %v", err))
	}

	Access, err = NewAccessLogger("")
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default access logger: %v", err))
	}
}

// Initialize sets up the global loggers
func Initialize(config *Config) error {
	level := config.Level
	if level == "" {
		level = LogLevelInfo
	}
	maxSize := config.MaxSize
	if maxSize == 0 {
		maxSize = 64 * 1024 * 1024
	}
	verifyInterval := config.VerifyInterval
	if verifyInterval == 0 {
		verifyInterval = time.Minute
	}

	newAccess, err := NewAccessLogger(config.AccessLogPath)
	if err != nil {
		return fmt.Errorf("failed to initialize access logger: %w", err)
	}

	newApp, err := NewAppLogger(config.AppLogPath, level, maxSize, verifyInterval)
	if err != nil {
		return fmt.Errorf("failed to initialize app logger: %w", err)
	}

	Access = newAccess
	App = newApp
	return nil
}
