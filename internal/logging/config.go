package logging

import "go.uber.org/zap/zapcore"

// Config controls the verbosity and encoding of the process-wide logger.
type Config struct {
	// Level is the minimum severity that gets logged.
	Level zapcore.Level `yaml:"level"`
}

// DefaultConfig returns the logging configuration used when a YAML config
// omits the `logging` section entirely.
func DefaultConfig() *Config {
	return &Config{Level: zapcore.InfoLevel}
}
