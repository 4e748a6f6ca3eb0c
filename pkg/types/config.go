package types

import "time"

// Config holds the daemon settings loaded from config.yaml and flags.
type Config struct {
	Addr        string        `json:"addr" yaml:"addr"`
	Listen      string        `json:"listen" yaml:"listen"`
	DataDir     string        `json:"data_dir" yaml:"data_dir,omitempty"`
	DBPath      string        `json:"db_path" yaml:"db_path,omitempty"`
	FreshDB     bool          `json:"fresh_db" yaml:"fresh_db"`
	BufferSize  int           `json:"buffer_size" yaml:"buffer_size"`
	MetricsAddr string        `json:"metrics_addr" yaml:"metrics_addr,omitempty"`
	LogLevel    string        `json:"log_level" yaml:"log_level,omitempty"`
	Reconnect   BackoffConfig `json:"reconnect" yaml:"reconnect"`
}

// BackoffConfig defines reconnect backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`
	Multiplier   float64       `json:"multiplier" yaml:"multiplier"`
	MaxDelay     time.Duration `json:"max_delay" yaml:"max_delay"`

	// MaxAttempts bounds consecutive failed connections; 0 is unlimited.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
}

// Defaults shared by the CLI and tests.
const (
	DefaultAddr       = "127.0.0.1:2001"
	DefaultListen     = ":2001"
	DefaultBufferSize = 64 * 1024
	DefaultDBName     = "daqd.db"
)

// DefaultBackoff returns the reconnect defaults.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}
}

// Validate checks that the Config is well-formed. minBuffer is the largest
// frame the decoder must be able to hold.
func (c Config) Validate(minBuffer int) error {
	if c.DBPath == "" {
		return ErrDBPathEmpty
	}
	if c.BufferSize < minBuffer {
		return ErrBufferTooSmall
	}
	return c.Reconnect.Validate()
}

// Validate checks the backoff parameters.
func (b BackoffConfig) Validate() error {
	if b.InitialDelay <= 0 || b.MaxDelay <= 0 {
		return ErrBackoffInvalid
	}
	if b.Multiplier < 1.0 {
		return ErrMultiplierInvalid
	}
	if b.MaxAttempts < 0 {
		return ErrMaxAttemptsInvalid
	}
	return nil
}
