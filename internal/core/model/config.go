package model

import "time"

// MaxTimersLimit is the hard upper bound on live timers.
const MaxTimersLimit = 5

// DefaultTimestampLayout mirrors the en-US locale date-time string.
const DefaultTimestampLayout = "1/2/2006, 3:04:05 PM"

// RegistryConfig contains runtime settings for the stopwatch registry.
type RegistryConfig struct {
	MaxTimers    int
	TickInterval time.Duration

	// ResetRecordsHistory makes Reset append a history record for a running
	// timer before zeroing it.
	ResetRecordsHistory bool
	TimestampLayout     string
}

// DefaultRegistryConfig returns the registry defaults.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		MaxTimers:       MaxTimersLimit,
		TickInterval:    time.Second,
		TimestampLayout: DefaultTimestampLayout,
	}
}

// Normalized fills zero or out-of-range values with defaults.
func (config RegistryConfig) Normalized() RegistryConfig {
	if config.MaxTimers <= 0 || config.MaxTimers > MaxTimersLimit {
		config.MaxTimers = MaxTimersLimit
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.TimestampLayout == "" {
		config.TimestampLayout = DefaultTimestampLayout
	}
	return config
}
