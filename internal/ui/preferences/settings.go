package preferences

import (
	"time"

	"neuronwatch/internal/core/model"
)

// Storage backends.
const (
	BackendBolt        = "bolt"
	BackendPreferences = "preferences"
)

// Settings defines editable user preferences.
type Settings struct {
	MaxTimers           int
	TickInterval        time.Duration
	ResetRecordsHistory bool
	TimestampLayout     string

	StorageBackend string
	DatabasePath   string
}

// DefaultSettings returns default settings for NeuronWatch.
func DefaultSettings() Settings {
	return Settings{
		MaxTimers:       model.MaxTimersLimit,
		TickInterval:    time.Second,
		TimestampLayout: model.DefaultTimestampLayout,
		StorageBackend:  BackendBolt,
	}
}

// RegistryConfig converts settings to RegistryConfig.
func (settings Settings) RegistryConfig() model.RegistryConfig {
	return model.RegistryConfig{
		MaxTimers:           settings.MaxTimers,
		TickInterval:        settings.TickInterval,
		ResetRecordsHistory: settings.ResetRecordsHistory,
		TimestampLayout:     settings.TimestampLayout,
	}.Normalized()
}
