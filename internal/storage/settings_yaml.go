package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"neuronwatch/internal/core/model"
	"neuronwatch/internal/ui/preferences"
)

const (
	settingsFileName = "settings.yaml"
	databaseFileName = "neuronwatch.db"
)

type yamlSettings struct {
	MaxTimers           int    `yaml:"max_timers"`
	TickIntervalMS      int    `yaml:"tick_interval_ms"`
	ResetRecordsHistory bool   `yaml:"reset_records_history"`
	TimestampLayout     string `yaml:"timestamp_layout"`
	StorageBackend      string `yaml:"storage_backend"`
	DatabasePath        string `yaml:"database_path"`
}

// LoadSettings reads user preferences from YAML.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (preferences.Settings, error) {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return preferences.DefaultSettings(), err
	}
	return LoadSettingsFile(configPath)
}

// LoadSettingsFile reads preferences from an explicit path.
func LoadSettingsFile(configPath string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML.
func SaveSettings(appName string, settings preferences.Settings) error {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return err
	}
	return SaveSettingsFile(configPath, settings)
}

// SaveSettingsFile writes preferences to an explicit path.
func SaveSettingsFile(configPath string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		MaxTimers:           settings.MaxTimers,
		TickIntervalMS:      int(settings.TickInterval / time.Millisecond),
		ResetRecordsHistory: settings.ResetRecordsHistory,
		TimestampLayout:     settings.TimestampLayout,
		StorageBackend:      settings.StorageBackend,
		DatabasePath:        settings.DatabasePath,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// DatabasePath returns where the bolt store lives for these settings.
func DatabasePath(appName string, settings preferences.Settings) (string, error) {
	if settings.DatabasePath != "" {
		return settings.DatabasePath, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, databaseFileName), nil
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.MaxTimers > 0 && fileData.MaxTimers <= model.MaxTimersLimit {
		settings.MaxTimers = fileData.MaxTimers
	}
	if fileData.TickIntervalMS >= 100 {
		settings.TickInterval = time.Duration(fileData.TickIntervalMS) * time.Millisecond
	}
	if fileData.TimestampLayout != "" {
		settings.TimestampLayout = fileData.TimestampLayout
	}

	switch fileData.StorageBackend {
	case preferences.BackendBolt, preferences.BackendPreferences:
		settings.StorageBackend = fileData.StorageBackend
	}

	settings.ResetRecordsHistory = fileData.ResetRecordsHistory
	settings.DatabasePath = fileData.DatabasePath
}
