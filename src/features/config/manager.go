package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Manager holds the application configuration and provides thread-safe access to it.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a new ConfigManager.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Update updates the configuration.
func (m *Manager) Update(config *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldConfig := m.config
	m.config = config

	if oldConfig != nil {
		slog.Debug("Configuration updated",
			"source_driver_changed", oldConfig.Source.Driver != config.Source.Driver,
			"page_size_changed", oldConfig.Catalog.PageSize != config.Catalog.PageSize,
			"telegram_enabled_changed", oldConfig.Telegram.Enabled != config.Telegram.Enabled,
			"logger_level_changed", oldConfig.Logger.Level != config.Logger.Level,
		)
		if oldConfig.Source.Driver != config.Source.Driver {
			slog.Warn("Source driver changes take effect after a restart", "driver", config.Source.Driver)
		}
	}
}

// Reload re-reads the file at path and swaps the configuration in. The
// current configuration is kept when the file is invalid.
func (m *Manager) Reload(path string) error {
	cfg, err := read(path)
	if err != nil {
		slog.Error("Config reload failed, keeping current configuration", "path", path, "error", err)
		return err
	}
	m.Update(cfg)
	slog.Info("Configuration reloaded", "path", path)
	return nil
}

// redactedCfg gets a redacted copy of the Config
func (m *Manager) redactedCfg() Config {
	cfgCpy := *m.Get()
	if cfgCpy.Telegram.Token != "" {
		cfgCpy.Telegram.Token = "<redacted>"
	}
	if cfgCpy.Source.Firestore.CredentialsFile != "" {
		cfgCpy.Source.Firestore.CredentialsFile = "<redacted>"
	}
	return cfgCpy
}

// GetJSON returns the current configuration as a JSON string.
func (m *Manager) GetJSON() string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(m.redactedCfg()); err != nil {
		slog.Error("failed to marshal config to JSON", "error", err)
		return err.Error()
	}
	return strings.TrimSpace(buf.String())
}

// GetYAML returns the current configuration as a YAML string.
func (m *Manager) GetYAML() string {
	yamlBytes, err := yaml.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to YAML", "error", err)
		return err.Error()
	}
	return string(yamlBytes)
}
