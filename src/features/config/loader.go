package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file from the given path and returns a new Manager.
// If the file doesn't exist, creates a default configuration.
// Environment variables (and a .env file next to the binary) override the
// file values.
func Load(path string) (*Manager, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	return NewManager(cfg), nil
}

// read decodes, overrides and validates the file at path.
func read(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		if err := saveDefaultConfig(path, createDefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := createDefaultConfig()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and the driver specific settings.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	switch cfg.Source.Driver {
	case "sqlite":
		if cfg.Source.Sqlite.Path == "" {
			return fmt.Errorf("config validation failed: source.sqlite.path is required for the sqlite driver")
		}
	case "firestore":
		if cfg.Source.Firestore.ProjectID == "" {
			return fmt.Errorf("config validation failed: source.firestore.project_id is required for the firestore driver")
		}
	}
	return nil
}

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		Demo: false,
		Server: Server{
			PrintRoutes: false,
			Port:        3636,
			Views:       "./views",
		},
		Logger: Logger{
			Enabled:   true,
			Level:     "info",
			Format:    "text",
			HTMXDebug: false,
		},
		Source: Source{
			Driver:         "sqlite",
			RequestTimeout: 10 * time.Second,
			Sqlite: Sqlite{
				Path: "./vinylshelf.db",
			},
			Collections: Collections{
				Records: "vinyl",
				Artists: "artist",
				Genres:  "genere",
			},
		},
		Catalog: Catalog{
			PageSize:    12,
			SessionIdle: 30 * time.Minute,
		},
		Covers: Covers{
			Size:     400,
			Quality:  85,
			CacheTTL: 24 * time.Hour,
		},
		Telegram: Telegram{
			Enabled:      false,
			Token:        "", // Can be obtained with https://t.me/BotFather
			AllowedUsers: []string{},
		},
	}
}

// Default returns a copy of the default configuration.
func Default() *Config {
	return createDefaultConfig()
}

// saveDefaultConfig saves the default configuration to the specified file path
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()
	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	slog.Info("Default configuration saved", "path", path)
	return nil
}
