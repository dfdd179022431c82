package config

import "time"

// Config holds the application configuration.
type Config struct {
	Demo     bool     `yaml:"demo" env:"VINYLSHELF_DEMO"`
	Server   Server   `yaml:"server"`
	Logger   Logger   `yaml:"logger"`
	Source   Source   `yaml:"source"`
	Catalog  Catalog  `yaml:"catalog"`
	Covers   Covers   `yaml:"covers"`
	Telegram Telegram `yaml:"telegram"`
}

// Server hold the configuration for the Fiber server Config
type Server struct {
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port" env:"VINYLSHELF_PORT" validate:"required"`
	Views       string `yaml:"views" validate:"required"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Enabled   bool   `yaml:"enabled"`
	Level     string `yaml:"level" env:"VINYLSHELF_LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	Format    string `yaml:"format" env:"VINYLSHELF_LOG_FORMAT" validate:"omitempty,oneof=json text logfmt"`
	HTMXDebug bool   `yaml:"htmx_debug"`
}

// Source selects and configures the document store.
type Source struct {
	Driver         string        `yaml:"driver" env:"VINYLSHELF_SOURCE" validate:"required,oneof=sqlite firestore memory"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	Sqlite         Sqlite        `yaml:"sqlite"`
	Firestore      Firestore     `yaml:"firestore"`
	Collections    Collections   `yaml:"collections"`
}

// Sqlite holds the configuration for the sqlite document store
type Sqlite struct {
	Path string `yaml:"path" env:"VINYLSHELF_SQLITE_PATH"`
}

// Firestore holds the connection parameters of the hosted store.
type Firestore struct {
	ProjectID       string `yaml:"project_id" env:"FIRESTORE_PROJECT_ID"`
	CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

// Collections names the collections in the store.
type Collections struct {
	Records string `yaml:"records" validate:"required"`
	Artists string `yaml:"artists" validate:"required"`
	Genres  string `yaml:"genres" validate:"required"`
}

// Catalog tunes the browsing sessions.
type Catalog struct {
	PageSize    int           `yaml:"page_size" validate:"gt=0,lte=100"`
	SessionIdle time.Duration `yaml:"session_idle" validate:"gt=0"`
}

// Covers configures cover thumbnails.
type Covers struct {
	Size     int           `yaml:"size" validate:"gte=0"`
	Quality  int           `yaml:"quality" validate:"gte=1,lte=100"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Telegram holds the bot configuration.
type Telegram struct {
	Enabled      bool     `yaml:"enabled"`
	Token        string   `yaml:"token" env:"TELEGRAM_TOKEN"`
	AllowedUsers []string `yaml:"allowedUsers"`
}
