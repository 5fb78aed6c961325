package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends accepted by Settings.Store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Settings are process-level options. Command-line flags override them.
type Settings struct {
	Addr      string `env:"ROOMGAMES_ADDR" envDefault:":8080"`
	ConfigDir string `env:"ROOMGAMES_CONFIG_DIR" envDefault:"configs"`

	Store      string `env:"ROOMGAMES_STORE" envDefault:"memory"`
	StoreDir   string `env:"ROOMGAMES_STORE_DIR" envDefault:"sessions"`
	SQLitePath string `env:"ROOMGAMES_SQLITE_PATH" envDefault:"data/roomgames.db"`
	RedisURL   string `env:"ROOMGAMES_REDIS_URL" envDefault:"redis://localhost:6379/0"`

	SweepInterval time.Duration `env:"ROOMGAMES_SWEEP_INTERVAL" envDefault:"1h"`

	Catalog    string `env:"ROOMGAMES_CATALOG" envDefault:"json"`
	WordsFile  string `env:"ROOMGAMES_WORDS_FILE" envDefault:"data/words.json"`
	IdiomsFile string `env:"ROOMGAMES_IDIOMS_FILE" envDefault:"data/idiom.json"`

	MessageRate  float64 `env:"ROOMGAMES_MESSAGE_RATE" envDefault:"5"`
	MessageBurst int     `env:"ROOMGAMES_MESSAGE_BURST" envDefault:"10"`

	Debug bool `env:"ROOMGAMES_DEBUG" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadSettings reads Settings from the environment and validates them.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks enumerated fields.
func (s Settings) Validate() error {
	switch s.Store {
	case StoreMemory, StoreFile, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want memory, file, sqlite or redis)", s.Store)
	}
	switch s.Catalog {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown catalog %q (want json or sqlite)", s.Catalog)
	}
	if s.Catalog == "sqlite" && s.Store != StoreSQLite && s.SQLitePath == "" {
		return fmt.Errorf("sqlite catalog requires ROOMGAMES_SQLITE_PATH")
	}
	if s.MessageRate <= 0 || s.MessageBurst <= 0 {
		return fmt.Errorf("message rate and burst must be positive")
	}
	return nil
}
