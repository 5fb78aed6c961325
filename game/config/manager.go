package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Info summarizes one game kind for listings.
type Info struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Manager loads and caches per-game configuration.
type Manager struct {
	configDir string
	configs   map[string]*GameConfig
	mu        sync.RWMutex
}

// NewManager creates a manager reading from configDir. An empty configDir
// serves built-in defaults only.
func NewManager(configDir string) (*Manager, error) {
	if configDir != "" {
		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("config directory does not exist: %s", configDir)
		}
	}
	return &Manager{
		configDir: configDir,
		configs:   make(map[string]*GameConfig),
	}, nil
}

// Load returns the configuration for kind: built-in defaults overlaid with
// <kind>.yaml when that file exists.
func (m *Manager) Load(kind string) (*GameConfig, error) {
	m.mu.RLock()
	if cfg, ok := m.configs[kind]; ok {
		m.mu.RUnlock()
		return cfg, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg, ok := m.configs[kind]; ok {
		return cfg, nil
	}

	cfg, err := Defaults(kind)
	if err != nil {
		return nil, err
	}

	if path := m.path(kind); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			if cfg.Kind != kind {
				return nil, fmt.Errorf("%w: %s declares kind %q", ErrInvalidConfig, path, cfg.Kind)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.configs[kind] = cfg
	return cfg, nil
}

// MustLoad is Load for callers that treat a broken config as fatal at
// startup.
func (m *Manager) MustLoad(kind string) *GameConfig {
	cfg, err := m.Load(kind)
	if err != nil {
		panic(fmt.Sprintf("config: %s: %v", kind, err))
	}
	return cfg
}

// List describes every known kind. Kinds whose file fails to load are
// skipped.
func (m *Manager) List() ([]Info, error) {
	var infos []Info
	for _, kind := range Kinds {
		cfg, err := m.Load(kind)
		if err != nil {
			continue
		}
		source := "builtin"
		if p := m.path(kind); p != "" {
			if _, err := os.Stat(p); err == nil {
				source = filepath.Base(p)
			}
		}
		infos = append(infos, Info{
			Kind:        cfg.Kind,
			Name:        cfg.Name,
			Description: cfg.Description,
			Source:      source,
		})
	}
	return infos, nil
}

// Refresh drops cached configurations so the next Load rereads disk.
func (m *Manager) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = make(map[string]*GameConfig)
}

// Save writes cfg to <kind>.yaml and caches it.
func (m *Manager) Save(cfg *GameConfig) error {
	if m.configDir == "" {
		return fmt.Errorf("no config directory configured")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(m.path(cfg.Kind), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[cfg.Kind] = cfg
	m.mu.Unlock()
	return nil
}

func (m *Manager) path(kind string) string {
	if m.configDir == "" {
		return ""
	}
	return filepath.Join(m.configDir, kind+".yaml")
}
