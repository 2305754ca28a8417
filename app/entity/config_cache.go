package entity

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ConfigCache loads and caches the watch-list: one YAML file per tracked
// entity in the entities directory.
type ConfigCache struct {
	entitiesDir string
	cache       map[string]*Config
	mu          sync.RWMutex
}

func NewConfigCache(entitiesDir string) *ConfigCache {
	return &ConfigCache{
		entitiesDir: entitiesDir,
		cache:       make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.entitiesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.entitiesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		cfg, err := loadFile(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}
		cfg.Name = name

		if err := validate(cfg); err != nil {
			return fmt.Errorf("invalid config %s: %w", file, err)
		}

		cc.cache[name] = cfg
		slog.Debug("Loaded entity configuration", "entity", name, "kind", cfg.Kind)
	}

	return nil
}

func (cc *ConfigCache) Get(name string) (*Config, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	cfg, ok := cc.cache[name]
	return cfg, ok
}

// GetConfigs returns all cached configs in a stable name order.
func (cc *ConfigCache) GetConfigs() []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	names := make([]string, 0, len(cc.cache))
	for name := range cc.cache {
		names = append(names, name)
	}
	sort.Strings(names)

	configs := make([]*Config, 0, len(names))
	for _, name := range names {
		configs = append(configs, cc.cache[name])
	}
	return configs
}

// GetEnabledConfigs returns the configs whose entities should be scheduled.
func (cc *ConfigCache) GetEnabledConfigs() []*Config {
	var enabled []*Config
	for _, cfg := range cc.GetConfigs() {
		if cfg.Settings.Enabled {
			enabled = append(enabled, cfg)
		}
	}
	return enabled
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&cfg)
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Kind == "" {
		cfg.Kind = KindUser
	}
	if cfg.Settings.PostLimit == 0 {
		cfg.Settings.PostLimit = 25
	}
}

func validate(cfg *Config) error {
	if cfg.Kind != KindUser && cfg.Kind != KindBoard {
		return fmt.Errorf("kind must be %q or %q, got %q", KindUser, KindBoard, cfg.Kind)
	}
	if cfg.Settings.PostLimit < 0 {
		return fmt.Errorf("post limit must be non-negative")
	}
	return nil
}
