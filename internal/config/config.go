package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRelayURL      = "http://localhost:8000"
	DefaultRelayTimeout  = 60 * time.Second
	DefaultStorageDriver = "file"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultFeedURL       = "https://x.com/home"
	DefaultNamespace     = "feed"
	DefaultCacheCapacity = 10000
)

type Config struct {
	Relay   RelayConfig   `yaml:"relay"`
	Storage StorageConfig `yaml:"storage"`
	Browser BrowserConfig `yaml:"browser"`
	Similar SimilarConfig `yaml:"similar"`
	Log     LogConfig     `yaml:"log"`

	CacheCapacity int `yaml:"cacheCapacity"`
}

type RelayConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "file" (default) or "sqlite"
	Path   string `yaml:"path"`
}

type BrowserConfig struct {
	FeedURL       string `yaml:"feedUrl"`
	Headless      bool   `yaml:"headless"`
	StorageState  string `yaml:"storageState,omitempty"`
	InstallDriver bool   `yaml:"installDriver"`
}

type SimilarConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Relay: RelayConfig{
			URL:     DefaultRelayURL,
			Timeout: DefaultRelayTimeout,
		},
		Storage: StorageConfig{
			Driver: DefaultStorageDriver,
			Path:   filepath.Join(ConfigDir(), "snapshot.json"),
		},
		Browser: BrowserConfig{
			FeedURL: DefaultFeedURL,
		},
		Similar: SimilarConfig{
			Namespace: DefaultNamespace,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		CacheCapacity: DefaultCacheCapacity,
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".veracious")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadConfig reads path (or ConfigPath if empty) over the defaults, then applies VERACIOUS_* overrides.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if url := os.Getenv("VERACIOUS_RELAY_URL"); url != "" {
		cfg.Relay.URL = url
	}
	if timeout := os.Getenv("VERACIOUS_RELAY_TIMEOUT"); timeout != "" {
		if parsed, err := time.ParseDuration(timeout); err == nil {
			cfg.Relay.Timeout = parsed
		}
	}
	if driver := os.Getenv("VERACIOUS_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if path := os.Getenv("VERACIOUS_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if url := os.Getenv("VERACIOUS_FEED_URL"); url != "" {
		cfg.Browser.FeedURL = url
	}
	if headless := os.Getenv("VERACIOUS_HEADLESS"); headless != "" {
		if parsed, err := strconv.ParseBool(headless); err == nil {
			cfg.Browser.Headless = parsed
		}
	}
	if state := os.Getenv("VERACIOUS_STORAGE_STATE"); state != "" {
		cfg.Browser.StorageState = state
	}
	if enabled := os.Getenv("VERACIOUS_SIMILAR_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			cfg.Similar.Enabled = parsed
		}
	}
	if ns := os.Getenv("VERACIOUS_SIMILAR_NAMESPACE"); ns != "" {
		cfg.Similar.Namespace = ns
	}
	if level := os.Getenv("VERACIOUS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("VERACIOUS_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid storage driver %q: want file or sqlite", c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}
	if c.Relay.URL == "" {
		return fmt.Errorf("relay url is required")
	}
	if c.Relay.Timeout <= 0 {
		return fmt.Errorf("relay timeout must be positive")
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache capacity must be positive")
	}
	return nil
}

// SaveConfig writes cfg as YAML to path, creating its directory
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
