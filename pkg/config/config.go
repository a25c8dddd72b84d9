package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const (
	DefaultPageSize        = 12
	DefaultChunkSize       = 1 << 20
	DefaultSearchTimeout   = 5 * time.Second
	DefaultChunkTimeout    = 30 * time.Second
	DefaultCursorCacheSize = 10000
	DefaultCursorTTL       = time.Hour
)

type Config struct {
	StorageDir string       `toml:"storage_dir"`
	Search     SearchConfig `toml:"search"`
	Remote     RemoteConfig `toml:"remote"`
	Web        WebConfig    `toml:"web"`
}

type SearchConfig struct {
	PageSize        int      `toml:"page_size"`
	Languages       []string `toml:"languages"`
	Concurrent      bool     `toml:"concurrent"`
	Timeout         Duration `toml:"timeout"`
	CursorCacheSize int      `toml:"cursor_cache_size"`
	CursorTTL       Duration `toml:"cursor_ttl"`
}

type RemoteConfig struct {
	Kind              string   `toml:"kind"`
	Endpoint          string   `toml:"endpoint"`
	Bucket            string   `toml:"bucket"`
	Prefix            string   `toml:"prefix"`
	AccessKey         string   `toml:"access_key"`
	SecretKey         string   `toml:"secret_key"`
	UseSSL            bool     `toml:"use_ssl"`
	ChunkSize         int64    `toml:"chunk_size"`
	ChunkTimeout      Duration `toml:"chunk_timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
}

type WebConfig struct {
	Host      string `toml:"host"`
	Port      string `toml:"port"`
	PublicURL string `toml:"public_url"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	cfg := &Config{StorageDir: storageDir}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadConfig reads configPath. A missing file yields the default config.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes TOML config data and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Search.PageSize <= 0 {
		c.Search.PageSize = DefaultPageSize
	}
	if c.Search.Timeout.Duration == 0 {
		c.Search.Timeout = Duration{DefaultSearchTimeout}
	}
	if c.Search.CursorCacheSize <= 0 {
		c.Search.CursorCacheSize = DefaultCursorCacheSize
	}
	if c.Search.CursorTTL.Duration == 0 {
		c.Search.CursorTTL = Duration{DefaultCursorTTL}
	}
	for i, lang := range c.Search.Languages {
		c.Search.Languages[i] = strings.ToLower(strings.TrimSpace(lang))
	}

	if c.Remote.Kind == "" {
		c.Remote.Kind = "minio"
	}
	if c.Remote.ChunkSize <= 0 {
		c.Remote.ChunkSize = DefaultChunkSize
	}
	if c.Remote.ChunkTimeout.Duration == 0 {
		c.Remote.ChunkTimeout = Duration{DefaultChunkTimeout}
	}
	if c.Remote.Burst <= 0 {
		c.Remote.Burst = 1
	}

	if c.Web.Host == "" {
		c.Web.Host = "localhost"
	}
	if c.Web.Port == "" {
		c.Web.Port = "8080"
	}
	if c.Web.PublicURL == "" {
		c.Web.PublicURL = fmt.Sprintf("http://%s:%s/", c.Web.Host, c.Web.Port)
	}
}

func (c *Config) Validate() error {
	switch c.Remote.Kind {
	case "minio":
		if c.Remote.Bucket == "" {
			return fmt.Errorf("remote.bucket is required for the minio source")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown remote.kind %q", c.Remote.Kind)
	}
	if c.Remote.RequestsPerSecond < 0 {
		return fmt.Errorf("remote.requests_per_second must not be negative")
	}
	return nil
}

// SaveTemplateConfig writes the commented sample config with this config's
// storage directory filled in.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template := strings.Replace(configTemplate, "/home/user/.local/share/finder", c.StorageDir, 1)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// GetDefaultStorageDir returns $XDG_DATA_HOME/finder, creating it if needed.
func GetDefaultStorageDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "finder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetConfigDir returns $XDG_CONFIG_HOME/finder, creating it if needed.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "finder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
