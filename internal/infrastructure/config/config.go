package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	FileServer FileServerConfig `yaml:"fileserver" toml:"fileserver"`
	Storage    StorageConfig    `yaml:"storage" toml:"storage"`
	Transfer   TransferConfig   `yaml:"transfer" toml:"transfer"`
	Logging    LogConfig        `yaml:"logging" toml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds the navigator HTTP server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"PORT" default:"8000" yaml:"port" toml:"port"`
	Host           string   `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" yaml:"allowed_origins" toml:"allowed_origins"`
}

// FileServerConfig holds the legacy network file server configuration.
type FileServerConfig struct {
	Port     string `envconfig:"FILESERVER_PORT" default:"3000" yaml:"port" toml:"port"`
	Host     string `envconfig:"FILESERVER_HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
	BaseDir  string `envconfig:"FILESERVER_BASE" default:"projects_base" yaml:"base_dir" toml:"base_dir"`
	ReadOnly bool   `envconfig:"FILESERVER_READONLY" default:"false" yaml:"read_only" toml:"read_only"`
}

// StorageConfig selects and configures the storage backends.
type StorageConfig struct {
	// Backends to register: memory, local, remote
	Backends   []string `envconfig:"STORAGE_BACKENDS" default:"memory,local" yaml:"backends" toml:"backends"`
	LocalRoot  string   `envconfig:"STORAGE_LOCAL_ROOT" default:"projects_base" yaml:"local_root" toml:"local_root"`
	RemoteURL  string   `envconfig:"STORAGE_REMOTE_URL" default:"http://localhost:3000/api" yaml:"remote_url" toml:"remote_url"`
	TimeoutSec int      `envconfig:"STORAGE_REMOTE_TIMEOUT" default:"10" yaml:"remote_timeout" toml:"remote_timeout"`
	Retries    int      `envconfig:"STORAGE_REMOTE_RETRIES" default:"3" yaml:"remote_retries" toml:"remote_retries"`
	RemoteRPS  int      `envconfig:"STORAGE_REMOTE_RPS" default:"50" yaml:"remote_rps" toml:"remote_rps"`
}

// TransferConfig bounds copy, search and upload work.
type TransferConfig struct {
	MaxCopyDepth   int   `envconfig:"MAX_COPY_DEPTH" default:"64" yaml:"max_copy_depth" toml:"max_copy_depth"`
	SearchLimit    int   `envconfig:"SEARCH_LIMIT" default:"1000" yaml:"search_limit" toml:"search_limit"`
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"67108864" yaml:"max_upload_bytes" toml:"max_upload_bytes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// Load loads configuration from environment variables, then applies the
// file named by CONFIG_FILE on top if set.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile overlays a YAML or TOML file onto cfg. Keys missing from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file type %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		FileServer: FileServerConfig{
			Port:    "3000",
			Host:    "0.0.0.0",
			BaseDir: "projects_base",
		},
		Storage: StorageConfig{
			Backends:   []string{"memory", "local"},
			LocalRoot:  "projects_base",
			RemoteURL:  "http://localhost:3000/api",
			TimeoutSec: 10,
			Retries:    3,
			RemoteRPS:  50,
		},
		Transfer: TransferConfig{
			MaxCopyDepth:   64,
			SearchLimit:    1000,
			MaxUploadBytes: 64 << 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// HasBackend reports whether name is among the configured backends.
func (s StorageConfig) HasBackend(name string) bool {
	for _, b := range s.Backends {
		if strings.EqualFold(strings.TrimSpace(b), name) {
			return true
		}
	}
	return false
}
