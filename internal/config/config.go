// Package config loads copycat's settings from a YAML file, a .env file and
// the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/strrl/copycat/internal/api"
)

// Config holds all copycat configuration
type Config struct {
	// BaseURL is the backend API root, including the /api/v1 prefix
	BaseURL  string      `yaml:"base_url"`
	DataDir  string      `yaml:"data_dir"`
	LogLevel string      `yaml:"log_level"`
	Staging  MinIOConfig `yaml:"staging"`
}

// MinIOConfig configures the optional object store local images are uploaded
// to before image analysis. Staging is off while Endpoint is empty.
type MinIOConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	Bucket    string        `yaml:"bucket"`
	Secure    bool          `yaml:"secure"`
	URLExpiry time.Duration `yaml:"url_expiry"`
}

// Enabled reports whether uploads should go to MinIO
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  api.DefaultBaseURL,
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		Staging: MinIOConfig{
			Bucket:    "copycat",
			URLExpiry: time.Hour,
		},
	}
}

// DefaultPath is where the config file lives unless --config says otherwise
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".copycat", "config.yaml")
	}
	return filepath.Join(dir, "copycat", "config.yaml")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "copycat")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".copycat"
	}
	return filepath.Join(home, ".local", "share", "copycat")
}

// LoadDotEnv loads a .env file from the working directory if there is one.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Load reads configuration from path. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadFile reads path over the defaults without looking at the environment,
// so the result can be edited and saved back
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	return cfg, nil
}

// Keys lists the settings Set accepts, in file order
var Keys = []string{
	"base_url", "data_dir", "log_level",
	"staging.endpoint", "staging.access_key", "staging.secret_key",
	"staging.bucket", "staging.secure", "staging.url_expiry",
}

// Set assigns one setting by its YAML key, dotted for nested sections
func (c *Config) Set(key, value string) error {
	switch key {
	case "base_url":
		c.BaseURL = value
	case "data_dir":
		c.DataDir = value
	case "log_level":
		if _, err := zapcore.ParseLevel(value); err != nil {
			return fmt.Errorf("invalid log level %q: %w", value, err)
		}
		c.LogLevel = value
	case "staging.endpoint":
		c.Staging.Endpoint = value
	case "staging.access_key":
		c.Staging.AccessKey = value
	case "staging.secret_key":
		c.Staging.SecretKey = value
	case "staging.bucket":
		c.Staging.Bucket = value
	case "staging.secure":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		c.Staging.Secure = b
	case "staging.url_expiry":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		c.Staging.URLExpiry = d
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// TokenDBPath is the local store file holding the session token
func (c *Config) TokenDBPath() string {
	return filepath.Join(c.DataDir, "local.db")
}

// LogPath is the file the TUI logs to
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "copycat.log")
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("COPYCAT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("COPYCAT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("COPYCAT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv("COPYCAT_MINIO_ENDPOINT"); v != "" {
		c.Staging.Endpoint = v
	}
	if v := os.Getenv("COPYCAT_MINIO_ACCESS_KEY"); v != "" {
		c.Staging.AccessKey = v
	}
	if v := os.Getenv("COPYCAT_MINIO_SECRET_KEY"); v != "" {
		c.Staging.SecretKey = v
	}
	if v := os.Getenv("COPYCAT_MINIO_BUCKET"); v != "" {
		c.Staging.Bucket = v
	}
	if v := os.Getenv("COPYCAT_MINIO_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Staging.Secure = b
		}
	}
}
