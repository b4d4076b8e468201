package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "WINESTATS_"

// Config represents the top-level application config.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Storage     StorageConfig     `koanf:"storage"`
	Datasets    DatasetsConfig    `koanf:"datasets"`
	Aggregation AggregationConfig `koanf:"aggregation"`
	Auth        AuthConfig        `koanf:"auth"`
	Poller      PollerConfig      `koanf:"poller"`
}

type ServerConfig struct {
	Port         int    `koanf:"port"`
	Host         string `koanf:"host"`
	Mode         string `koanf:"mode"` // debug | release
	APIKeyHeader string `koanf:"api_key_header"`
}

type StorageConfig struct {
	Type           string `koanf:"type"` // s3 | postgres | filesystem | memory
	Bucket         string `koanf:"bucket"`
	Region         string `koanf:"region"`
	Endpoint       string `koanf:"endpoint"`
	ForcePathStyle bool   `koanf:"force_path_style"`
	Root           string `koanf:"root"`
	DSN            string `koanf:"dsn"`
	MaxOpenConns   int    `koanf:"max_open_conns"`
	MaxIdleConns   int    `koanf:"max_idle_conns"`
	AutoMigrate    bool   `koanf:"auto_migrate"`
}

type DatasetsConfig struct {
	Delimiter string `koanf:"delimiter"`
	RedKey    string `koanf:"red_key"`
	WhiteKey  string `koanf:"white_key"`
	HighKey   string `koanf:"high_key"`
	LowKey    string `koanf:"low_key"`
}

type AggregationConfig struct {
	HighThreshold float64 `koanf:"high_threshold"`
	LowThreshold  float64 `koanf:"low_threshold"`
	KeyPrefix     string  `koanf:"key_prefix"`
	KeySuffix     string  `koanf:"key_suffix"`
}

type AuthConfig struct {
	APIKey      string `koanf:"api_key"`
	SecretName  string `koanf:"secret_name"` // when set, the key is read from Secrets Manager
	SecretField string `koanf:"secret_field"`
}

type PollerConfig struct {
	Enabled           bool          `koanf:"enabled"`
	QueueURL          string        `koanf:"queue_url"`
	MaxMessages       int64         `koanf:"max_messages"`
	WaitTime          time.Duration `koanf:"wait_time"`
	VisibilityTimeout time.Duration `koanf:"visibility_timeout"`
	Backoff           time.Duration `koanf:"backoff"`
}

// HasAPIKey reports whether any API key source is configured.
func (c AuthConfig) HasAPIKey() bool {
	return strings.TrimSpace(c.APIKey) != "" || strings.TrimSpace(c.SecretName) != ""
}

// DelimiterRune returns the configured field separator.
func (c DatasetsConfig) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}
	if strings.TrimSpace(c.Server.APIKeyHeader) == "" {
		return fmt.Errorf("server.api_key_header is required")
	}

	switch c.Storage.Type {
	case "s3":
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return fmt.Errorf("storage.bucket is required for s3 storage")
		}
		if strings.TrimSpace(c.Storage.Region) == "" {
			return fmt.Errorf("storage.region is required for s3 storage")
		}
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage.dsn is required for postgres storage")
		}
		if c.Storage.MaxOpenConns <= 0 {
			return fmt.Errorf("storage.max_open_conns must be > 0")
		}
		if c.Storage.MaxIdleConns <= 0 {
			return fmt.Errorf("storage.max_idle_conns must be > 0")
		}
	case "filesystem":
		if strings.TrimSpace(c.Storage.Root) == "" {
			return fmt.Errorf("storage.root is required for filesystem storage")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported storage.type %q", c.Storage.Type)
	}

	if utf8.RuneCountInString(c.Datasets.Delimiter) != 1 {
		return fmt.Errorf("datasets.delimiter must be a single character, got %q", c.Datasets.Delimiter)
	}
	if d := c.Datasets.DelimiterRune(); d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError {
		return fmt.Errorf("invalid datasets.delimiter %q", c.Datasets.Delimiter)
	}
	for name, key := range map[string]string{
		"datasets.red_key":   c.Datasets.RedKey,
		"datasets.white_key": c.Datasets.WhiteKey,
		"datasets.high_key":  c.Datasets.HighKey,
		"datasets.low_key":   c.Datasets.LowKey,
	} {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.Datasets.HighKey == c.Datasets.LowKey {
		return fmt.Errorf("datasets.high_key and datasets.low_key must differ")
	}

	if c.Aggregation.HighThreshold <= c.Aggregation.LowThreshold {
		return fmt.Errorf("aggregation.high_threshold (%v) must be greater than aggregation.low_threshold (%v)",
			c.Aggregation.HighThreshold, c.Aggregation.LowThreshold)
	}

	if c.Poller.Enabled {
		if strings.TrimSpace(c.Poller.QueueURL) == "" {
			return fmt.Errorf("poller.queue_url is required when the poller is enabled")
		}
		if c.Poller.MaxMessages < 1 || c.Poller.MaxMessages > 10 {
			return fmt.Errorf("invalid poller.max_messages %d (must be 1-10)", c.Poller.MaxMessages)
		}
		if c.Poller.WaitTime < time.Second || c.Poller.WaitTime > 20*time.Second {
			return fmt.Errorf("invalid poller.wait_time %s (must be 1s-20s)", c.Poller.WaitTime)
		}
		if c.Poller.VisibilityTimeout < 0 {
			return fmt.Errorf("poller.visibility_timeout must be >= 0")
		}
		if c.Poller.Backoff <= 0 {
			return fmt.Errorf("poller.backoff must be > 0")
		}
	}

	return nil
}

// Load parses config from defaults, file and env, then validates it.
// Env vars use the WINESTATS_ prefix with "__" separating nested keys,
// e.g. WINESTATS_STORAGE__BUCKET.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                8080,
		"server.host":                "0.0.0.0",
		"server.mode":                "release",
		"server.api_key_header":      "X-API-Key",
		"storage.type":               "s3",
		"storage.bucket":             "",
		"storage.region":             "eu-north-1",
		"storage.endpoint":           "",
		"storage.force_path_style":   false,
		"storage.root":               "./data",
		"storage.dsn":                "",
		"storage.max_open_conns":     10,
		"storage.max_idle_conns":     5,
		"storage.auto_migrate":       true,
		"datasets.delimiter":         ";",
		"datasets.red_key":           "winequality-red.csv",
		"datasets.white_key":         "winequality-white.csv",
		"datasets.high_key":          "high_quality_average.json",
		"datasets.low_key":           "low_quality_average.json",
		"aggregation.high_threshold": 7,
		"aggregation.low_threshold":  4,
		"aggregation.key_prefix":     "winequality-",
		"aggregation.key_suffix":     ".csv",
		"auth.api_key":               "",
		"auth.secret_name":           "",
		"auth.secret_field":          "API_KEY",
		"poller.enabled":             false,
		"poller.queue_url":           "",
		"poller.max_messages":        5,
		"poller.wait_time":           "20s",
		"poller.visibility_timeout":  "0s",
		"poller.backoff":             "5s",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
