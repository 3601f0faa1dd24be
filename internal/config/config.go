// Package config loads the file manager configuration from an optional YAML
// file and the process environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr            = ":8080"
	DefaultRoot            = "my_files"
	DefaultBodyLimit       = "100M"
	DefaultMaxTextViewSize = 5 * 1024 * 1024
	DefaultBlobPrefix      = "files/"
	DefaultURLExpiry       = time.Hour
	DefaultTokenTTL        = 24 * time.Hour
)

type Server struct {
	Addr            string `yaml:"addr"`
	BodyLimit       string `yaml:"bodyLimit"`
	MaxTextViewSize int64  `yaml:"maxTextViewSize"`
}

// Storage configures the local filesystem backend
type Storage struct {
	Root string `yaml:"root"`
}

// Blob configures the object store backend. It is selected whenever an
// access key is present.
type Blob struct {
	Endpoint     string        `yaml:"endpoint"`
	AccessKey    string        `yaml:"accessKey"`
	SecretKey    string        `yaml:"secretKey"`
	SessionToken string        `yaml:"sessionToken"`
	Bucket       string        `yaml:"bucket"`
	Prefix       string        `yaml:"prefix"`
	Insecure     bool          `yaml:"insecure"`
	URLExpiry    time.Duration `yaml:"urlExpiry"`
}

// Auth enables token authentication when both fields are set
type Auth struct {
	Secret   string        `yaml:"secret"`
	Password string        `yaml:"password"`
	TokenTTL time.Duration `yaml:"tokenTTL"`
}

type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Blob    Blob    `yaml:"blob"`
	Auth    Auth    `yaml:"auth"`
}

// BlobEnabled reports whether the object store backend should be used
func (c *Config) BlobEnabled() bool {
	return c.Blob.AccessKey != ""
}

// AuthEnabled reports whether API routes require a session token
func (c *Config) AuthEnabled() bool {
	return c.Auth.Secret != "" && c.Auth.Password != ""
}

// Load reads the YAML file at path (if non-empty), applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = lookupEnvOr("FM_ADDR", cfg.Server.Addr)
	cfg.Server.BodyLimit = lookupEnvOr("FM_BODY_LIMIT", cfg.Server.BodyLimit)
	cfg.Server.MaxTextViewSize = lookupEnvInt64("FM_MAX_TEXT_VIEW_SIZE", cfg.Server.MaxTextViewSize)
	cfg.Storage.Root = lookupEnvOr("FM_ROOT", cfg.Storage.Root)

	cfg.Blob.Endpoint = lookupEnvOr("BLOB_ENDPOINT", cfg.Blob.Endpoint)
	cfg.Blob.AccessKey = lookupEnvOr("BLOB_ACCESS_KEY", cfg.Blob.AccessKey)
	cfg.Blob.SecretKey = lookupEnvOr("BLOB_SECRET_KEY", cfg.Blob.SecretKey)
	cfg.Blob.SessionToken = lookupEnvOr("BLOB_SESSION_TOKEN", cfg.Blob.SessionToken)
	cfg.Blob.Bucket = lookupEnvOr("BLOB_BUCKET", cfg.Blob.Bucket)
	cfg.Blob.Prefix = lookupEnvOr("BLOB_PREFIX", cfg.Blob.Prefix)
	cfg.Blob.Insecure = lookupEnvBool("BLOB_INSECURE", cfg.Blob.Insecure)
	cfg.Blob.URLExpiry = lookupEnvDuration("BLOB_URL_EXPIRY", cfg.Blob.URLExpiry)

	cfg.Auth.Secret = lookupEnvOr("FM_AUTH_SECRET", cfg.Auth.Secret)
	cfg.Auth.Password = lookupEnvOr("FM_AUTH_PASSWORD", cfg.Auth.Password)
	cfg.Auth.TokenTTL = lookupEnvDuration("FM_TOKEN_TTL", cfg.Auth.TokenTTL)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.BodyLimit == "" {
		cfg.Server.BodyLimit = DefaultBodyLimit
	}
	if cfg.Server.MaxTextViewSize <= 0 {
		cfg.Server.MaxTextViewSize = DefaultMaxTextViewSize
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = DefaultRoot
	}
	if cfg.Blob.Prefix == "" {
		cfg.Blob.Prefix = DefaultBlobPrefix
	}
	if cfg.Blob.URLExpiry <= 0 {
		cfg.Blob.URLExpiry = DefaultURLExpiry
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = DefaultTokenTTL
	}
}

func validate(cfg *Config) error {
	if cfg.BlobEnabled() {
		if cfg.Blob.Endpoint == "" {
			return errors.New("blob endpoint is required when a blob access key is set")
		}
		if cfg.Blob.Bucket == "" {
			return errors.New("blob bucket is required when a blob access key is set")
		}
	}
	if (cfg.Auth.Secret == "") != (cfg.Auth.Password == "") {
		return errors.New("auth secret and password must be set together")
	}
	if cfg.Auth.Secret != "" && len(cfg.Auth.Secret) < 32 {
		return errors.New("auth secret must be at least 32 characters")
	}
	return nil
}

func lookupEnvOr(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func lookupEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			log.Printf("Invalid value for %s: %v", key, err)
			return defaultVal
		}
		return b
	}
	return defaultVal
}

func lookupEnvInt64(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			log.Printf("Invalid value for %s: %v", key, err)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func lookupEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("Invalid value for %s: %v", key, err)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
