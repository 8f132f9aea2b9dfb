// Package config loads workcore settings from an optional YAML file, an
// optional .env file and WORKCORE_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"workcore/internal/blob"
	"workcore/internal/core"
	"workcore/internal/infra/redisstream"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "WORKCORE_"

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RateLimit is the sustained requests per second allowed per principal.
	// Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// JWTConfig configures bearer token verification.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	TTL    time.Duration `yaml:"ttl"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuditConfig configures the optional stream publisher.
type AuditConfig struct {
	Redis redisstream.Config `yaml:"redis"`
}

// Enabled reports whether a Redis address is configured.
func (a AuditConfig) Enabled() bool { return a.Redis.Addr != "" }

// Config is the complete runtime configuration.
type Config struct {
	HTTP    HTTPConfig         `yaml:"http"`
	JWT     JWTConfig          `yaml:"jwt"`
	Log     LogConfig          `yaml:"log"`
	Storage core.StorageConfig `yaml:"storage"`
	Blob    blob.Config        `yaml:"blob"`
	Audit   AuditConfig        `yaml:"audit"`
	// Fanout bounds concurrent reads when enriching project listings.
	Fanout int `yaml:"fanout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       20,
			RateBurst:       40,
		},
		JWT:     JWTConfig{Issuer: "workcore", TTL: 24 * time.Hour},
		Log:     LogConfig{Level: "info", Format: "json"},
		Storage: core.StorageConfig{Driver: core.StorageSQLite, SQLitePath: "data/workcore.db"},
		Blob:    blob.Config{Driver: blob.DriverFilesystem, FSRoot: "data/blobs"},
		Audit:   AuditConfig{Redis: redisstream.Config{Stream: redisstream.DefaultStream}},
		Fanout:  8,
	}
}

// Load reads path (skipped when empty), then envFile (skipped when empty or
// missing), then applies environment overrides and validates the result.
func Load(path, envFile string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	lookup := lookupFunc(os.LookupEnv)
	if envFile != "" {
		fileEnv, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
		lookup = layered(os.LookupEnv, fileEnv)
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

// layered consults the process environment before the env file.
func layered(env lookupFunc, file map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		if v, ok := env(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}
}

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("HTTP_ADDR", &c.HTTP.Addr)
	dur("HTTP_READ_TIMEOUT", &c.HTTP.ReadTimeout)
	dur("HTTP_WRITE_TIMEOUT", &c.HTTP.WriteTimeout)
	dur("HTTP_SHUTDOWN_TIMEOUT", &c.HTTP.ShutdownTimeout)
	if v, ok := lookup(EnvPrefix + "HTTP_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sHTTP_RATE_LIMIT: %w", EnvPrefix, err))
		} else {
			c.HTTP.RateLimit = f
		}
	}
	num("HTTP_RATE_BURST", &c.HTTP.RateBurst)

	str("JWT_SECRET", &c.JWT.Secret)
	str("JWT_ISSUER", &c.JWT.Issuer)
	dur("JWT_TTL", &c.JWT.TTL)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	var driver string
	str("STORAGE_DRIVER", &driver)
	if driver != "" {
		c.Storage.Driver = core.StorageDriver(driver)
	}
	str("SQLITE_PATH", &c.Storage.SQLitePath)
	str("POSTGRES_DSN", &c.Storage.PostgresDSN)

	var blobDriver string
	str("BLOB_DRIVER", &blobDriver)
	if blobDriver != "" {
		c.Blob.Driver = blob.Driver(blobDriver)
	}
	str("BLOB_FS_ROOT", &c.Blob.FSRoot)
	str("S3_BUCKET", &c.Blob.S3.Bucket)
	str("S3_REGION", &c.Blob.S3.Region)
	str("S3_ENDPOINT", &c.Blob.S3.Endpoint)
	str("S3_ACCESS_KEY_ID", &c.Blob.S3.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &c.Blob.S3.SecretAccessKey)
	boolean("S3_PATH_STYLE", &c.Blob.S3.PathStyle)

	str("REDIS_ADDR", &c.Audit.Redis.Addr)
	str("REDIS_PASSWORD", &c.Audit.Redis.Password)
	num("REDIS_DB", &c.Audit.Redis.DB)
	str("REDIS_STREAM", &c.Audit.Redis.Stream)

	num("FANOUT", &c.Fanout)
	return errors.Join(errs...)
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	switch c.Storage.Driver {
	case "", core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	switch c.Blob.Driver {
	case "", blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Blob.Driver))
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 {
		errs = append(errs, errors.New("http rate limits must not be negative"))
	}
	if c.Fanout < 1 {
		errs = append(errs, errors.New("fanout must be at least 1"))
	}
	return errors.Join(errs...)
}
