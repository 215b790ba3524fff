// Package config handles configuration for the server: defaults, an optional
// JSON file, environment variables and command-line flags, applied in that
// order so later sources win.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds runtime settings for the Pinboard server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the public HTTP endpoint.
//   - EndpointAddrGRPC: bind address of the gRPC health endpoint.
//   - DatabaseDSN: postgres:// URL (pgx) or a SQLite file path.
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - SessionLifetime: how long a login stays valid.
//   - SessionSweepInterval: how often expired sessions are purged.
//   - RequestTimeout: deadline applied to every HTTP request.
//   - MaxUploadSize: upper bound for a multipart upload, in bytes.
//   - StorageBackend: "local" (UploadDir) or "s3".
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint:
//     settings of the S3-compatible object storage.
type Config struct {
	EndpointAddrHTTP     string        `env:"HTTP_ADDRESS"`
	EndpointAddrGRPC     string        `env:"GRPC_ADDRESS"`
	DatabaseDSN          string        `env:"DATABASE_DSN"`
	SecretKey            string        `env:"SECRET_KEY"`
	SessionLifetime      time.Duration `env:"SESSION_LIFETIME"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL"`
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT"`
	MaxUploadSize        int64         `env:"MAX_UPLOAD_SIZE"`
	StorageBackend       string        `env:"STORAGE_BACKEND"`
	UploadDir            string        `env:"UPLOAD_DIR"`
	S3RootUser           string        `env:"S3_ROOT_USER"`
	S3RootPassword       string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket             string        `env:"S3_BUCKET"`
	S3Region             string        `env:"S3_REGION"`
	S3BaseEndpoint       string        `env:"S3_BASE_ENDPOINT"`
}

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// DefaultSecretKey is the development signing secret set by LoadDefaults.
const DefaultSecretKey = "secretKey"

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey and the S3 credentials must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "pinboard.db"
	c.SecretKey = DefaultSecretKey
	c.SessionLifetime = 24 * time.Hour
	c.SessionSweepInterval = 10 * time.Minute
	c.RequestTimeout = 30 * time.Second
	c.MaxUploadSize = 10 << 20
	c.StorageBackend = StorageLocal
	c.UploadDir = "uploads"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "pinboard"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then environment variables, then command-line flags.
// It panics on unreadable input, like flag.Parse with ExitOnError would exit.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg)
	parseFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.SessionLifetime <= 0 {
		errs = append(errs, fmt.Errorf("session lifetime must be positive, got %s", c.SessionLifetime))
	}
	if c.SessionSweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("session sweep interval must be positive, got %s", c.SessionSweepInterval))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request timeout must not be negative, got %s", c.RequestTimeout))
	}
	if c.MaxUploadSize <= 0 {
		errs = append(errs, fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadSize))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.StorageBackend != StorageLocal && c.StorageBackend != StorageS3 {
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.StorageBackend))
	}
	return errors.Join(errs...)
}
