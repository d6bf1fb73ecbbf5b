// Package config handles configuration for the board server: defaults, an
// optional JSON/YAML file, environment variables (with .env support) and
// command-line flags, applied in that order.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	ImageBackendLocal = "local"
	ImageBackendS3    = "s3"
)

// Config holds runtime settings for the board server.
//
// Fields:
//   - BindAddress / Port: HTTP listen address; PORT in the environment overrides the port.
//   - DatabaseDSN: SQLite file path, or a postgres:// URL for PostgreSQL (pgx).
//   - UploadDir: directory for stored images when ImageBackend is "local".
//   - MaxBodyBytes: hard cap on the request body; larger requests get 413.
//   - AllowedExtensions: lower-case image extensions accepted on upload.
//   - ImageBackend: "local" or "s3".
//   - S3*: object storage settings for the "s3" backend.
//   - RedisURL / RateLimitPerMinute: optional per-IP limit on new posts; empty URL disables it.
//   - ShutdownTimeout: grace period for in-flight requests on stop.
//   - LogLevel: slog level name.
type Config struct {
	BindAddress        string
	Port               int
	DatabaseDSN        string
	UploadDir          string
	MaxBodyBytes       int64
	AllowedExtensions  []string
	ImageBackend       string
	S3Bucket           string
	S3Region           string
	S3BaseEndpoint     string
	S3AccessKey        string
	S3SecretKey        string
	RedisURL           string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration
	LogLevel           string
}

// LoadDefaults populates Config with development defaults matching the
// original deployment: port 5000 on all interfaces, a local SQLite file and
// a 2 MiB body limit.
func (c *Config) LoadDefaults() {
	c.BindAddress = "0.0.0.0"
	c.Port = 5000
	c.DatabaseDSN = "database.db"
	c.UploadDir = "static/uploads"
	c.MaxBodyBytes = 2 * 1024 * 1024
	c.AllowedExtensions = []string{"png", "jpg", "jpeg", "gif"}
	c.ImageBackend = ImageBackendLocal
	c.S3Bucket = "uploads"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.RedisURL = ""
	c.RateLimitPerMinute = 10
	c.ShutdownTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

// Load builds a Config by applying defaults, then overlaying values from an
// optional config file (-c/-config), then the environment, and finally the
// command-line flags in args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, ".env"); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid max body size %d", c.MaxBodyBytes)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	switch c.ImageBackend {
	case ImageBackendLocal:
		if c.UploadDir == "" {
			return fmt.Errorf("upload dir is required for the local image backend")
		}
	case ImageBackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("s3 bucket is required for the s3 image backend")
		}
	default:
		return fmt.Errorf("unknown image backend %q", c.ImageBackend)
	}
	return nil
}
