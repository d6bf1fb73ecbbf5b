package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/swapboard/internal/flagx"
	"github.com/dmitrijs2005/swapboard/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Pointer fields
// distinguish "absent" from a zero value so a partial file only overrides
// what it names.
type FileConfig struct {
	BindAddress        *string         `json:"bind_address" yaml:"bind_address"`
	Port               *int            `json:"port" yaml:"port"`
	DatabaseDSN        *string         `json:"database_dsn" yaml:"database_dsn"`
	UploadDir          *string         `json:"upload_dir" yaml:"upload_dir"`
	MaxBodyBytes       *int64          `json:"max_body_bytes" yaml:"max_body_bytes"`
	AllowedExtensions  []string        `json:"allowed_extensions" yaml:"allowed_extensions"`
	ImageBackend       *string         `json:"image_backend" yaml:"image_backend"`
	S3Bucket           *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region           *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint     *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3AccessKey        *string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey        *string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	RedisURL           *string         `json:"redis_url" yaml:"redis_url"`
	RateLimitPerMinute *int            `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	ShutdownTimeout    *timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           *string         `json:"log_level" yaml:"log_level"`
}

// parseFile loads the file named by -c/-config, if any. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setIf(&c.BindAddress, fc.BindAddress)
	setIf(&c.Port, fc.Port)
	setIf(&c.DatabaseDSN, fc.DatabaseDSN)
	setIf(&c.UploadDir, fc.UploadDir)
	setIf(&c.MaxBodyBytes, fc.MaxBodyBytes)
	if fc.AllowedExtensions != nil {
		c.AllowedExtensions = normalizeExtensions(fc.AllowedExtensions)
	}
	setIf(&c.ImageBackend, fc.ImageBackend)
	setIf(&c.S3Bucket, fc.S3Bucket)
	setIf(&c.S3Region, fc.S3Region)
	setIf(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setIf(&c.S3AccessKey, fc.S3AccessKey)
	setIf(&c.S3SecretKey, fc.S3SecretKey)
	setIf(&c.RedisURL, fc.RedisURL)
	setIf(&c.RateLimitPerMinute, fc.RateLimitPerMinute)
	if fc.ShutdownTimeout != nil {
		c.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
	setIf(&c.LogLevel, fc.LogLevel)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// normalizeExtensions lower-cases, trims dots/space and drops empties.
func normalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimLeft(strings.TrimSpace(e), "."))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
