package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays environment variables. Variables from envFile (usually
// ".env") are loaded first without overriding ones already set; a missing
// file is not an error.
func parseEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	envString("BIND_ADDRESS", &config.BindAddress)
	if err := envInt("PORT", &config.Port); err != nil {
		return err
	}
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("UPLOAD_DIR", &config.UploadDir)
	if v, ok := os.LookupEnv("MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_BODY_BYTES: %w", err)
		}
		config.MaxBodyBytes = n
	}
	if v, ok := os.LookupEnv("ALLOWED_EXTENSIONS"); ok && v != "" {
		config.AllowedExtensions = normalizeExtensions(strings.Split(v, ","))
	}
	envString("IMAGE_BACKEND", &config.ImageBackend)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envString("S3_ACCESS_KEY", &config.S3AccessKey)
	envString("S3_SECRET_KEY", &config.S3SecretKey)
	envString("REDIS_URL", &config.RedisURL)
	if err := envInt("RATE_LIMIT_PER_MINUTE", &config.RateLimitPerMinute); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("SHUTDOWN_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		config.ShutdownTimeout = d
	}
	envString("LOG_LEVEL", &config.LogLevel)

	return nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
