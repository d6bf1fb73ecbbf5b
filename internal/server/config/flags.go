package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/swapboard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-h string   bind address (e.g., "0.0.0.0")
//	-p int      port
//	-d string   database DSN (SQLite path or postgres:// URL)
//	-u string   upload directory
//	-m int      max request body, bytes
//	-x string   comma-separated allowed image extensions
//	-b string   image backend: local or s3
//	-r string   Redis URL for rate limiting
//	-l string   log level
//
// Arguments are first filtered through flagx.FilterArgs so that -c/-config
// (handled by parseFile) and unrelated flags do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-h", "-p", "-d", "-u", "-m", "-x", "-b", "-r", "-l"})

	fs := flag.NewFlagSet("swapboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.BindAddress, "h", config.BindAddress, "bind address")
	fs.IntVar(&config.Port, "p", config.Port, "port to listen on")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.UploadDir, "u", config.UploadDir, "upload directory")
	fs.Int64Var(&config.MaxBodyBytes, "m", config.MaxBodyBytes, "max request body in bytes")
	exts := fs.String("x", strings.Join(config.AllowedExtensions, ","), "allowed image extensions")
	fs.StringVar(&config.ImageBackend, "b", config.ImageBackend, "image backend (local|s3)")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL for rate limiting")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	config.AllowedExtensions = normalizeExtensions(strings.Split(*exts, ","))
	return nil
}
