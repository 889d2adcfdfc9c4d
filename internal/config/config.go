// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBPath      string
	LogLevel    string
	LogFormat   string
	MediaDir    string
	Domain      string
	CORSOrigins []string
	PageSize    int

	// Snapshot storage. Snapshots are disabled unless bucket and keys are set.
	S3Endpoint   string
	S3Bucket     string
	S3Region     string
	S3AccessKey  string
	S3SecretKey  string
	S3Prefix     string
	SnapshotKeep int
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables that are already set, then builds a Config.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:      envOr(getenv, "FOODGRAM_PORT", "8080"),
		DBPath:    envOr(getenv, "FOODGRAM_DB_PATH", "foodgram.db"),
		LogLevel:  envOr(getenv, "FOODGRAM_LOG_LEVEL", "info"),
		LogFormat: envOr(getenv, "FOODGRAM_LOG_FORMAT", "text"),
		MediaDir:  envOr(getenv, "FOODGRAM_MEDIA_DIR", "media"),
		Domain:    envOr(getenv, "FOODGRAM_DOMAIN", "localhost:8080"),
		PageSize:  6,

		S3Endpoint:   envOr(getenv, "FOODGRAM_S3_ENDPOINT", ""),
		S3Bucket:     envOr(getenv, "FOODGRAM_S3_BUCKET", ""),
		S3Region:     envOr(getenv, "FOODGRAM_S3_REGION", "us-east-1"),
		S3AccessKey:  envOr(getenv, "FOODGRAM_S3_ACCESS_KEY", ""),
		S3SecretKey:  envOr(getenv, "FOODGRAM_S3_SECRET_KEY", ""),
		S3Prefix:     envOr(getenv, "FOODGRAM_S3_PREFIX", "snapshots"),
		SnapshotKeep: 7,
	}

	for _, o := range strings.Split(envOr(getenv, "FOODGRAM_CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if v := getenv("FOODGRAM_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return Config{}, fmt.Errorf("FOODGRAM_PAGE_SIZE must be an integer between 1 and 100, got %q", v)
		}
		cfg.PageSize = n
	}

	if v := getenv("FOODGRAM_SNAPSHOT_KEEP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("FOODGRAM_SNAPSHOT_KEEP must be a non-negative integer, got %q", v)
		}
		cfg.SnapshotKeep = n
	}

	return cfg, nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}
