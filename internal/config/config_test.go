package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(mapEnv(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "foodgram.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "media", cfg.MediaDir)
	assert.Equal(t, "localhost:8080", cfg.Domain)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 6, cfg.PageSize)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "snapshots", cfg.S3Prefix)
	assert.Equal(t, 7, cfg.SnapshotKeep)
	assert.Empty(t, cfg.S3Bucket)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(mapEnv(map[string]string{
		"FOODGRAM_PORT":         "9000",
		"FOODGRAM_DOMAIN":       "foodgram.example",
		"FOODGRAM_CORS_ORIGINS": "https://a.example, https://b.example,",
		"FOODGRAM_PAGE_SIZE":    "10",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "foodgram.example", cfg.Domain)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.PageSize)
}

func TestFromEnvInvalidPageSize(t *testing.T) {
	for _, v := range []string{"abc", "0", "101"} {
		_, err := FromEnv(mapEnv(map[string]string{"FOODGRAM_PAGE_SIZE": v}))
		assert.Error(t, err, "page size %q", v)
	}
}

func TestFromEnvSnapshotKeep(t *testing.T) {
	cfg, err := FromEnv(mapEnv(map[string]string{"FOODGRAM_SNAPSHOT_KEEP": "0"}))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.SnapshotKeep)

	_, err = FromEnv(mapEnv(map[string]string{"FOODGRAM_SNAPSHOT_KEEP": "-1"}))
	assert.Error(t, err)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FOODGRAM_MEDIA_DIR=/srv/media\n"), 0o600))
	t.Setenv("FOODGRAM_MEDIA_DIR", "")
	os.Unsetenv("FOODGRAM_MEDIA_DIR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/media", cfg.MediaDir)
}
