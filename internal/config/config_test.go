package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, "migrations", cfg.MigrationDir)
	assert.Equal(t, "X-Actor-ID", cfg.ActorHeader)
	assert.Empty(t, cfg.ObjectStore.Bucket)
	assert.True(t, cfg.ObjectStore.UsePathStyle)
	assert.Equal(t, 30*time.Second, cfg.FFprobeTimeout)
	assert.Equal(t, 2, cfg.Reaper.Workers)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Empty(t, cfg.UploadDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	contents := `{"port": 9090, "objectstore": {"bucket": "media", "region": "eu-west-1"}, "reaper": {"workers": 4}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vidtube.json"), []byte(contents), 0o600))

	t.Setenv("VIDTUBE_PORT", "7070")
	t.Setenv("VIDTUBE_RATELIMIT_WINDOW", "30s")
	t.Setenv("VIDTUBE_HTTP_WRITETIMEOUT", "2m")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.AppPort)
	assert.Equal(t, "media", cfg.ObjectStore.Bucket)
	assert.Equal(t, "eu-west-1", cfg.ObjectStore.Region)
	assert.Equal(t, 4, cfg.Reaper.Workers)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 2*time.Minute, cfg.HTTP.WriteTimeout)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("VIDTUBE_PORT", "70000")

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vidtube.json"), []byte("{not json"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}
