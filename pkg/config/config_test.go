package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mangadex", cfg.Source)
	assert.Equal(t, 2, cfg.PrefetchRadius)
	assert.Equal(t, QualityData, cfg.ImageQuality)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "nope.yaml"), map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
language: es
prefetch_radius: 4
cache_sweep_interval: 250ms
image_quality: data-saver
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := load(path, map[string]string{
		"MANGAS_PREFETCH_RADIUS":  "1",
		"MANGAS_CACHE_CAPACITY":   "10",
		"MANGAS_HTTP_TIMEOUT":     "5s",
		"UNRELATED_PREFETCH_SIZE": "99",
	})
	require.NoError(t, err)

	assert.Equal(t, "es", cfg.Language)
	assert.Equal(t, 1, cfg.PrefetchRadius)
	assert.Equal(t, 10, cfg.CacheCapacity)
	assert.Equal(t, 250*time.Millisecond, cfg.CacheSweepInterval)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, QualityDataSaver, cfg.ImageQuality)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefetch_radius: [nope"), 0644))

	_, err := load(path, map[string]string{})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.PrefetchRadius = -1
	cfg.MaxConcurrentFetches = 0
	cfg.ImageQuality = "ultra"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prefetch_radius")
	assert.Contains(t, err.Error(), "max_concurrent_fetches")
	assert.Contains(t, err.Error(), "image_quality")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.PrefetchRadius = 3
	cfg.CacheSweepInterval = 2 * time.Second

	require.NoError(t, Save(cfg, path))
	loaded, err := load(path, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.DatabasePath = filepath.Join(dir, "db", "mangas.db")
	cfg.LogFile = filepath.Join(dir, "logs", "mangas.log")
	cfg.DownloadDir = filepath.Join(dir, "downloads")

	require.NoError(t, cfg.EnsureDirs())
	for _, sub := range []string{"db", "logs", "downloads"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
