package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wgbh/bawstun/internal/config"
	"github.com/wgbh/bawstun/internal/ffmpeg"
	"github.com/wgbh/bawstun/internal/ingest"
	"github.com/wgbh/bawstun/internal/tool"
	"gotest.tools/v3/fs"
)

const fullConfig = `
storage:
  base_dir: /srv/bawstun
  id_namespace: wgbh
  catalog: /var/lib/bawstun/catalog.json
tools:
  fits:
    path: /opt/fits/fits.sh
    args: ["-i"]
    timeout: 90s
  ffprobe:
    path: /usr/local/bin/ffprobe
field_mapping:
  file_title: title
  format_label: resource_type
database:
  enabled: true
  username: bawstun
  password: secret
  host: db.internal
metrics:
  textfile: /var/lib/node_exporter/bawstun.prom
concurrency: 8
watch:
  dir: /srv/dropbox
  settle_time: 30s
  blacklist: ["^\\."]
`

func writeConfig(t *testing.T, content string) string {
	dir := fs.NewDir(t, "bawstun-config", fs.WithFile("config.yaml", content))
	return dir.Join("config.yaml")
}

func Test_Load_ReadsFile(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, fullConfig))
	require.NoError(t, err)

	assert.Equal(t, "/srv/bawstun", cfg.Storage.BaseDir)
	assert.Equal(t, "wgbh", cfg.Storage.IDNamespace)
	assert.Equal(t, "/var/lib/bawstun/catalog.json", cfg.Storage.Catalog)
	assert.Equal(t, "/opt/fits/fits.sh", cfg.Tools.Fits.Path)
	assert.Equal(t, 90*time.Second, cfg.Tools.Fits.Timeout)
	assert.Equal(t, ffmpeg.DefaultProbeArgs, cfg.Tools.FFprobe.Args)
	assert.Equal(t, map[string]string{"file_title": "title", "format_label": "resource_type"}, cfg.FieldMapping)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "bawstun", cfg.Database.User)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "/var/lib/node_exporter/bawstun.prom", cfg.Metrics.Textfile)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "/srv/dropbox", cfg.Watch.Dir)
	assert.Equal(t, 30*time.Second, cfg.Watch.SettleTime)
	assert.Equal(t, ingest.DefaultForceSyncInterval, cfg.Watch.ForceSyncInterval)
	assert.Equal(t, []string{`^\.`}, cfg.Watch.Blacklist)

	fits := cfg.FitsRunner()
	assert.Equal(t, "fits", fits.ToolName())
	assert.Equal(t, 90*time.Second, fits.Timeout)
	assert.Equal(t, tool.DefaultTimeout, cfg.ProbeRunner().Timeout)
}

func Test_Load_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "storage:\n  base_dir: /srv/bawstun\n"))
	require.NoError(t, err)

	assert.Equal(t, "sufia", cfg.Storage.IDNamespace)
	assert.Equal(t, filepath.Join("/srv/bawstun", config.DefaultCatalogName), cfg.Storage.Catalog)
	assert.Equal(t, config.DefaultFitsPath, cfg.Tools.Fits.Path)
	assert.Equal(t, config.DefaultFitsArgs, cfg.Tools.Fits.Args)
	assert.Equal(t, config.DefaultFFprobePath, cfg.Tools.FFprobe.Path)
	assert.Equal(t, map[string]string{"file_title": "title", "file_author": "creator"}, cfg.FieldMapping)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Empty(t, cfg.Watch.Dir)
	assert.Equal(t, ingest.DefaultSettleTime, cfg.Watch.SettleTime)
}

func Test_Load_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STORAGE_BASE_DIR", "/mnt/override")
	t.Setenv("CONCURRENCY", "2")

	cfg, err := config.Load(writeConfig(t, "storage:\n  base_dir: /srv/bawstun\n"))
	require.NoError(t, err)
	assert.Equal(t, "/mnt/override", cfg.Storage.BaseDir)
	assert.Equal(t, 2, cfg.Concurrency)
}

func Test_Load_ExpandsHomeDirectory(t *testing.T) {
	home := fs.NewDir(t, "bawstun-home")
	t.Setenv("HOME", home.Path())
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	cfg, err := config.Load(writeConfig(t, "storage:\n  base_dir: ~/objects\ntools:\n  fits:\n    path: ~/fits/fits.sh\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home.Path(), "objects"), cfg.Storage.BaseDir)
	assert.Equal(t, filepath.Join(home.Path(), "fits", "fits.sh"), cfg.Tools.Fits.Path)
}

func Test_Load_Invalid(t *testing.T) {
	tests := []struct {
		summary string
		content string
	}{
		{"missing base dir", "storage:\n  id_namespace: sufia\n"},
		{"namespace with separator", "storage:\n  base_dir: /srv\n  id_namespace: 'a:b'\n"},
		{"database enabled without user", "storage:\n  base_dir: /srv\ndatabase:\n  enabled: true\n"},
		{"negative concurrency", "storage:\n  base_dir: /srv\nconcurrency: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(fs.NewDir(t, "bawstun-empty").Path(), "nope.yaml"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, config.ErrInvalidConfig)
}
