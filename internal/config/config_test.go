package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/liftsession/internal/interval"
	"github.com/lowaak/liftsession/internal/protocol"
	"github.com/lowaak/liftsession/internal/watchdog"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.PlanFile)
	assert.Equal(t, "/tmp/xdg-data/liftsession/liftsession.db", cfg.DBPath)
	assert.Equal(t, "/tmp/xdg-data/liftsession/liftsession.log", cfg.LogFile)
	assert.Equal(t, 5, cfg.LogMaxSizeMB)
	assert.Equal(t, 3, cfg.LogMaxBackups)
	assert.Equal(t, watchdog.DefaultTimeout, cfg.WatchdogTimeout)
	assert.Equal(t, protocol.DefaultManualEditWindow, cfg.ManualEditWindow)
	assert.Equal(t, interval.Defaults{
		WorkSeconds:    interval.DefaultWorkSeconds,
		RestSeconds:    interval.DefaultRestSeconds,
		SetRestSeconds: interval.DefaultSetRestSeconds,
	}, cfg.Interval)
	assert.Empty(t, cfg.ConfigFileUsed)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "liftsession.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plan: /plans/push.yaml
db: /data/file.db
log:
  max_backups: 7
watchdog:
  timeout: 20s
drop_set:
  manual_edit_window: 750ms
interval:
  work_seconds: 40
  rest_seconds: 15
`), 0o600))

	t.Setenv("LIFTSESSION_DB", "/data/env.db")
	t.Setenv("LIFTSESSION_INTERVAL_REST_SECONDS", "25")

	cfg, err := Load([]string{"--config", path, "--work", "45"})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFileUsed)
	assert.Equal(t, "/plans/push.yaml", cfg.PlanFile)
	assert.Equal(t, "/data/env.db", cfg.DBPath, "env beats file")
	assert.Equal(t, 7, cfg.LogMaxBackups)
	assert.Equal(t, 20*time.Second, cfg.WatchdogTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.ManualEditWindow)
	assert.Equal(t, 45, cfg.Interval.WorkSeconds, "flag beats file")
	assert.Equal(t, 25, cfg.Interval.RestSeconds)
	assert.Equal(t, interval.DefaultSetRestSeconds, cfg.Interval.SetRestSeconds)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "not found")

	_, err = Load([]string{"--watchdog-timeout", "0s"})
	assert.ErrorContains(t, err, "watchdog.timeout")

	_, err = Load([]string{"--rest", "-1"})
	assert.ErrorContains(t, err, "negative")

	_, err = Load([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)

	_, err = Load([]string{"--bogus"})
	assert.Error(t, err)
}
