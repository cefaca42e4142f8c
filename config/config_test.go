package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/opex-engine/calendar"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8090", cfg.Listen)
	assert.Equal(t, calendar.TierMedium, cfg.AlertTier())
	require.Len(t, cfg.Alerts, 3)
	assert.Equal(t, 2, cfg.Alerts[0].OffsetDays)
	assert.Equal(t, 7, cfg.Weekly.WindowDays)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
db_path: "/var/lib/opex/opex.db"
tier: high
alerts:
  - offset_days: 3
    schedule: "30 8 * * *"
weekly:
  schedule: "0 19 * * 0"
  window_days: 10
`), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, calendar.TierHigh, cfg.AlertTier())
	require.Len(t, cfg.Alerts, 1)
	assert.Equal(t, 3, cfg.Alerts[0].OffsetDays)
	assert.Equal(t, "30 8 * * *", cfg.Alerts[0].Schedule)
	assert.Equal(t, 10, cfg.Weekly.WindowDays)
	// Unset fields fall back to defaults.
	assert.Equal(t, "America/New_York", cfg.Timezone)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tier: low\n"), 0o600))
	t.Setenv("OPEX_TIER", "high")
	t.Setenv("OPEX_WEBHOOK_URL", "https://hooks.example.com/opex")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, calendar.TierHigh, cfg.AlertTier())
	assert.Equal(t, "https://hooks.example.com/opex", cfg.WebhookURL)
}

func TestLoadRejectsUnknownTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tier: verbose\n"), 0o600))

	_, err := Load(path)

	require.Error(t, err)
	var tierErr *calendar.UnknownTierError
	assert.ErrorAs(t, err, &tierErr)
}

func TestLoadRejectsNegativeOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
alerts:
  - offset_days: -1
    schedule: "0 9 * * *"
`), 0o600))

	_, err := Load(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, calendar.ErrInvalidOffset)
}

func TestLoadRejectsCorruptYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
