package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Scanner.OutsideWindowSeconds)
	assert.Equal(t, 65, cfg.Scanner.CooldownSeconds)
	assert.Equal(t, 85, cfg.Scanner.MinPublishScore)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.BaseURL)
	assert.Equal(t, "info", cfg.Log.Level)

	cal, err := cfg.Calendar()
	require.NoError(t, err)
	assert.Len(t, cal.Zones, 3)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("QUOTEX_EMAIL", "trader@example.com")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100")
	t.Setenv("HEADLESS", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Parse([]byte("quotex:\n  headless: true\nlog:\n  level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "trader@example.com", cfg.Quotex.Email)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "-100", cfg.Telegram.ChatID)
	assert.False(t, cfg.Quotex.Headless)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParse_CustomKillZones(t *testing.T) {
	yml := `
scanner:
  kill_zones:
    - { name: custom, start: "09:00", end: "10:15" }
`
	cfg, err := Parse([]byte(yml))
	require.NoError(t, err)

	cal, err := cfg.Calendar()
	require.NoError(t, err)
	require.Len(t, cal.Zones, 1)
	assert.Equal(t, domain.At(9, 0), cal.Zones[0].Start)
	assert.Equal(t, domain.At(10, 15), cal.Zones[0].End)
}

func TestParse_InvalidKillZone(t *testing.T) {
	_, err := Parse([]byte(`scanner: {kill_zones: [{name: bad, start: "10:00", end: "09:00"}]}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`scanner: {kill_zones: [{name: bad, start: "1000", end: "11:00"}]}`))
	assert.Error(t, err)
}

func TestParse_ValidationErrors(t *testing.T) {
	_, err := Parse([]byte("log: {format: xml}"))
	assert.Error(t, err)

	_, err = Parse([]byte("scanner: {min_publish_score: 50}"))
	assert.Error(t, err)

	_, err = Parse([]byte("scanner: {timezone: Mars/Olympus}"))
	assert.Error(t, err)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "ictbot.db", cfg.Storage.DSN)
	assert.Equal(t, 45*time.Second, Seconds(cfg.Scanner.CallTimeoutSeconds))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInstrumentList(t *testing.T) {
	cfg := &Config{Scanner: ScannerConfig{Instruments: []string{" EURUSD_otc ", "", "GBPUSD_otc"}}}
	assert.Equal(t, []domain.Instrument{"EURUSD_otc", "GBPUSD_otc"}, cfg.InstrumentList())
}
