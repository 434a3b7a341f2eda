package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LISTEN_ADDR", "BASE_URL", "DATABASE_URL", "STORE_DRIVER", "TIMEZONE", "FACILITY_NAME",
		"TEEON_USERNAME", "TEEON_PASSWORD", "TEEON_LOGIN_URL", "TEEON_SCHEDULE_URL",
		"BROWSER_HEADLESS", "BROWSER_STEP_TIMEOUT", "RUN_TIMEOUT",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "EMAIL_FROM",
		"LOG_LEVEL", "LOG_FORMAT", "SCHEDULER_CRON",
		"DEFAULT_BOOKING_DAYS_AHEAD", "DEFAULT_PREFERRED_TEE_TIME", "DEFAULT_TEE_TIME_FLEXIBILITY",
		"DEFAULT_PLAYERS", "DEFAULT_USE_CART", "COOKIE_HASH_KEY", "COOKIE_BLOCK_KEY", "TEESCHED_CONFIG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "America/Vancouver", cfg.Location.String())
	assert.True(t, cfg.TeeOn.Headless)
	assert.Equal(t, 30*time.Second, cfg.TeeOn.StepTimeout)
	assert.Equal(t, 5*time.Minute, cfg.RunTimeout)
	assert.Equal(t, "0 7 * * *", cfg.Seed.Scheduler.CronExpression)
	assert.Equal(t, 4, cfg.Seed.DefaultPlayers)
	assert.Error(t, cfg.RequireCookieKeys())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TEEON_USERNAME", "member")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("BROWSER_STEP_TIMEOUT", "45")
	t.Setenv("RUN_TIMEOUT", "2m")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SCHEDULER_CRON", "30 6 * * 1-5")
	t.Setenv("DEFAULT_PLAYERS", "2")
	t.Setenv("DEFAULT_USE_CART", "true")
	t.Setenv("COOKIE_HASH_KEY", base64.StdEncoding.EncodeToString(make([]byte, 32)))
	t.Setenv("COOKIE_BLOCK_KEY", base64.StdEncoding.EncodeToString(make([]byte, 32)))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "member", cfg.TeeOn.Username)
	assert.False(t, cfg.TeeOn.Headless)
	assert.Equal(t, 45*time.Second, cfg.TeeOn.StepTimeout)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, "30 6 * * 1-5", cfg.Seed.Scheduler.CronExpression)
	assert.Equal(t, 2, cfg.Seed.DefaultPlayers)
	assert.True(t, cfg.Seed.DefaultUseCart)
	assert.NoError(t, cfg.RequireCookieKeys())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "teesched.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storeDriver: memory
timezone: America/Toronto
facilityName: Test Links
teeon:
  scheduleURL: https://portal.example.com/teetimes
  headless: true
  stepTimeout: 10s
defaults:
  scheduler:
    preferredTeeTime: "08:30"
    bookingDaysAhead: 3
`), 0o600))
	t.Setenv("FACILITY_NAME", "Env Links")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "America/Toronto", cfg.Location.String())
	assert.Equal(t, "Env Links", cfg.Facility)
	assert.Equal(t, "https://portal.example.com/teetimes", cfg.TeeOn.ScheduleURL)
	assert.Equal(t, 10*time.Second, cfg.TeeOn.StepTimeout)
	assert.Equal(t, "08:30", cfg.Seed.Scheduler.PreferredTeeTime)
	assert.Equal(t, 3, cfg.Seed.Scheduler.BookingDaysAhead)
	// untouched seed fields keep their defaults
	assert.Equal(t, 60, cfg.Seed.Scheduler.TeeTimeFlexibilityMinutes)
	assert.Equal(t, 24, cfg.Seed.Notifications.EmailReminderHoursBefore)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":   {"STORE_DRIVER": "sqlite"},
		"timezone": {"TIMEZONE": "Mars/Olympus"},
		"int":      {"SMTP_PORT": "smtp"},
		"bool":     {"BROWSER_HEADLESS": "maybe"},
		"duration": {"RUN_TIMEOUT": "soon"},
		"cron":     {"SCHEDULER_CRON": "every day"},
		"tee time": {"DEFAULT_PREFERRED_TEE_TIME": "25:00"},
		"players":  {"DEFAULT_PLAYERS": "5"},
		"b64":      {"COOKIE_HASH_KEY": "%%%"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadUnknownFileKey(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: :9000\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
