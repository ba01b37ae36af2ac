package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "jwt:\n  secret: abc\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.JWT.Secret)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "0 0 * * *", cfg.Lifecycle.SweepSchedule)
	assert.Equal(t, 10, cfg.Lifecycle.ReminderWindowDays)
	assert.Equal(t, 30, cfg.Lifecycle.ExpiringWindowDays)
	assert.Equal(t, 10*time.Second, cfg.Lifecycle.NotifyTimeout)
	assert.Equal(t, 3, cfg.Queue.MaxAttempts)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.OSS.Enabled())
}

func TestLoad_LocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "server:\n  port: 8080\n")
	writeConfig(t, dir, "config.local.yaml", "server:\n  port: 9090\nredis:\n  host: localhost\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoad_Membership(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
membership:
  admin_email: board@example.org
  pricing:
    regular:
      display_name: Regular
      price: 50
      duration_months: 12
  bank_accounts:
    - bank_name: Example Bank
      holder: Association
      iban: GR00
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "board@example.org", cfg.Membership.AdminEmail)
	require.Contains(t, cfg.Membership.Pricing, "regular")
	assert.Equal(t, 50.0, cfg.Membership.Pricing["regular"].Price)
	assert.Equal(t, 12, cfg.Membership.Pricing["regular"].DurationMonth)
	require.Len(t, cfg.Membership.BankAccounts, 1)
	assert.Equal(t, "GR00", cfg.Membership.BankAccounts[0].IBAN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
