package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAdmins(t *testing.T) {
	t.Setenv("OWNER_ID", "100")
	t.Setenv("ADMINS", "200, 300,not-a-number")

	cfg := Load()
	require.Equal(t, int64(100), cfg.OwnerID)

	// The owner is always an admin, listed or not
	require.True(t, cfg.IsAdmin(100))
	require.True(t, cfg.IsAdmin(200))
	require.True(t, cfg.IsAdmin(300))
	require.False(t, cfg.IsAdmin(400))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OWNER_ID", "")
	t.Setenv("ADMINS", "")
	t.Setenv("SWEEP_SCHEDULE", "")
	t.Setenv("SWEEP_HORIZON", "")

	cfg := Load()
	require.Equal(t, "0 * * * *", cfg.SweepSchedule)
	require.Equal(t, 24*time.Hour, cfg.SweepHorizon)
	require.False(t, cfg.IsAdmin(0))
}

func TestLoadSweepOverrides(t *testing.T) {
	t.Setenv("SWEEP_SCHEDULE", "*/30 * * * *")
	t.Setenv("SWEEP_HORIZON", "48h")

	cfg := Load()
	require.Equal(t, "*/30 * * * *", cfg.SweepSchedule)
	require.Equal(t, 48*time.Hour, cfg.SweepHorizon)
}
