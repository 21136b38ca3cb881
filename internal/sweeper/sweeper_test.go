package sweeper

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diamondsy/diamond-store/internal/storage"
)

func newTestSweeper(t *testing.T) *Sweeper {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.Open(filepath.Join(t.TempDir(), "store.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store, 24*time.Hour, log)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := newTestSweeper(t)
	require.Error(t, s.Start("not a cron expression"))
}

func TestSweepEmptyStore(t *testing.T) {
	s := newTestSweeper(t)
	require.Equal(t, 0, s.Sweep(time.Now()))
}

func TestStartAndStop(t *testing.T) {
	s := newTestSweeper(t)
	require.NoError(t, s.Start("0 * * * *"))
	s.Stop()
}
