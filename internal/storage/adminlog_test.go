package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdminLogsNewestFirst(t *testing.T) {
	s := newTestStorage(t)

	s.AppendAdminLog(10, "ban_user", "user 1")
	s.AppendAdminLog(10, "modify_balance", "user 1 +200")
	s.AppendAdminLog(20, "approve_deposit", "tx abc")

	entries, err := s.AdminLogs(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "approve_deposit", entries[0].Action)
	require.Equal(t, int64(20), entries[0].AdminID)
	require.Equal(t, "ban_user", entries[2].Action)

	entries, err = s.AdminLogs(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
