package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSettings(t *testing.T) (*Settings, string) {
	t.Helper()
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("BOT_TOKEN=secret\nUSD_RATE=12000\n"), 0o644))
	return NewSettings(envPath), envPath
}

func TestSetRatePersistsToEnvFile(t *testing.T) {
	s, envPath := newTestSettings(t)

	require.NoError(t, s.SetRate(KeyUSDRate, "13500"))
	require.Equal(t, "13500", s.Get(KeyUSDRate))

	rate, err := s.Rate(KeyUSDRate)
	require.NoError(t, err)
	require.Equal(t, "13500", rate.String())

	data, err := os.ReadFile(envPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "USD_RATE=13500\n")
	// Unrelated lines survive the rewrite
	require.Contains(t, string(data), "BOT_TOKEN=secret\n")
	require.NotContains(t, string(data), "USD_RATE=12000")
}

func TestSetRateRejectsInvalid(t *testing.T) {
	s, _ := newTestSettings(t)

	require.Error(t, s.SetRate(KeyUSDRate, "abc"))
	require.Error(t, s.SetRate(KeyUSDRate, "-5"))
	require.Error(t, s.SetRate(KeyUSDRate, "0"))
	require.Error(t, s.SetRate("NOT_A_RATE", "100"))
}

func TestSetAppendsMissingKey(t *testing.T) {
	s, envPath := newTestSettings(t)

	require.NoError(t, s.SetSyriatelNumbers([]string{"0999111222", "0999333444"}))
	require.Equal(t, []string{"0999111222", "0999333444"}, s.SyriatelNumbers())

	data, err := os.ReadFile(envPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "SYRIATEL_CASH_NUMBERS=0999111222,0999333444\n")
}

func TestSetWallets(t *testing.T) {
	s, envPath := newTestSettings(t)

	require.Error(t, s.SetWallets([]string{"only-one"}))

	wallets := []string{"coinex-addr", "cwallet-addr", "payeer-addr", "bep20-addr"}
	require.NoError(t, s.SetWallets(wallets))

	for i, key := range WalletKeys {
		require.Equal(t, wallets[i], s.Get(key))
	}

	data, err := os.ReadFile(envPath)
	require.NoError(t, err)
	for i, key := range WalletKeys {
		require.Contains(t, string(data), key+"="+wallets[i]+"\n")
	}
	// Every line is a complete KEY=value pair
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		require.Contains(t, line, "=")
	}
}

func TestSettingsDefaultsWithoutEnvFile(t *testing.T) {
	// Earlier tests may have exported values into the process environment
	t.Setenv(KeyUSDRate, "")
	t.Setenv(KeyUSDTRate, "")
	t.Setenv(KeySyriatelNumbers, "")

	s := NewSettings(filepath.Join(t.TempDir(), ".env"))
	require.Equal(t, "10000", s.Get(KeyUSDRate))
	require.Equal(t, "10000", s.Get(KeyUSDTRate))
	require.Empty(t, s.SyriatelNumbers())
}
