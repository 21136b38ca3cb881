package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Env variable names for the mutable settings
const (
	KeyUSDRate         = "USD_RATE"
	KeyUSDTRate        = "USDT_RATE"
	KeySyriatelNumbers = "SYRIATEL_CASH_NUMBERS"
	KeyWalletCoinex    = "USDT_WALLET_COINEX"
	KeyWalletCWallet   = "USDT_WALLET_CWALLET"
	KeyWalletPayeer    = "USD_WALLET_PAYEER"
	KeyWalletPEB20     = "USDT_WALLET_PEB20"
)

// WalletKeys is the fixed order in which payment wallets are edited
var WalletKeys = []string{KeyWalletCoinex, KeyWalletCWallet, KeyWalletPayeer, KeyWalletPEB20}

// Settings holds the runtime-editable configuration: exchange rates and
// payment destinations. Rates are kept as strings and parsed to decimal at
// the point of use so repeated edits never accumulate float drift. Updates
// are persisted to the .env file with a write-then-rename so a failed update
// can never leave the file half-written.
type Settings struct {
	mu      sync.RWMutex
	envPath string
	values  map[string]string
}

// NewSettings captures the current environment values for all mutable keys
func NewSettings(envPath string) *Settings {
	s := &Settings{
		envPath: envPath,
		values:  make(map[string]string),
	}
	for _, key := range append([]string{KeyUSDRate, KeyUSDTRate, KeySyriatelNumbers}, WalletKeys...) {
		s.values[key] = os.Getenv(key)
	}
	if s.values[KeyUSDRate] == "" {
		s.values[KeyUSDRate] = "10000"
	}
	if s.values[KeyUSDTRate] == "" {
		s.values[KeyUSDTRate] = "10000"
	}
	return s
}

// Get returns the raw string value for a settings key
func (s *Settings) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Rate parses the stored exchange rate for a settings key
func (s *Settings) Rate(key string) (decimal.Decimal, error) {
	return decimal.NewFromString(s.Get(key))
}

// SetRate validates and persists a new exchange rate
func (s *Settings) SetRate(key, value string) error {
	if key != KeyUSDRate && key != KeyUSDTRate {
		return fmt.Errorf("unknown rate key %q", key)
	}
	rate, err := decimal.NewFromString(value)
	if err != nil || !rate.IsPositive() {
		return fmt.Errorf("rate must be a positive number, got %q", value)
	}
	return s.Set(key, rate.String())
}

// SyriatelNumbers returns the configured Syriatel Cash numbers
func (s *Settings) SyriatelNumbers() []string {
	var numbers []string
	for _, n := range strings.Split(s.Get(KeySyriatelNumbers), ",") {
		if n = strings.TrimSpace(n); n != "" {
			numbers = append(numbers, n)
		}
	}
	return numbers
}

// SetSyriatelNumbers persists a new Syriatel Cash number list
func (s *Settings) SetSyriatelNumbers(numbers []string) error {
	if len(numbers) == 0 {
		return fmt.Errorf("at least one number required")
	}
	return s.Set(KeySyriatelNumbers, strings.Join(numbers, ","))
}

// SetWallets persists the payment wallets, one value per WalletKeys entry
func (s *Settings) SetWallets(wallets []string) error {
	if len(wallets) != len(WalletKeys) {
		return fmt.Errorf("expected %d wallets, got %d", len(WalletKeys), len(wallets))
	}
	for i, key := range WalletKeys {
		if err := s.Set(key, strings.TrimSpace(wallets[i])); err != nil {
			return err
		}
	}
	return nil
}

// Set persists a key/value pair to the .env file and the process state.
// The in-memory copy changes only after the file write succeeds.
func (s *Settings) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rewriteEnvFile(key, value); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}

	os.Setenv(key, value)
	s.values[key] = value
	return nil
}

// rewriteEnvFile replaces (or appends) one variable in the .env file.
// The new content is written to a temp file in the same directory and
// renamed over the original, so readers never observe a partial write.
func (s *Settings) rewriteEnvFile(key, value string) error {
	var lines []string
	if data, err := os.ReadFile(s.envPath); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return err
	}

	updated := false
	for i, line := range lines {
		if strings.HasPrefix(line, key+"=") {
			lines[i] = key + "=" + value
			updated = true
		}
	}
	if !updated {
		lines = append(lines, key+"="+value)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.envPath), ".env-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.envPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
