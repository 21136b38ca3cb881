package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ensureSchema creates all tables and indexes if absent. Re-running on an
// up-to-date schema is a no-op. An existing database file is copied to a
// timestamped backup first; backup failure is logged but never blocks startup.
func (s *Storage) ensureSchema() error {
	if _, err := os.Stat(s.path); err == nil {
		if backup, err := s.backupFile(); err != nil {
			s.log.Warn("database backup failed", "error", err)
		} else {
			s.log.Info("database backed up", "path", backup)
		}
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			balance TEXT NOT NULL DEFAULT '0' CHECK (CAST(balance AS REAL) >= 0),
			joined_date INTEGER NOT NULL,
			last_activity INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'banned', 'suspended')),
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_user_id ON users(user_id)`,

		`CREATE TABLE IF NOT EXISTS balance_history (
			history_id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			old_balance TEXT NOT NULL,
			new_balance TEXT NOT NULL,
			change_amount TEXT NOT NULL,
			transaction_type TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			order_id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			product_type TEXT NOT NULL CHECK (product_type IN ('game', 'app')),
			product_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			price TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'rejected', 'expired')),
			FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			tx_id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			amount TEXT NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('deposit', 'withdrawal')),
			payment_method TEXT NOT NULL,
			payment_details TEXT,
			original_amount TEXT,
			original_currency TEXT,
			created_at INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'rejected', 'expired')),
			reject_reason TEXT,
			FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,

		`CREATE TABLE IF NOT EXISTS admin_logs (
			log_id INTEGER PRIMARY KEY AUTOINCREMENT,
			admin_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			details TEXT,
			created_at INTEGER NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}

// backupFile copies the current database file into backup/ next to it
func (s *Storage) backupFile() (string, error) {
	dir := filepath.Join(filepath.Dir(s.path), "backup")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s.db",
		trimExt(filepath.Base(s.path)),
		time.Now().Format("20060102_150405"),
	)
	dst := filepath.Join(dir, name)

	src, err := os.Open(s.path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return "", err
	}

	return dst, nil
}

func trimExt(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}
