package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrUnavailable       = errors.New("storage unavailable")
	ErrContention        = errors.New("storage contention")
	ErrNotFound          = errors.New("not found")
	ErrUnknownUser       = errors.New("unknown user")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyTerminal   = errors.New("already terminal")
	ErrValidation        = errors.New("validation failed")
)

const (
	openAttempts  = 5
	openRetryWait = time.Second

	// WAL keeps readers off the writer's back; 30s busy timeout bounds
	// how long a contended write waits before failing. txlock=immediate
	// takes the write lock at BEGIN so read-then-write transactions
	// cannot deadlock on lock upgrade.
	dsnOptions = "?_journal_mode=WAL&_busy_timeout=30000&_foreign_keys=on&_txlock=immediate"
)

// Storage handles all database operations
type Storage struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open creates a new Storage instance and initializes the schema.
// Connection establishment is retried up to 5 times, one second apart;
// the last failure is surfaced as ErrUnavailable.
func Open(path string, log *slog.Logger) (*Storage, error) {
	var db *sql.DB
	var err error

	for i := 0; i < openAttempts; i++ {
		db, err = sql.Open("sqlite3", path+dsnOptions)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			break
		}
		if db != nil {
			db.Close()
			db = nil
		}
		if i < openAttempts-1 {
			log.Warn("open database failed, retrying", "attempt", i+1, "error", err)
			time.Sleep(openRetryWait)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// SQLite is single-writer; funnel everything through one connection
	// so the busy timeout is the only serialization point we rely on.
	db.SetMaxOpenConns(1)

	s := &Storage{db: db, path: path, log: log}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// begin starts a database transaction with contention mapping
func (s *Storage) begin() (*sql.Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, mapErr(err)
	}
	return tx, nil
}

// mapErr translates driver-level failures into the storage error set.
// A write that times out inside a transaction surfaces as ErrContention;
// callers may retry the whole logical operation.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", ErrContention, err)
		}
	}
	return err
}
