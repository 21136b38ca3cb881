package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// UpsertUser registers a user on first contact. An existing row is left
// untouched: balance and status are never overwritten here.
func (s *Storage) UpsertUser(userID int64, username, firstName string) error {
	now := time.Now().Unix()
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO users
		 (user_id, username, first_name, balance, joined_date, last_activity, status, created_at, updated_at)
		 VALUES (?, ?, ?, '0', ?, ?, 'active', ?, ?)`,
		userID, username, firstName, now, now, now, now,
	)
	return mapErr(err)
}

// GetUser returns a user by ID
func (s *Storage) GetUser(userID int64) (*User, error) {
	row := s.db.QueryRow(
		`SELECT user_id, username, first_name, balance, joined_date, last_activity, status, created_at, updated_at
		 FROM users WHERE user_id = ?`,
		userID,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var balance string
	var joined, lastActivity, created, updated int64

	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &balance,
		&joined, &lastActivity, &u.Status, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, mapErr(err)
	}

	u.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, err
	}
	u.JoinedDate = time.Unix(joined, 0)
	u.LastActivity = time.Unix(lastActivity, 0)
	u.CreatedAt = time.Unix(created, 0)
	u.UpdatedAt = time.Unix(updated, 0)

	return &u, nil
}

// SetUserStatus changes a user's lifecycle status (ban, unban, suspend)
func (s *Storage) SetUserStatus(userID int64, status UserStatus) error {
	res, err := s.db.Exec(
		`UPDATE users SET status = ?, updated_at = ? WHERE user_id = ?`,
		status, time.Now().Unix(), userID,
	)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUnknownUser
	}
	return nil
}

// TouchUser updates a user's last activity timestamp
func (s *Storage) TouchUser(userID int64) error {
	_, err := s.db.Exec(
		`UPDATE users SET last_activity = ? WHERE user_id = ?`,
		time.Now().Unix(), userID,
	)
	return mapErr(err)
}

// AdjustBalance applies delta to a user's balance and appends exactly one
// balance history entry, atomically. The resulting balance is rejected with
// ErrInsufficientFunds if it would go negative. This is the only path that
// writes the balance column.
func (s *Storage) AdjustBalance(userID int64, delta decimal.Decimal, txType string) (decimal.Decimal, error) {
	tx, err := s.begin()
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	newBalance, err := adjustBalanceTx(tx, userID, delta, txType)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, mapErr(err)
	}
	return newBalance, nil
}

// adjustBalanceTx is the shared mutation body, usable inside a larger
// unit of work (transaction/order resolution).
func adjustBalanceTx(tx *sql.Tx, userID int64, delta decimal.Decimal, txType string) (decimal.Decimal, error) {
	var current string
	err := tx.QueryRow(`SELECT balance FROM users WHERE user_id = ?`, userID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrUnknownUser
	}
	if err != nil {
		return decimal.Zero, mapErr(err)
	}

	oldBalance, err := decimal.NewFromString(current)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := oldBalance.Add(delta)
	if newBalance.IsNegative() {
		return decimal.Zero, ErrInsufficientFunds
	}

	now := time.Now().Unix()
	_, err = tx.Exec(
		`UPDATE users SET balance = ?, updated_at = ? WHERE user_id = ?`,
		newBalance.String(), now, userID,
	)
	if err != nil {
		return decimal.Zero, mapErr(err)
	}

	_, err = tx.Exec(
		`INSERT INTO balance_history (user_id, old_balance, new_balance, change_amount, transaction_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, oldBalance.String(), newBalance.String(), delta.String(), txType, now,
	)
	if err != nil {
		return decimal.Zero, mapErr(err)
	}

	return newBalance, nil
}

// BalanceHistory returns a user's balance audit trail, newest first
func (s *Storage) BalanceHistory(userID int64) ([]BalanceHistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT history_id, user_id, old_balance, new_balance, change_amount, transaction_type, created_at
		 FROM balance_history WHERE user_id = ? ORDER BY history_id DESC`,
		userID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var entries []BalanceHistoryEntry
	for rows.Next() {
		var e BalanceHistoryEntry
		var oldB, newB, change string
		var createdAt int64

		if err := rows.Scan(&e.ID, &e.UserID, &oldB, &newB, &change, &e.TransactionType, &createdAt); err != nil {
			return nil, err
		}

		if e.OldBalance, err = decimal.NewFromString(oldB); err != nil {
			return nil, err
		}
		if e.NewBalance, err = decimal.NewFromString(newB); err != nil {
			return nil, err
		}
		if e.ChangeAmount, err = decimal.NewFromString(change); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
