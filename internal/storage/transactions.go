package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransaction inserts a pending deposit or withdrawal request and
// returns its ID. The amount must be positive; the sign is carried by the
// transaction type.
func (s *Storage) CreateTransaction(userID int64, amount decimal.Decimal, txType TxType,
	method, details string, originalAmount decimal.Decimal, originalCurrency string) (string, error) {

	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if txType != TxDeposit && txType != TxWithdrawal {
		return "", fmt.Errorf("%w: unknown transaction type %q", ErrValidation, txType)
	}

	txID := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO transactions
		 (tx_id, user_id, amount, type, payment_method, payment_details, original_amount, original_currency, created_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')`,
		txID, userID, amount.String(), txType, method, details,
		originalAmount.String(), originalCurrency, time.Now().Unix(),
	)
	if err != nil {
		return "", mapErr(err)
	}

	return txID, nil
}

// GetTransaction returns a transaction by ID
func (s *Storage) GetTransaction(txID string) (*Transaction, error) {
	row := s.db.QueryRow(
		`SELECT tx_id, user_id, amount, type, payment_method, payment_details,
		        original_amount, original_currency, created_at, status, reject_reason
		 FROM transactions WHERE tx_id = ?`,
		txID,
	)

	var t Transaction
	var amount string
	var details, origAmount, origCurrency, reason sql.NullString
	var createdAt int64

	err := row.Scan(&t.ID, &t.UserID, &amount, &t.Type, &t.PaymentMethod, &details,
		&origAmount, &origCurrency, &createdAt, &t.Status, &reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapErr(err)
	}

	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if origAmount.Valid && origAmount.String != "" {
		if t.OriginalAmount, err = decimal.NewFromString(origAmount.String); err != nil {
			return nil, err
		}
	}
	t.PaymentDetails = details.String
	t.OriginalCurrency = origCurrency.String
	t.RejectReason = reason.String
	t.CreatedAt = time.Unix(createdAt, 0)

	return &t, nil
}

// ResolveTransaction moves a pending transaction to completed or rejected.
// Completion credits (or debits, for withdrawals) the user's balance in the
// same unit of work: the status change and the balance mutation commit
// together or not at all. Resolving a terminal record fails with
// ErrAlreadyTerminal and changes nothing.
func (s *Storage) ResolveTransaction(txID string, outcome Status, reason string) error {
	if outcome != StatusCompleted && outcome != StatusRejected {
		return fmt.Errorf("%w: outcome must be completed or rejected", ErrValidation)
	}

	tx, err := s.begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var userID int64
	var amount string
	var txType TxType
	var status Status
	err = tx.QueryRow(
		`SELECT user_id, amount, type, status FROM transactions WHERE tx_id = ?`, txID,
	).Scan(&userID, &amount, &txType, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return mapErr(err)
	}
	if status.Terminal() {
		return ErrAlreadyTerminal
	}

	_, err = tx.Exec(
		`UPDATE transactions SET status = ?, reject_reason = ? WHERE tx_id = ?`,
		outcome, nullIfEmpty(reason), txID,
	)
	if err != nil {
		return mapErr(err)
	}

	if outcome == StatusCompleted {
		delta, err := decimal.NewFromString(amount)
		if err != nil {
			return err
		}
		if txType == TxWithdrawal {
			delta = delta.Neg()
		}
		if _, err := adjustBalanceTx(tx, userID, delta, string(txType)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return mapErr(err)
	}
	return nil
}

// ExpireStaleTransactions transitions every pending transaction older than
// horizon to expired and returns the number transitioned. Each record is its
// own unit of work: one bad record never aborts the rest of the sweep.
func (s *Storage) ExpireStaleTransactions(now time.Time, horizon time.Duration) (int, error) {
	cutoff := now.Add(-horizon).Unix()

	rows, err := s.db.Query(
		`SELECT tx_id FROM transactions WHERE status = 'pending' AND created_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, mapErr(err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		if err := s.expireOne(id); err != nil {
			s.log.Error("expire transaction", "tx_id", id, "error", err)
			continue
		}
		s.log.Info("transaction expired", "tx_id", id)
		count++
	}

	return count, nil
}

// expireOne re-checks pending status inside its own transaction so a sweep
// racing an administrator decision cannot overwrite a terminal state.
func (s *Storage) expireOne(txID string) error {
	tx, err := s.begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status Status
	err = tx.QueryRow(`SELECT status FROM transactions WHERE tx_id = ?`, txID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return mapErr(err)
	}
	if status.Terminal() {
		return ErrAlreadyTerminal
	}

	if _, err := tx.Exec(`UPDATE transactions SET status = 'expired' WHERE tx_id = ?`, txID); err != nil {
		return mapErr(err)
	}

	if err := tx.Commit(); err != nil {
		return mapErr(err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
