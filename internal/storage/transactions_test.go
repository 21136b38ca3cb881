package storage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func backdate(t *testing.T, s *Storage, txID string, age time.Duration) {
	t.Helper()
	_, err := s.db.Exec(
		`UPDATE transactions SET created_at = ? WHERE tx_id = ?`,
		time.Now().Add(-age).Unix(), txID,
	)
	require.NoError(t, err)
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))

	_, err := s.CreateTransaction(1, dec(t, "0"), TxDeposit, "syriatel_cash", "", decimal.Zero, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.CreateTransaction(1, dec(t, "-5"), TxDeposit, "syriatel_cash", "", decimal.Zero, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.CreateTransaction(1, dec(t, "5"), TxType("refund"), "syriatel_cash", "", decimal.Zero, "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestResolveTransactionCompleteCredits(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))
	_, err := s.AdjustBalance(1, dec(t, "500"), "deposit")
	require.NoError(t, err)

	txID, err := s.CreateTransaction(1, dec(t, "200"), TxDeposit, "syriatel_cash", "receipt #1", dec(t, "2"), "USD")
	require.NoError(t, err)

	// Creation alone never moves the balance
	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "500")))

	require.NoError(t, s.ResolveTransaction(txID, StatusCompleted, ""))

	tx, err := s.GetTransaction(txID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, tx.Status)
	require.True(t, tx.OriginalAmount.Equal(dec(t, "2")))
	require.Equal(t, "USD", tx.OriginalCurrency)

	u, err = s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "700")))

	// The credit and the status change landed as one unit of work
	history, err := s.BalanceHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.True(t, history[0].OldBalance.Equal(dec(t, "500")))
	require.True(t, history[0].NewBalance.Equal(dec(t, "700")))
	require.True(t, history[0].ChangeAmount.Equal(dec(t, "200")))
}

func TestResolveTransactionRejectKeepsBalance(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))
	_, err := s.AdjustBalance(1, dec(t, "500"), "deposit")
	require.NoError(t, err)

	txID, err := s.CreateTransaction(1, dec(t, "200"), TxDeposit, "syriatel_cash", "", decimal.Zero, "")
	require.NoError(t, err)

	require.NoError(t, s.ResolveTransaction(txID, StatusRejected, "unreadable receipt"))

	tx, err := s.GetTransaction(txID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, tx.Status)
	require.Equal(t, "unreadable receipt", tx.RejectReason)

	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "500")))

	history, err := s.BalanceHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestResolveTransactionAlreadyTerminal(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))

	txID, err := s.CreateTransaction(1, dec(t, "200"), TxDeposit, "syriatel_cash", "", decimal.Zero, "")
	require.NoError(t, err)
	require.NoError(t, s.ResolveTransaction(txID, StatusCompleted, ""))

	// Second resolution fails and the balance stays put
	err = s.ResolveTransaction(txID, StatusRejected, "")
	require.ErrorIs(t, err, ErrAlreadyTerminal)

	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "200")))

	tx, err := s.GetTransaction(txID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, tx.Status)
}

func TestResolveWithdrawalInsufficientFunds(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))
	_, err := s.AdjustBalance(1, dec(t, "50"), "deposit")
	require.NoError(t, err)

	txID, err := s.CreateTransaction(1, dec(t, "80"), TxWithdrawal, "syriatel_cash", "", decimal.Zero, "")
	require.NoError(t, err)

	// Completion would overdraw; the whole resolution rolls back
	err = s.ResolveTransaction(txID, StatusCompleted, "")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	tx, err := s.GetTransaction(txID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, tx.Status)

	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "50")))
}

func TestResolveWithdrawalDebits(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))
	_, err := s.AdjustBalance(1, dec(t, "100"), "deposit")
	require.NoError(t, err)

	txID, err := s.CreateTransaction(1, dec(t, "80"), TxWithdrawal, "syriatel_cash", "", decimal.Zero, "")
	require.NoError(t, err)
	require.NoError(t, s.ResolveTransaction(txID, StatusCompleted, ""))

	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "20")))
}

func TestResolveTransactionNotFound(t *testing.T) {
	s := newTestStorage(t)

	require.ErrorIs(t, s.ResolveTransaction("no-such-id", StatusCompleted, ""), ErrNotFound)
	require.ErrorIs(t, s.ResolveTransaction("no-such-id", StatusExpired, ""), ErrValidation)

	_, err := s.GetTransaction("no-such-id")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExpireStaleTransactions(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))

	stale, err := s.CreateTransaction(1, dec(t, "10"), TxDeposit, "syriatel_cash", "", decimal.Zero, "")
	require.NoError(t, err)
	backdate(t, s, stale, 25*time.Hour)

	fresh, err := s.CreateTransaction(1, dec(t, "20"), TxDeposit, "syriatel_cash", "", decimal.Zero, "")
	require.NoError(t, err)
	backdate(t, s, fresh, time.Hour)

	resolved, err := s.CreateTransaction(1, dec(t, "30"), TxDeposit, "syriatel_cash", "", decimal.Zero, "")
	require.NoError(t, err)
	backdate(t, s, resolved, 48*time.Hour)
	require.NoError(t, s.ResolveTransaction(resolved, StatusCompleted, ""))

	count, err := s.ExpireStaleTransactions(time.Now(), 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	tx, err := s.GetTransaction(stale)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, tx.Status)

	tx, err = s.GetTransaction(fresh)
	require.NoError(t, err)
	require.Equal(t, StatusPending, tx.Status)

	tx, err = s.GetTransaction(resolved)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, tx.Status)

	// Expiry never touches the balance
	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "30")))
}

func TestSignedAmount(t *testing.T) {
	d := &Transaction{Amount: decimal.NewFromInt(40), Type: TxDeposit}
	require.True(t, d.SignedAmount().Equal(decimal.NewFromInt(40)))

	w := &Transaction{Amount: decimal.NewFromInt(40), Type: TxWithdrawal}
	require.True(t, w.SignedAmount().Equal(decimal.NewFromInt(-40)))
}
