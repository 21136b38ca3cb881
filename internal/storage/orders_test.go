package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateOrderValidation(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))

	_, err := s.CreateOrder(1, ProductKind("movie"), "pubg", "60 UC", dec(t, "100"))
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.CreateOrder(1, ProductGame, "pubg", "60 UC", dec(t, "0"))
	require.ErrorIs(t, err, ErrValidation)
}

func TestResolveOrderCompleteDebits(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))
	_, err := s.AdjustBalance(1, dec(t, "1000"), "deposit")
	require.NoError(t, err)

	orderID, err := s.CreateOrder(1, ProductGame, "pubg", "ID: 12345", dec(t, "400"))
	require.NoError(t, err)

	// Creation reserves nothing
	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "1000")))

	require.NoError(t, s.ResolveOrder(orderID, StatusCompleted))

	o, err := s.GetOrder(orderID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, o.Status)

	u, err = s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "600")))

	history, err := s.BalanceHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.True(t, history[0].ChangeAmount.Equal(dec(t, "-400")))
	require.Equal(t, "purchase", history[0].TransactionType)
}

func TestResolveOrderInsufficientFunds(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))
	_, err := s.AdjustBalance(1, dec(t, "100"), "deposit")
	require.NoError(t, err)

	orderID, err := s.CreateOrder(1, ProductGame, "pubg", "ID: 12345", dec(t, "400"))
	require.NoError(t, err)

	// The debit fails, so the status change rolls back with it
	err = s.ResolveOrder(orderID, StatusCompleted)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	o, err := s.GetOrder(orderID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, o.Status)

	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "100")))
}

func TestResolveOrderRejectKeepsBalance(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))
	_, err := s.AdjustBalance(1, dec(t, "100"), "deposit")
	require.NoError(t, err)

	orderID, err := s.CreateOrder(1, ProductApp, "telegram", "Premium 3m", dec(t, "400"))
	require.NoError(t, err)

	require.NoError(t, s.ResolveOrder(orderID, StatusRejected))

	o, err := s.GetOrder(orderID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, o.Status)

	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "100")))
}

func TestResolveOrderAlreadyTerminal(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))
	_, err := s.AdjustBalance(1, dec(t, "1000"), "deposit")
	require.NoError(t, err)

	orderID, err := s.CreateOrder(1, ProductGame, "pubg", "ID: 12345", dec(t, "400"))
	require.NoError(t, err)
	require.NoError(t, s.ResolveOrder(orderID, StatusCompleted))

	require.ErrorIs(t, s.ResolveOrder(orderID, StatusCompleted), ErrAlreadyTerminal)

	// No double debit
	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(dec(t, "600")))
}

func TestListOrdersNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.UpsertUser(1, "alice", "Alice"))

	first, err := s.CreateOrder(1, ProductGame, "pubg", "60 UC", dec(t, "100"))
	require.NoError(t, err)
	second, err := s.CreateOrder(1, ProductApp, "telegram", "Premium 3m", dec(t, "250"))
	require.NoError(t, err)

	orders, err := s.ListOrders(1)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, second, orders[0].ID)
	require.Equal(t, first, orders[1].ID)

	orders, err = s.ListOrders(2)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestResolveOrderNotFound(t *testing.T) {
	s := newTestStorage(t)
	require.ErrorIs(t, s.ResolveOrder(9999, StatusCompleted), ErrNotFound)
}
