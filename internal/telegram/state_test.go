package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diamondsy/diamond-store/internal/config"
	"github.com/diamondsy/diamond-store/internal/storage"
)

func TestStateManagerReplacesPendingFlow(t *testing.T) {
	sm := NewStateManager()

	require.Nil(t, sm.Get(1))

	sm.Begin(1, BanUserFlow{})
	require.IsType(t, BanUserFlow{}, sm.Get(1))

	// Starting a new flow discards the pending one
	sm.Begin(1, EditRateFlow{RateKey: config.KeyUSDRate})
	flow, ok := sm.Get(1).(EditRateFlow)
	require.True(t, ok)
	require.Equal(t, config.KeyUSDRate, flow.RateKey)
}

func TestStateManagerPerChat(t *testing.T) {
	sm := NewStateManager()

	sm.Begin(1, ModifyBalanceFlow{})
	sm.Begin(2, GameAccountFlow{Kind: storage.ProductGame, ProductID: "pubg", PackageID: "uc60"})

	require.IsType(t, ModifyBalanceFlow{}, sm.Get(1))

	flow, ok := sm.Get(2).(GameAccountFlow)
	require.True(t, ok)
	require.Equal(t, "pubg", flow.ProductID)

	sm.Clear(1)
	require.Nil(t, sm.Get(1))
	require.NotNil(t, sm.Get(2))
}
