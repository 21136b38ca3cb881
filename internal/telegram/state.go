package telegram

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/diamondsy/diamond-store/internal/storage"
)

// Flow is one pending multi-step input flow. The next free-text message
// from the chat is interpreted under the active flow and resolves it;
// flows are single-shot and never stack.
type Flow interface {
	flowName() string
}

// BanUserFlow awaits the ID of the user to ban
type BanUserFlow struct{}

// UnbanUserFlow awaits the ID of the user to unban
type UnbanUserFlow struct{}

// ModifyBalanceFlow awaits "<user_id> <delta>"
type ModifyBalanceFlow struct{}

// EditRateFlow awaits a new exchange rate for one settings key
type EditRateFlow struct {
	RateKey string
}

// EditSyriatelFlow awaits a comma-separated Syriatel Cash number list
type EditSyriatelFlow struct{}

// EditWalletsFlow awaits the payment wallets, comma-separated in fixed order
type EditWalletsFlow struct{}

// EditPriceFlow awaits a new price for one catalog package
type EditPriceFlow struct {
	Kind      storage.ProductKind
	ProductID string
	PackageID string
}

// DepositAmountFlow awaits the deposit amount for a chosen payment method
type DepositAmountFlow struct {
	Method string
}

// DepositProofFlow awaits the payment proof reference for a deposit
type DepositProofFlow struct {
	Method         string
	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	Currency       string
}

// RejectReasonFlow awaits the administrator's rejection reason
type RejectReasonFlow struct {
	TxID string
}

// GameAccountFlow awaits the player/account ID to deliver a purchase to
type GameAccountFlow struct {
	Kind      storage.ProductKind
	ProductID string
	PackageID string
}

func (BanUserFlow) flowName() string       { return "ban_user" }
func (UnbanUserFlow) flowName() string     { return "unban_user" }
func (ModifyBalanceFlow) flowName() string { return "modify_balance" }
func (EditRateFlow) flowName() string      { return "edit_rate" }
func (EditSyriatelFlow) flowName() string  { return "edit_syriatel" }
func (EditWalletsFlow) flowName() string   { return "edit_wallets" }
func (EditPriceFlow) flowName() string     { return "edit_price" }
func (DepositAmountFlow) flowName() string { return "deposit_amount" }
func (DepositProofFlow) flowName() string  { return "deposit_proof" }
func (RejectReasonFlow) flowName() string  { return "reject_reason" }
func (GameAccountFlow) flowName() string   { return "game_account" }

// StateManager tracks at most one pending flow per chat
type StateManager struct {
	mu    sync.RWMutex
	flows map[int64]Flow
}

// NewStateManager creates a new state manager
func NewStateManager() *StateManager {
	return &StateManager{
		flows: make(map[int64]Flow),
	}
}

// Begin starts a flow for a chat, replacing any pending one
func (sm *StateManager) Begin(chatID int64, flow Flow) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.flows[chatID] = flow
}

// Get returns the chat's pending flow, or nil
func (sm *StateManager) Get(chatID int64) Flow {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.flows[chatID]
}

// Clear removes the chat's pending flow
func (sm *StateManager) Clear(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.flows, chatID)
}
