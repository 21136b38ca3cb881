package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserStatus is the lifecycle status of a user account
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserBanned    UserStatus = "banned"
	UserSuspended UserStatus = "suspended"
)

// TxType is the declared direction of a transaction
type TxType string

const (
	TxDeposit    TxType = "deposit"
	TxWithdrawal TxType = "withdrawal"
)

// Status is the lifecycle status of a transaction or order.
// pending is the only non-terminal state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no further transition is allowed from s
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusExpired
}

// ProductKind distinguishes catalog sections
type ProductKind string

const (
	ProductGame ProductKind = "game"
	ProductApp  ProductKind = "app"
)

// User represents a registered storefront user
type User struct {
	ID           int64
	Username     string
	FirstName    string
	Balance      decimal.Decimal
	JoinedDate   time.Time
	LastActivity time.Time
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Transaction represents a deposit or withdrawal request
type Transaction struct {
	ID               string
	UserID           int64
	Amount           decimal.Decimal
	Type             TxType
	PaymentMethod    string
	PaymentDetails   string
	OriginalAmount   decimal.Decimal
	OriginalCurrency string
	CreatedAt        time.Time
	Status           Status
	RejectReason     string
}

// SignedAmount returns the amount with the sign implied by the type:
// positive for deposits, negative for withdrawals.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TxWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Order represents a purchase of a catalog product against balance
type Order struct {
	ID          int64
	UserID      int64
	ProductType ProductKind
	ProductID   string
	Amount      string
	Price       decimal.Decimal
	CreatedAt   time.Time
	Status      Status
}

// BalanceHistoryEntry is an immutable audit row for one balance mutation
type BalanceHistoryEntry struct {
	ID              int64
	UserID          int64
	OldBalance      decimal.Decimal
	NewBalance      decimal.Decimal
	ChangeAmount    decimal.Decimal
	TransactionType string
	CreatedAt       time.Time
}

// AdminLogEntry is an immutable audit row for one privileged action
type AdminLogEntry struct {
	ID        int64
	AdminID   int64
	Action    string
	Details   string
	CreatedAt time.Time
}
