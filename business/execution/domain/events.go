package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event is implemented by all engine log events.
type Event interface {
	EventName() string
}

// ExecutedEvent is emitted after a successful flash loan round trip.
type ExecutedEvent struct {
	Asset   common.Address
	Amount  *big.Int
	Premium *big.Int
	Profit  *big.Int
}

func (ExecutedEvent) EventName() string { return "Executed" }

// PausedEvent is emitted when the pause flag changes.
type PausedEvent struct {
	Paused bool
}

func (PausedEvent) EventName() string { return "Paused" }

// AuthorizationEvent is emitted when a caller's authorization changes.
type AuthorizationEvent struct {
	Caller     common.Address
	Authorized bool
}

func (AuthorizationEvent) EventName() string { return "Authorization" }

// MaxLoanUpdatedEvent is emitted when the loan cap changes.
type MaxLoanUpdatedEvent struct {
	MaxLoan *big.Int
}

func (MaxLoanUpdatedEvent) EventName() string { return "MaxLoanUpdated" }

// TTLUpdatedEvent is emitted when the swap deadline window changes.
type TTLUpdatedEvent struct {
	TTLSeconds uint64
}

func (TTLUpdatedEvent) EventName() string { return "TTLUpdated" }

// OwnershipTransferredEvent is emitted on ownership handover.
type OwnershipTransferredEvent struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

func (OwnershipTransferredEvent) EventName() string { return "OwnershipTransferred" }

// WithdrawEvent is emitted when the owner sweeps tokens out of the engine.
type WithdrawEvent struct {
	Token  common.Address
	To     common.Address
	Amount *big.Int
}

func (WithdrawEvent) EventName() string { return "Withdraw" }
