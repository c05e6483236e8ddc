package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/business/execution/domain"
	"github.com/flasharb-labs/flasharb/business/execution/evm"
	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// Owner-gated administration. Every mutation emits an event and runs inside
// the caller's transaction scope, so admin changes revert with the
// transaction like any other state.

func (e *Engine) requireOwner(caller common.Address) error {
	if caller != e.owner {
		return apperror.New(apperror.CodeNotAuthorized,
			apperror.WithContext("caller", caller.Hex()))
	}
	return nil
}

// SetPaused toggles the pause flag. A paused engine rejects new loan
// requests; the flag has no effect on an execution already in flight.
func (e *Engine) SetPaused(caller common.Address, paused bool) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.paused = paused
	e.emit(domain.PausedEvent{Paused: paused})
	return nil
}

// SetAuthorization grants or revokes a caller's right to request loans.
// Only meaningful when the engine is not in owner-only mode.
func (e *Engine) SetAuthorization(caller, target common.Address, authorized bool) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if target == (common.Address{}) {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("cannot authorize the zero address"))
	}
	e.authorized[target] = authorized
	e.emit(domain.AuthorizationEvent{Caller: target, Authorized: authorized})
	return nil
}

// SetOwnerOnly toggles owner-only mode.
func (e *Engine) SetOwnerOnly(caller common.Address, ownerOnly bool) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.ownerOnly = ownerOnly
	return nil
}

// SetMaxLoan updates the loan cap.
func (e *Engine) SetMaxLoan(caller common.Address, maxLoan *big.Int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if maxLoan == nil || maxLoan.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("max loan must be positive"))
	}
	e.maxLoan = new(big.Int).Set(maxLoan)
	e.emit(domain.MaxLoanUpdatedEvent{MaxLoan: new(big.Int).Set(maxLoan)})
	return nil
}

// SetTTL updates the swap deadline window, bounded to [10, 600] seconds.
func (e *Engine) SetTTL(caller common.Address, ttlSeconds uint64) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if ttlSeconds < 10 || ttlSeconds > 600 {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("ttl must be within [10, 600] seconds"),
			apperror.WithContext("ttl", ttlSeconds))
	}
	e.ttlSeconds = ttlSeconds
	e.emit(domain.TTLUpdatedEvent{TTLSeconds: ttlSeconds})
	return nil
}

// TransferOwnership hands the engine to a new owner. The authorization flip
// is atomic: the new owner gains loan rights and the previous owner loses
// them in the same step, so there is no window with two privileged parties.
func (e *Engine) TransferOwnership(caller, newOwner common.Address) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("cannot transfer to the zero address"))
	}
	previous := e.owner
	e.owner = newOwner
	delete(e.authorized, previous)
	e.authorized[newOwner] = true
	e.emit(domain.OwnershipTransferredEvent{PreviousOwner: previous, NewOwner: newOwner})
	return nil
}

// Withdraw sweeps stranded tokens from the engine to the given address.
func (e *Engine) Withdraw(caller common.Address, token *evm.Token, to common.Address, amount *big.Int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if to == (common.Address{}) || amount == nil || amount.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("withdraw needs a recipient and a positive amount"))
	}
	if err := token.Transfer(e.addr, to, amount); err != nil {
		return err
	}
	e.emit(domain.WithdrawEvent{Token: token.Address(), To: to, Amount: new(big.Int).Set(amount)})
	return nil
}
