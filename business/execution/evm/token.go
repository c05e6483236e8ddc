package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// Token is an ERC-20 style ledger entry. When requireZeroApproval is set the
// token rejects approvals that change a non-zero allowance to another
// non-zero value, the way USDT does, forcing callers through a reset.
type Token struct {
	chain               *Chain
	addr                common.Address
	symbol              string
	decimals            uint8
	requireZeroApproval bool

	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int

	// transferHook, when set, runs after every successful transfer. Tests
	// use it to simulate reentrant token callbacks.
	transferHook func(from, to common.Address, amount *big.Int)
}

type tokenSnapshot struct {
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// NewToken creates a token and registers it on the chain.
func NewToken(chain *Chain, symbol string, decimals uint8, requireZeroApproval bool) *Token {
	t := &Token{
		chain:               chain,
		addr:                NewAddress("token:" + symbol),
		symbol:              symbol,
		decimals:            decimals,
		requireZeroApproval: requireZeroApproval,
		balances:            make(map[common.Address]*big.Int),
		allowances:          make(map[common.Address]map[common.Address]*big.Int),
	}
	chain.Register(t)
	return t
}

// Address returns the token's ledger address.
func (t *Token) Address() common.Address { return t.addr }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.symbol }

// Decimals returns the token's decimal places.
func (t *Token) Decimals() uint8 { return t.decimals }

// SetTransferHook installs a post-transfer callback.
func (t *Token) SetTransferHook(hook func(from, to common.Address, amount *big.Int)) {
	t.transferHook = hook
}

// Mint credits amount to an address without a counterparty.
func (t *Token) Mint(to common.Address, amount *big.Int) {
	t.credit(to, amount)
}

// BalanceOf returns a copy of the address's balance.
func (t *Token) BalanceOf(addr common.Address) *big.Int {
	if b, ok := t.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Transfer moves amount from one address to another.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	t.chain.UseGas(GasTransfer)
	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.credit(to, amount)
	if t.transferHook != nil {
		t.transferHook(from, to, amount)
	}
	return nil
}

// Approve sets spender's allowance over owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	t.chain.UseGas(GasApprove)
	current := t.Allowance(owner, spender)
	if t.requireZeroApproval && current.Sign() != 0 && amount.Sign() != 0 {
		return apperror.New(apperror.CodeApproveFail,
			apperror.WithMessage("non-zero allowance must be reset to zero first"),
			apperror.WithContext("token", t.symbol),
			apperror.WithContext("current", current.String()))
	}
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
	return nil
}

// Allowance returns a copy of spender's allowance over owner's balance.
func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return new(big.Int).Set(a)
		}
	}
	return new(big.Int)
}

// TransferFrom moves amount from `from` to `to`, consuming spender's
// allowance.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	allowance := t.Allowance(from, spender)
	if allowance.Cmp(amount) < 0 {
		return apperror.New(apperror.CodeInsufficientAllowance,
			apperror.WithContext("token", t.symbol),
			apperror.WithContext("allowance", allowance.String()),
			apperror.WithContext("amount", amount.String()))
	}
	if err := t.Transfer(from, to, amount); err != nil {
		return err
	}
	if t.allowances[from] == nil {
		t.allowances[from] = make(map[common.Address]*big.Int)
	}
	t.allowances[from][spender] = allowance.Sub(allowance, amount)
	return nil
}

func (t *Token) debit(addr common.Address, amount *big.Int) error {
	b := t.BalanceOf(addr)
	if b.Cmp(amount) < 0 {
		return apperror.New(apperror.CodeInsufficientBalance,
			apperror.WithContext("token", t.symbol),
			apperror.WithContext("balance", b.String()),
			apperror.WithContext("amount", amount.String()))
	}
	t.balances[addr] = b.Sub(b, amount)
	return nil
}

func (t *Token) credit(addr common.Address, amount *big.Int) {
	t.balances[addr] = new(big.Int).Add(t.BalanceOf(addr), amount)
}

// Snapshot implements Journaled.
func (t *Token) Snapshot() any {
	snap := tokenSnapshot{
		balances:   make(map[common.Address]*big.Int, len(t.balances)),
		allowances: make(map[common.Address]map[common.Address]*big.Int, len(t.allowances)),
	}
	for a, b := range t.balances {
		snap.balances[a] = new(big.Int).Set(b)
	}
	for owner, m := range t.allowances {
		inner := make(map[common.Address]*big.Int, len(m))
		for spender, a := range m {
			inner[spender] = new(big.Int).Set(a)
		}
		snap.allowances[owner] = inner
	}
	return snap
}

// Restore implements Journaled.
func (t *Token) Restore(snap any) {
	s := snap.(tokenSnapshot)
	t.balances = s.balances
	t.allowances = s.allowances
}
