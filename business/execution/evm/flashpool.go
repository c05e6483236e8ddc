package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// FlashReceiver is the callback contract interface for flash loans, shaped
// after Aave V3's IFlashLoanSimpleReceiver.
type FlashReceiver interface {
	// ExecuteOperation is invoked after the loan is transferred. sender is
	// the address making the callback (the pool), initiator the address
	// that requested the loan.
	ExecuteOperation(sender, asset common.Address, amount, premium *big.Int, initiator common.Address, params []byte) error
	// Address is the receiver's ledger address, which must hold
	// amount+premium with an allowance to the pool when the callback returns.
	Address() common.Address
}

// FlashPool lends a single asset with a fixed premium, modeled on Aave V3's
// flashLoanSimple flow: transfer the loan, call back into the receiver, then
// pull amount plus premium.
type FlashPool struct {
	chain      *Chain
	addr       common.Address
	asset      *Token
	premiumPpm uint64
}

// NewFlashPool creates a flash loan pool for the asset. premiumPpm is the
// fee in parts per million (900 = 0.09%).
func NewFlashPool(chain *Chain, asset *Token, premiumPpm uint64) *FlashPool {
	return &FlashPool{
		chain:      chain,
		addr:       NewAddress("flashpool:" + asset.Symbol()),
		asset:      asset,
		premiumPpm: premiumPpm,
	}
}

// Address returns the pool's ledger address.
func (p *FlashPool) Address() common.Address { return p.addr }

// Asset returns the lendable token.
func (p *FlashPool) Asset() *Token { return p.asset }

// Premium returns the fee charged on a loan of the given size.
func (p *FlashPool) Premium(amount *big.Int) *big.Int {
	premium := new(big.Int).Mul(amount, new(big.Int).SetUint64(p.premiumPpm))
	return premium.Div(premium, big.NewInt(1_000_000))
}

// FlashLoanSimple lends amount to the receiver, invokes its callback, and
// pulls back amount plus premium. initiator is the address that requested
// the loan and is forwarded to the callback unchanged.
func (p *FlashPool) FlashLoanSimple(initiator common.Address, receiver FlashReceiver, amount *big.Int, params []byte) error {
	p.chain.UseGas(GasFlashOverhead)

	if p.asset.BalanceOf(p.addr).Cmp(amount) < 0 {
		return apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithMessage("flash pool cannot cover loan"),
			apperror.WithContext("amount", amount.String()))
	}
	premium := p.Premium(amount)

	if err := p.asset.Transfer(p.addr, receiver.Address(), amount); err != nil {
		return err
	}
	if err := receiver.ExecuteOperation(p.addr, p.asset.Address(), amount, premium, initiator, params); err != nil {
		return err
	}

	owed := new(big.Int).Add(amount, premium)
	if err := p.asset.TransferFrom(p.addr, receiver.Address(), p.addr, owed); err != nil {
		return apperror.New(apperror.CodeRepaymentFailed,
			apperror.WithCause(err),
			apperror.WithContext("owed", owed.String()))
	}
	return nil
}
