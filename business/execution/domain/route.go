// Package domain defines the execution context's core types: swap routes,
// execution results, and engine events.
package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// RouterKind identifies the swap protocol family a hop executes against.
// The set is closed: adding a kind requires touching the dispatcher.
type RouterKind uint8

const (
	// KindConstantProduct is a Uniswap V2 style x*y=k pool router.
	KindConstantProduct RouterKind = iota
	// KindConcentratedLiquidity is a Uniswap V3 style fee-tiered router.
	KindConcentratedLiquidity
)

// String returns a human-readable kind name.
func (k RouterKind) String() string {
	switch k {
	case KindConstantProduct:
		return "constant_product"
	case KindConcentratedLiquidity:
		return "concentrated_liquidity"
	default:
		return "unknown"
	}
}

// Hop is a single swap in a route. TokenOut is the asset received; the input
// asset is the previous hop's output (or the borrowed asset for the first hop).
type Hop struct {
	Router   common.Address
	Kind     RouterKind
	TokenOut common.Address
	FeeTier  uint32   // concentrated liquidity only, ppm style fee tier (e.g. 3000)
	MinOut   *big.Int // minimum acceptable output for this hop
}

// SwapRoute is an ordered sequence of hops. A profitable route must be
// circular: the last hop's output token equals the borrowed asset.
type SwapRoute struct {
	Hops []Hop
}

// Validate checks structural route invariants against the borrowed asset.
func (r *SwapRoute) Validate(borrowedAsset common.Address) error {
	if len(r.Hops) == 0 {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("route has no hops"))
	}
	last := r.Hops[len(r.Hops)-1]
	if last.TokenOut != borrowedAsset {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("route does not end in borrowed asset"),
			apperror.WithContext("token_out", last.TokenOut.Hex()),
			apperror.WithContext("borrowed_asset", borrowedAsset.Hex()))
	}
	for i, hop := range r.Hops {
		if hop.MinOut == nil || hop.MinOut.Sign() <= 0 {
			return apperror.New(apperror.CodeInvalidParams,
				apperror.WithMessage("hop min output must be positive"),
				apperror.WithContext("hop", i))
		}
		if hop.Kind == KindConcentratedLiquidity && hop.FeeTier == 0 {
			return apperror.New(apperror.CodeInvalidParams,
				apperror.WithMessage("concentrated liquidity hop requires a fee tier"),
				apperror.WithContext("hop", i))
		}
	}
	return nil
}

// Summary returns a compact route description for logs and attempt records,
// e.g. "USDC>0x..beef(cp)>0x..cafe(cl:3000)".
func (r *SwapRoute) Summary() string {
	if len(r.Hops) == 0 {
		return "empty"
	}
	s := ""
	for i, hop := range r.Hops {
		if i > 0 {
			s += ">"
		}
		s += hop.TokenOut.Hex()[:10]
		if hop.Kind == KindConcentratedLiquidity {
			s += fmt.Sprintf("(cl:%d)", hop.FeeTier)
		} else {
			s += "(cp)"
		}
	}
	return s
}
