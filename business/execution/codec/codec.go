// Package codec packs and unpacks flash loan route parameters using the
// Solidity ABI layout (address[], address[], uint24[], uint256[], uint256),
// so the byte payload handed to the flash loan provider is exactly what a
// deployed receiver contract would abi.decode.
package codec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// Params is the decoded route payload. Slices are parallel: index i
// describes hop i.
type Params struct {
	Path      []common.Address // output token of each hop
	Routers   []common.Address
	Fees      []uint32 // concentrated liquidity fee tier, 0 for constant product
	MinOuts   []*big.Int
	MinProfit *big.Int
}

var routeArgs abi.Arguments

func init() {
	mustType := func(t string) abi.Type {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		return typ
	}
	routeArgs = abi.Arguments{
		{Name: "path", Type: mustType("address[]")},
		{Name: "routers", Type: mustType("address[]")},
		{Name: "fees", Type: mustType("uint24[]")},
		{Name: "minOuts", Type: mustType("uint256[]")},
		{Name: "minProfit", Type: mustType("uint256")},
	}
}

// Encode packs the params into ABI bytes.
func Encode(p Params) ([]byte, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	fees := make([]*big.Int, len(p.Fees))
	for i, f := range p.Fees {
		fees[i] = new(big.Int).SetUint64(uint64(f))
	}
	data, err := routeArgs.Pack(p.Path, p.Routers, fees, p.MinOuts, p.MinProfit)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("abi pack failed"),
			apperror.WithCause(err))
	}
	return data, nil
}

// Decode unpacks ABI bytes into params, enforcing the same structural
// invariants as Encode.
func Decode(data []byte) (Params, error) {
	values, err := routeArgs.Unpack(data)
	if err != nil {
		return Params{}, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("abi unpack failed"),
			apperror.WithCause(err))
	}

	p := Params{
		Path:      values[0].([]common.Address),
		Routers:   values[1].([]common.Address),
		MinOuts:   values[3].([]*big.Int),
		MinProfit: values[4].(*big.Int),
	}
	rawFees := values[2].([]*big.Int)
	p.Fees = make([]uint32, len(rawFees))
	for i, f := range rawFees {
		p.Fees[i] = uint32(f.Uint64())
	}

	if err := validate(p); err != nil {
		return Params{}, err
	}
	return p, nil
}

func validate(p Params) error {
	n := len(p.Path)
	if n == 0 {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("route has no hops"))
	}
	if len(p.Routers) != n || len(p.Fees) != n || len(p.MinOuts) != n {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("parallel arrays must have equal length"),
			apperror.WithContext("path", n),
			apperror.WithContext("routers", len(p.Routers)),
			apperror.WithContext("fees", len(p.Fees)),
			apperror.WithContext("min_outs", len(p.MinOuts)))
	}
	if p.MinProfit == nil || p.MinProfit.Sign() < 0 {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("min profit must be non-negative"))
	}
	for i, m := range p.MinOuts {
		if m == nil || m.Sign() < 0 {
			return apperror.New(apperror.CodeInvalidParams,
				apperror.WithMessage("min output must be non-negative"),
				apperror.WithContext("hop", i))
		}
	}
	return nil
}
