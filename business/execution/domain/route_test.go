package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

var (
	usdc   = common.HexToAddress("0x01")
	weth   = common.HexToAddress("0x02")
	v2rtr  = common.HexToAddress("0xa1")
	v3rtr  = common.HexToAddress("0xa2")
	minOne = big.NewInt(1)
)

func TestSwapRoute_Validate(t *testing.T) {
	tests := []struct {
		name     string
		route    SwapRoute
		wantCode apperror.Code
	}{
		{
			name: "valid circular route",
			route: SwapRoute{Hops: []Hop{
				{Router: v2rtr, Kind: KindConstantProduct, TokenOut: weth, MinOut: minOne},
				{Router: v3rtr, Kind: KindConcentratedLiquidity, TokenOut: usdc, FeeTier: 3000, MinOut: minOne},
			}},
		},
		{
			name:     "empty route",
			route:    SwapRoute{},
			wantCode: apperror.CodeInvalidParams,
		},
		{
			name: "not circular",
			route: SwapRoute{Hops: []Hop{
				{Router: v2rtr, Kind: KindConstantProduct, TokenOut: weth, MinOut: minOne},
			}},
			wantCode: apperror.CodeInvalidParams,
		},
		{
			name: "zero min output",
			route: SwapRoute{Hops: []Hop{
				{Router: v2rtr, Kind: KindConstantProduct, TokenOut: usdc, MinOut: big.NewInt(0)},
			}},
			wantCode: apperror.CodeInvalidParams,
		},
		{
			name: "nil min output",
			route: SwapRoute{Hops: []Hop{
				{Router: v2rtr, Kind: KindConstantProduct, TokenOut: usdc},
			}},
			wantCode: apperror.CodeInvalidParams,
		},
		{
			name: "concentrated hop without fee tier",
			route: SwapRoute{Hops: []Hop{
				{Router: v3rtr, Kind: KindConcentratedLiquidity, TokenOut: usdc, MinOut: minOne},
			}},
			wantCode: apperror.CodeInvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.route.Validate(usdc)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("expected valid route, got %v", err)
				}
				return
			}
			if !apperror.IsCode(err, tt.wantCode) {
				t.Fatalf("expected code %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestSwapRoute_Summary(t *testing.T) {
	route := SwapRoute{Hops: []Hop{
		{Router: v2rtr, Kind: KindConstantProduct, TokenOut: weth, MinOut: minOne},
		{Router: v3rtr, Kind: KindConcentratedLiquidity, TokenOut: usdc, FeeTier: 3000, MinOut: minOne},
	}}
	want := weth.Hex()[:10] + "(cp)>" + usdc.Hex()[:10] + "(cl:3000)"
	if got := route.Summary(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	empty := SwapRoute{}
	if got := empty.Summary(); got != "empty" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestRouterKind_String(t *testing.T) {
	if KindConstantProduct.String() != "constant_product" {
		t.Errorf("unexpected: %s", KindConstantProduct.String())
	}
	if KindConcentratedLiquidity.String() != "concentrated_liquidity" {
		t.Errorf("unexpected: %s", KindConcentratedLiquidity.String())
	}
	if RouterKind(99).String() != "unknown" {
		t.Errorf("unexpected: %s", RouterKind(99).String())
	}
}
