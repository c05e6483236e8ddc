package codec

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

func sampleParams() Params {
	return Params{
		Path: []common.Address{
			common.HexToAddress("0x01"),
			common.HexToAddress("0x02"),
		},
		Routers: []common.Address{
			common.HexToAddress("0xa1"),
			common.HexToAddress("0xa2"),
		},
		Fees:      []uint32{0, 3000},
		MinOuts:   []*big.Int{big.NewInt(995), big.NewInt(1001)},
		MinProfit: big.NewInt(50),
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := sampleParams()
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(out.Path) != len(in.Path) {
		t.Fatalf("path length mismatch: %d vs %d", len(out.Path), len(in.Path))
	}
	for i := range in.Path {
		if out.Path[i] != in.Path[i] {
			t.Errorf("path[%d]: %s vs %s", i, out.Path[i].Hex(), in.Path[i].Hex())
		}
		if out.Routers[i] != in.Routers[i] {
			t.Errorf("routers[%d]: %s vs %s", i, out.Routers[i].Hex(), in.Routers[i].Hex())
		}
		if out.Fees[i] != in.Fees[i] {
			t.Errorf("fees[%d]: %d vs %d", i, out.Fees[i], in.Fees[i])
		}
		if out.MinOuts[i].Cmp(in.MinOuts[i]) != 0 {
			t.Errorf("minOuts[%d]: %s vs %s", i, out.MinOuts[i], in.MinOuts[i])
		}
	}
	if out.MinProfit.Cmp(in.MinProfit) != 0 {
		t.Errorf("minProfit: %s vs %s", out.MinProfit, in.MinProfit)
	}
}

func TestEncode_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{
			name:   "empty route",
			mutate: func(p *Params) { p.Path = nil },
		},
		{
			name:   "router length mismatch",
			mutate: func(p *Params) { p.Routers = p.Routers[:1] },
		},
		{
			name:   "fee length mismatch",
			mutate: func(p *Params) { p.Fees = append(p.Fees, 500) },
		},
		{
			name:   "min out length mismatch",
			mutate: func(p *Params) { p.MinOuts = p.MinOuts[:1] },
		},
		{
			name:   "nil min profit",
			mutate: func(p *Params) { p.MinProfit = nil },
		},
		{
			name:   "negative min profit",
			mutate: func(p *Params) { p.MinProfit = big.NewInt(-1) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleParams()
			tt.mutate(&p)
			_, err := Encode(p)
			if !apperror.IsCode(err, apperror.CodeInvalidParams) {
				t.Fatalf("expected INVALID_PARAMS, got %v", err)
			}
		})
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x02, 0x03})
	if !apperror.IsCode(err, apperror.CodeInvalidParams) {
		t.Fatalf("expected INVALID_PARAMS, got %v", err)
	}
}
