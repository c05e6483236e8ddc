package engine_test

import (
	"math/big"
	"testing"

	"github.com/flasharb-labs/flasharb/business/execution/domain"
	"github.com/flasharb-labs/flasharb/internal/apperror"

	"github.com/ethereum/go-ethereum/common"
)

func TestAdmin_OwnerGate(t *testing.T) {
	f := newFixture(t, false)

	if err := f.eng.SetPaused(stranger, true); !apperror.IsCode(err, apperror.CodeNotAuthorized) {
		t.Errorf("SetPaused by stranger: expected NOT_AUTHORIZED, got %v", err)
	}
	if err := f.eng.SetMaxLoan(stranger, big.NewInt(1)); !apperror.IsCode(err, apperror.CodeNotAuthorized) {
		t.Errorf("SetMaxLoan by stranger: expected NOT_AUTHORIZED, got %v", err)
	}
	if err := f.eng.SetTTL(stranger, 60); !apperror.IsCode(err, apperror.CodeNotAuthorized) {
		t.Errorf("SetTTL by stranger: expected NOT_AUTHORIZED, got %v", err)
	}
	if err := f.eng.Withdraw(stranger, f.usdc, stranger, big.NewInt(1)); !apperror.IsCode(err, apperror.CodeNotAuthorized) {
		t.Errorf("Withdraw by stranger: expected NOT_AUTHORIZED, got %v", err)
	}
}

func TestAdmin_SetTTLBounds(t *testing.T) {
	f := newFixture(t, false)

	for _, ttl := range []uint64{9, 601} {
		if err := f.eng.SetTTL(owner, ttl); !apperror.IsCode(err, apperror.CodeInvalidParams) {
			t.Errorf("ttl %d: expected INVALID_PARAMS, got %v", ttl, err)
		}
	}
	if err := f.eng.SetTTL(owner, 60); err != nil {
		t.Fatalf("SetTTL(60): %v", err)
	}
	if f.eng.TTLSeconds() != 60 {
		t.Errorf("ttl not applied, got %d", f.eng.TTLSeconds())
	}
}

func TestAdmin_SetMaxLoanApplies(t *testing.T) {
	f := newFixture(t, false)

	if err := f.eng.SetMaxLoan(owner, big.NewInt(50_000)); err != nil {
		t.Fatalf("SetMaxLoan: %v", err)
	}
	_, err := f.chain.Transact(func() error {
		return f.eng.RequestFlashLoan(owner, big.NewInt(loanAmount), f.params(t, 100_200, 100))
	})
	if !apperror.IsCode(err, apperror.CodeMaxLoanExceeded) {
		t.Fatalf("expected MAX_LOAN_EXCEEDED under the new cap, got %v", err)
	}
}

func TestAdmin_TransferOwnershipAtomicFlip(t *testing.T) {
	f := newFixture(t, false)
	newOwner := common.HexToAddress("0x00000000000000000000000000000000000C0DE0")

	if err := f.eng.TransferOwnership(owner, common.Address{}); !apperror.IsCode(err, apperror.CodeInvalidParams) {
		t.Fatalf("zero address: expected INVALID_PARAMS, got %v", err)
	}
	if err := f.eng.TransferOwnership(owner, newOwner); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	// Previous owner lost all privileges in the same step.
	if f.eng.IsAuthorized(owner) {
		t.Error("previous owner should not stay authorized")
	}
	if !f.eng.IsAuthorized(newOwner) {
		t.Error("new owner should be authorized")
	}
	if err := f.eng.SetPaused(owner, true); !apperror.IsCode(err, apperror.CodeNotAuthorized) {
		t.Errorf("previous owner should not administer, got %v", err)
	}
	if err := f.eng.SetPaused(newOwner, true); err != nil {
		t.Errorf("new owner should administer, got %v", err)
	}

	events := f.eng.Events()
	var seen bool
	for _, ev := range events {
		if hand, ok := ev.(domain.OwnershipTransferredEvent); ok {
			seen = true
			if hand.PreviousOwner != owner || hand.NewOwner != newOwner {
				t.Errorf("bad handover event: %+v", hand)
			}
		}
	}
	if !seen {
		t.Error("missing OwnershipTransferred event")
	}
}

func TestAdmin_AuthorizationOutsideOwnerOnly(t *testing.T) {
	f := newFixture(t, false)

	if err := f.eng.SetOwnerOnly(owner, false); err != nil {
		t.Fatalf("SetOwnerOnly: %v", err)
	}
	if f.eng.IsAuthorized(stranger) {
		t.Fatal("stranger authorized before grant")
	}
	if err := f.eng.SetAuthorization(owner, stranger, true); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !f.eng.IsAuthorized(stranger) {
		t.Fatal("stranger should be authorized after grant")
	}

	if err := f.request2(stranger, f.params(t, 100_200, 100)); err != nil {
		t.Fatalf("authorized stranger should execute: %v", err)
	}

	if err := f.eng.SetAuthorization(owner, stranger, false); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if f.eng.IsAuthorized(stranger) {
		t.Fatal("stranger should lose authorization after revoke")
	}
}

func TestAdmin_WithdrawSweepsProfit(t *testing.T) {
	f := newFixture(t, false)
	if err := f.request(f.params(t, 100_200, 100)); err != nil {
		t.Fatalf("execute: %v", err)
	}

	treasury := common.HexToAddress("0x00000000000000000000000000000000000FEE00")
	_, err := f.chain.Transact(func() error {
		return f.eng.Withdraw(owner, f.usdc, treasury, big.NewInt(291))
	})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := f.usdc.BalanceOf(treasury); got.Cmp(big.NewInt(291)) != 0 {
		t.Errorf("treasury should hold 291, got %s", got)
	}
	if got := f.usdc.BalanceOf(f.eng.Address()); got.Sign() != 0 {
		t.Errorf("engine should be swept, got %s", got)
	}
}

// request2 is request with an explicit caller.
func (f *fixture) request2(caller common.Address, params []byte) error {
	_, err := f.chain.Transact(func() error {
		return f.eng.RequestFlashLoan(caller, big.NewInt(loanAmount), params)
	})
	return err
}
