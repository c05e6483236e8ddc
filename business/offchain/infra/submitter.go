package infra

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/business/execution/codec"
	execdomain "github.com/flasharb-labs/flasharb/business/execution/domain"
	"github.com/flasharb-labs/flasharb/business/execution/engine"
	"github.com/flasharb-labs/flasharb/business/execution/evm"
	"github.com/flasharb-labs/flasharb/business/offchain/domain"
	"github.com/flasharb-labs/flasharb/internal/apperror"
	"github.com/flasharb-labs/flasharb/internal/logger"
)

// LedgerSubmitter turns an opportunity into a flash loan transaction on the
// ledger chain. Reverts are reported as failed results, not errors: the
// attempt happened and burned gas.
type LedgerSubmitter struct {
	log    logger.LoggerInterface
	chain  *evm.Chain
	eng    *engine.Engine
	caller common.Address
}

// NewLedgerSubmitter creates a submitter that signs as caller.
func NewLedgerSubmitter(log logger.LoggerInterface, chain *evm.Chain, eng *engine.Engine, caller common.Address) *LedgerSubmitter {
	return &LedgerSubmitter{log: log, chain: chain, eng: eng, caller: caller}
}

// Submit implements app.Submitter.
func (s *LedgerSubmitter) Submit(ctx context.Context, opp domain.Opportunity) (execdomain.ExecutionResult, error) {
	params, err := s.encode(opp)
	if err != nil {
		return execdomain.ExecutionResult{}, err
	}

	s.log.Debug(ctx, "submitting flash loan",
		"opportunity_id", opp.ID.String(),
		"amount", opp.Amount.String(),
		"route", opp.Route.Summary())

	before := s.eng.TotalProfit()
	gasUsed, txErr := s.chain.Transact(func() error {
		return s.eng.RequestFlashLoan(s.caller, opp.Amount, params)
	})
	if txErr != nil {
		return execdomain.ExecutionResult{
			Profit:       big.NewInt(0),
			GasUsed:      gasUsed,
			RevertReason: string(apperror.GetCode(txErr)),
		}, nil
	}

	profit := new(big.Int).Sub(s.eng.TotalProfit(), before)
	return execdomain.ExecutionResult{
		Success: true,
		Profit:  profit,
		GasUsed: gasUsed,
	}, nil
}

func (s *LedgerSubmitter) encode(opp domain.Opportunity) ([]byte, error) {
	n := len(opp.Route.Hops)
	p := codec.Params{
		Path:      make([]common.Address, n),
		Routers:   make([]common.Address, n),
		Fees:      make([]uint32, n),
		MinOuts:   make([]*big.Int, n),
		MinProfit: opp.MinProfit,
	}
	for i, hop := range opp.Route.Hops {
		p.Path[i] = hop.TokenOut
		p.Routers[i] = hop.Router
		p.Fees[i] = hop.FeeTier
		p.MinOuts[i] = hop.MinOut
	}
	data, err := codec.Encode(p)
	if err != nil {
		return nil, apperror.New(apperror.CodeSubmissionFailed, apperror.WithCause(err))
	}
	return data, nil
}
