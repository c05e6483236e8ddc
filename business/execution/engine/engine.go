// Package engine implements the flash loan receiver: it borrows from the
// flash pool, walks the encoded route through whitelisted routers, enforces
// slippage and profit floors, and repays the loan, with every failure
// reverting the whole attempt.
package engine

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/flasharb-labs/flasharb/business/execution/codec"
	"github.com/flasharb-labs/flasharb/business/execution/domain"
	"github.com/flasharb-labs/flasharb/business/execution/evm"
	"github.com/flasharb-labs/flasharb/internal/apperror"
	"github.com/flasharb-labs/flasharb/internal/logger"
)

// V2Swapper is the constant product router surface the engine dispatches to.
type V2Swapper interface {
	Address() common.Address
	SwapExactTokensForTokens(caller common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline uint64) (*big.Int, error)
}

// V3Swapper is the concentrated liquidity router surface.
type V3Swapper interface {
	Address() common.Address
	ExactInputSingle(caller common.Address, params evm.ExactInputSingleParams) (*big.Int, error)
}

type routerEntry struct {
	kind domain.RouterKind
	v2   V2Swapper
	v3   V3Swapper
}

// Config holds the engine's deploy-time parameters.
type Config struct {
	Owner      common.Address
	OwnerOnly  bool
	MaxLoan    *big.Int
	TTLSeconds uint64
}

type instruments struct {
	executions metric.Int64Counter
	reverts    metric.Int64Counter
	profit     metric.Float64Counter
}

// Engine is the on-ledger arbitrage executor. It implements
// evm.FlashReceiver and keeps every mutable field under the chain journal
// so a failed attempt leaves no trace.
type Engine struct {
	chain    *evm.Chain
	log      logger.LoggerInterface
	provider *evm.FlashPool
	addr     common.Address

	// routers is the immutable whitelist, fixed at construction.
	routers map[common.Address]routerEntry
	tokens  map[common.Address]*evm.Token

	// journaled state
	owner         common.Address
	ownerOnly     bool
	paused        bool
	locked        bool
	maxLoan       *big.Int
	ttlSeconds    uint64
	authorized    map[common.Address]bool
	executedCount uint64
	totalProfit   *big.Int
	events        []domain.Event

	inst instruments
}

type engineSnapshot struct {
	owner         common.Address
	ownerOnly     bool
	paused        bool
	locked        bool
	maxLoan       *big.Int
	ttlSeconds    uint64
	authorized    map[common.Address]bool
	executedCount uint64
	totalProfit   *big.Int
	events        []domain.Event
}

// New creates the engine, registers it on the chain journal and freezes the
// router whitelist. Tokens must cover every asset the routes can touch.
func New(
	chain *evm.Chain,
	log logger.LoggerInterface,
	provider *evm.FlashPool,
	cfg Config,
	v2Routers []V2Swapper,
	v3Routers []V3Swapper,
	tokens []*evm.Token,
) (*Engine, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("owner must not be the zero address"))
	}
	if cfg.TTLSeconds < 10 || cfg.TTLSeconds > 600 {
		return nil, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("ttl must be within [10, 600] seconds"),
			apperror.WithContext("ttl", cfg.TTLSeconds))
	}
	if cfg.MaxLoan == nil || cfg.MaxLoan.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("max loan must be positive"))
	}

	e := &Engine{
		chain:       chain,
		log:         log,
		provider:    provider,
		addr:        evm.NewAddress("engine:flasharb"),
		routers:     make(map[common.Address]routerEntry),
		tokens:      make(map[common.Address]*evm.Token),
		owner:       cfg.Owner,
		ownerOnly:   cfg.OwnerOnly,
		maxLoan:     new(big.Int).Set(cfg.MaxLoan),
		ttlSeconds:  cfg.TTLSeconds,
		authorized:  make(map[common.Address]bool),
		totalProfit: new(big.Int),
	}
	for _, r := range v2Routers {
		e.routers[r.Address()] = routerEntry{kind: domain.KindConstantProduct, v2: r}
	}
	for _, r := range v3Routers {
		e.routers[r.Address()] = routerEntry{kind: domain.KindConcentratedLiquidity, v3: r}
	}
	for _, t := range tokens {
		e.tokens[t.Address()] = t
	}
	asset := provider.Asset()
	e.tokens[asset.Address()] = asset

	if err := e.initMetrics(); err != nil {
		return nil, err
	}
	chain.Register(e)
	return e, nil
}

func (e *Engine) initMetrics() error {
	meter := otel.Meter("business.execution.engine")
	var err error
	if e.inst.executions, err = meter.Int64Counter("engine.executions.total",
		metric.WithDescription("Flash loan executions by outcome")); err != nil {
		return err
	}
	if e.inst.reverts, err = meter.Int64Counter("engine.reverts.total",
		metric.WithDescription("Reverted executions by reason")); err != nil {
		return err
	}
	if e.inst.profit, err = meter.Float64Counter("engine.profit.total",
		metric.WithDescription("Cumulative realized profit in asset units")); err != nil {
		return err
	}
	return nil
}

// Address returns the engine's ledger address.
func (e *Engine) Address() common.Address { return e.addr }

// Owner returns the current owner.
func (e *Engine) Owner() common.Address { return e.owner }

// Paused reports whether new loan requests are blocked.
func (e *Engine) Paused() bool { return e.paused }

// TTLSeconds returns the swap deadline window.
func (e *Engine) TTLSeconds() uint64 { return e.ttlSeconds }

// MaxLoan returns a copy of the loan cap.
func (e *Engine) MaxLoan() *big.Int { return new(big.Int).Set(e.maxLoan) }

// ExecutedCount returns the number of successful executions.
func (e *Engine) ExecutedCount() uint64 { return e.executedCount }

// TotalProfit returns a copy of the cumulative realized profit.
func (e *Engine) TotalProfit() *big.Int { return new(big.Int).Set(e.totalProfit) }

// Events returns a copy of the emitted event log.
func (e *Engine) Events() []domain.Event {
	out := make([]domain.Event, len(e.events))
	copy(out, e.events)
	return out
}

// IsAuthorized reports whether the caller may request flash loans.
func (e *Engine) IsAuthorized(caller common.Address) bool {
	if caller == e.owner {
		return true
	}
	if e.ownerOnly {
		return false
	}
	return e.authorized[caller]
}

// RequestFlashLoan asks the provider for a loan of the borrowed asset with
// the ABI-encoded route as callback payload.
func (e *Engine) RequestFlashLoan(caller common.Address, amount *big.Int, params []byte) error {
	ctx := context.Background()
	if e.paused {
		return apperror.New(apperror.CodeEnginePaused)
	}
	if !e.IsAuthorized(caller) {
		return apperror.New(apperror.CodeNotAuthorized,
			apperror.WithContext("caller", caller.Hex()))
	}
	if amount == nil || amount.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("loan amount must be positive"))
	}
	if amount.Cmp(e.maxLoan) > 0 {
		return apperror.New(apperror.CodeMaxLoanExceeded,
			apperror.WithContext("amount", amount.String()),
			apperror.WithContext("max_loan", e.maxLoan.String()))
	}

	err := e.provider.FlashLoanSimple(e.addr, e, amount, params)
	if err != nil {
		e.inst.executions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "revert")))
		e.inst.reverts.Add(ctx, 1, metric.WithAttributes(
			attribute.String("reason", string(apperror.GetCode(err)))))
		return err
	}
	e.inst.executions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	return nil
}

// ExecuteOperation is the flash loan callback. The reentrancy lock is
// checked before anything else, then the pause flag, provider and
// initiator, then the route runs hop by hop with per-hop slippage
// enforcement and a final profit check before repayment is approved.
func (e *Engine) ExecuteOperation(sender, asset common.Address, amount, premium *big.Int, initiator common.Address, params []byte) error {
	if e.locked {
		return apperror.New(apperror.CodeReentrancy)
	}
	e.locked = true
	defer func() { e.locked = false }()

	// A pause between the loan request and the callback still aborts.
	if e.paused {
		return apperror.New(apperror.CodeEnginePaused)
	}
	if sender != e.provider.Address() {
		return apperror.New(apperror.CodeNotAavePool,
			apperror.WithContext("sender", sender.Hex()))
	}
	if initiator != e.addr {
		return apperror.New(apperror.CodeInvalidInitiator,
			apperror.WithContext("initiator", initiator.Hex()))
	}

	route, err := codec.Decode(params)
	if err != nil {
		return err
	}

	assetToken, ok := e.tokens[asset]
	if !ok {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("unknown borrowed asset"),
			apperror.WithContext("asset", asset.Hex()))
	}
	if route.Path[len(route.Path)-1] != asset {
		return apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("route does not end in borrowed asset"))
	}

	startBalance := assetToken.BalanceOf(e.addr)
	deadline := e.chain.Timestamp() + e.ttlSeconds

	tokenIn := assetToken
	amountIn := new(big.Int).Set(amount)
	for i := range route.Path {
		entry, ok := e.routers[route.Routers[i]]
		if !ok {
			return apperror.New(apperror.CodeInvalidRouter,
				apperror.WithContext("router", route.Routers[i].Hex()),
				apperror.WithContext("hop", i))
		}
		if entry.kind == domain.KindConcentratedLiquidity && route.Fees[i] == 0 {
			return apperror.New(apperror.CodeInvalidParams,
				apperror.WithMessage("concentrated liquidity hop requires a fee tier"),
				apperror.WithContext("hop", i))
		}
		tokenOut, ok := e.tokens[route.Path[i]]
		if !ok {
			return apperror.New(apperror.CodeInvalidParams,
				apperror.WithMessage("unknown token in path"),
				apperror.WithContext("hop", i))
		}

		if err := e.safeApprove(tokenIn, route.Routers[i], amountIn); err != nil {
			return err
		}
		out, err := e.dispatch(entry, tokenIn, tokenOut, amountIn, route.Fees[i], deadline)
		if err != nil {
			return err
		}
		if out.Cmp(route.MinOuts[i]) < 0 {
			return apperror.New(apperror.CodeSlippageExceeded,
				apperror.WithContext("hop", i),
				apperror.WithContext("out", out.String()),
				apperror.WithContext("min_out", route.MinOuts[i].String()))
		}
		tokenIn = tokenOut
		amountIn = out
	}

	endBalance := assetToken.BalanceOf(e.addr)
	profit := new(big.Int).Sub(endBalance, startBalance)
	profit.Sub(profit, premium)
	if profit.Cmp(route.MinProfit) < 0 {
		return apperror.New(apperror.CodeProfitTooLow,
			apperror.WithContext("profit", profit.String()),
			apperror.WithContext("min_profit", route.MinProfit.String()))
	}

	owed := new(big.Int).Add(amount, premium)
	if err := e.safeApprove(assetToken, e.provider.Address(), owed); err != nil {
		return err
	}

	e.executedCount++
	e.totalProfit.Add(e.totalProfit, profit)
	e.emit(domain.ExecutedEvent{
		Asset:   asset,
		Amount:  new(big.Int).Set(amount),
		Premium: new(big.Int).Set(premium),
		Profit:  profit,
	})

	ctx := context.Background()
	pf, _ := new(big.Float).SetInt(profit).Float64()
	e.inst.profit.Add(ctx, pf)
	e.log.Info(ctx, "flash loan executed",
		"asset", assetToken.Symbol(),
		"amount", amount.String(),
		"premium", premium.String(),
		"profit", profit.String(),
		"hops", len(route.Path))
	return nil
}

// safeApprove handles tokens that reject non-zero to non-zero allowance
// changes by resetting to zero and retrying once.
func (e *Engine) safeApprove(token *evm.Token, spender common.Address, amount *big.Int) error {
	err := token.Approve(e.addr, spender, amount)
	if err == nil {
		return nil
	}
	if !apperror.IsCode(err, apperror.CodeApproveFail) {
		return err
	}
	if err := token.Approve(e.addr, spender, big.NewInt(0)); err != nil {
		return apperror.New(apperror.CodeApproveFail, apperror.WithCause(err))
	}
	if err := token.Approve(e.addr, spender, amount); err != nil {
		return apperror.New(apperror.CodeApproveFail, apperror.WithCause(err))
	}
	return nil
}

func (e *Engine) emit(ev domain.Event) {
	e.events = append(e.events, ev)
}

// Snapshot implements evm.Journaled.
func (e *Engine) Snapshot() any {
	auth := make(map[common.Address]bool, len(e.authorized))
	for a, v := range e.authorized {
		auth[a] = v
	}
	events := make([]domain.Event, len(e.events))
	copy(events, e.events)
	return engineSnapshot{
		owner:         e.owner,
		ownerOnly:     e.ownerOnly,
		paused:        e.paused,
		locked:        e.locked,
		maxLoan:       new(big.Int).Set(e.maxLoan),
		ttlSeconds:    e.ttlSeconds,
		authorized:    auth,
		executedCount: e.executedCount,
		totalProfit:   new(big.Int).Set(e.totalProfit),
		events:        events,
	}
}

// Restore implements evm.Journaled.
func (e *Engine) Restore(snap any) {
	s := snap.(engineSnapshot)
	e.owner = s.owner
	e.ownerOnly = s.ownerOnly
	e.paused = s.paused
	e.locked = s.locked
	e.maxLoan = s.maxLoan
	e.ttlSeconds = s.ttlSeconds
	e.authorized = s.authorized
	e.executedCount = s.executedCount
	e.totalProfit = s.totalProfit
	e.events = s.events
}
