package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/flasharb-labs/flasharb/business/offchain/domain"
	"github.com/flasharb-labs/flasharb/internal/apm"
	"github.com/flasharb-labs/flasharb/internal/logger"
	"github.com/flasharb-labs/flasharb/internal/retry"
)

// OrchestratorConfig holds control loop settings.
type OrchestratorConfig struct {
	ScanInterval time.Duration
	Retry        retry.Policy
	EthPriceUSD  decimal.Decimal
}

// Orchestrator runs the scan, verify, admit, submit cycle. Verification is
// retried because it is idempotent; submission is attempted exactly once
// per opportunity. Submissions run concurrently up to the risk manager's
// slot limit, and a panic in one opportunity never takes down the loop.
type Orchestrator struct {
	log       logger.LoggerInterface
	scanner   Scanner
	verifier  *Verifier
	risk      *RiskManager
	gas       *GasStrategist
	submitter Submitter
	reporter  Reporter
	cfg       OrchestratorConfig

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	tracer      apm.Tracer
	ticks       metric.Int64Counter
	submissions metric.Int64Counter
	skips       metric.Int64Counter
}

// NewOrchestrator creates the control loop.
func NewOrchestrator(
	log logger.LoggerInterface,
	scanner Scanner,
	verifier *Verifier,
	risk *RiskManager,
	gas *GasStrategist,
	submitter Submitter,
	reporter Reporter,
	cfg OrchestratorConfig,
) (*Orchestrator, error) {
	o := &Orchestrator{
		log:       log,
		scanner:   scanner,
		verifier:  verifier,
		risk:      risk,
		gas:       gas,
		submitter: submitter,
		reporter:  reporter,
		cfg:       cfg,
		stop:      make(chan struct{}),
		tracer:    apm.NewTracer("business.offchain.orchestrator"),
	}
	meter := otel.Meter("business.offchain.orchestrator")
	var err error
	if o.ticks, err = meter.Int64Counter("orchestrator.ticks.total",
		metric.WithDescription("Scan cycles run")); err != nil {
		return nil, err
	}
	if o.submissions, err = meter.Int64Counter("orchestrator.submissions.total",
		metric.WithDescription("Submissions by outcome")); err != nil {
		return nil, err
	}
	if o.skips, err = meter.Int64Counter("orchestrator.skips.total",
		metric.WithDescription("Opportunities skipped by reason")); err != nil {
		return nil, err
	}
	return o, nil
}

// Start launches the scan loop. It returns immediately; Stop shuts the
// loop down and waits for in-flight submissions.
func (o *Orchestrator) Start(ctx context.Context) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cfg.ScanInterval)
		defer ticker.Stop()

		o.log.Info(ctx, "orchestrator started", "scan_interval", o.cfg.ScanInterval.String())
		for {
			select {
			case <-ctx.Done():
				return
			case <-o.stop:
				return
			case <-ticker.C:
				o.tick(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for in-flight submissions to finish.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() { close(o.stop) })
	o.wg.Wait()
}

func (o *Orchestrator) tick(ctx context.Context) {
	ctx, span := o.tracer.StartSpanFromContext(ctx, "orchestrator.tick")
	defer span.End()
	o.ticks.Add(ctx, 1)

	opps, err := retry.Do(ctx, o.cfg.Retry, func(ctx context.Context) ([]domain.Opportunity, error) {
		return o.scanner.Scan(ctx)
	})
	if err != nil {
		span.NoticeError(err)
		o.log.Warn(ctx, "scan failed", "error", err)
		return
	}

	for _, opp := range opps {
		o.process(ctx, opp)
	}
}

func (o *Orchestrator) process(ctx context.Context, opp domain.Opportunity) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error(ctx, "panic while processing opportunity",
				"opportunity_id", opp.ID.String(), "panic", r)
		}
	}()

	validation, err := retry.Do(ctx, o.cfg.Retry, func(ctx context.Context) (domain.Validation, error) {
		return o.verifier.Validate(ctx, opp)
	})
	if err != nil {
		o.skip(ctx, "quote_failed")
		o.log.Warn(ctx, "verification failed", "opportunity_id", opp.ID.String(), "error", err)
		return
	}
	if !validation.IsValid {
		o.skip(ctx, "not_profitable")
		return
	}
	if err := o.risk.Admit(ctx); err != nil {
		o.skip(ctx, "risk_limit")
		o.log.Info(ctx, "opportunity blocked by risk limits",
			"opportunity_id", opp.ID.String(), "error", err)
		return
	}
	if o.gas.Overloaded() {
		o.skip(ctx, "gas_overloaded")
		return
	}
	if !o.risk.TryBegin() {
		o.skip(ctx, "no_slot")
		return
	}

	o.wg.Add(1)
	go o.submit(ctx, opp)
}

// submit runs one attempt, releases the slot and records the outcome.
// Submission is deliberately not retried: a second attempt would be a
// second loan, not a repeat of the first.
func (o *Orchestrator) submit(ctx context.Context, opp domain.Opportunity) {
	defer o.wg.Done()
	defer o.risk.End()
	defer func() {
		if r := recover(); r != nil {
			o.log.Error(ctx, "panic during submission",
				"opportunity_id", opp.ID.String(), "panic", r)
		}
	}()

	ctx, span := o.tracer.StartSpanFromContext(ctx, "orchestrator.submit")
	defer span.End()
	span.SetAttribute(attribute.String("opportunity.id", opp.ID.String()))

	res, err := o.submitter.Submit(ctx, opp)
	if err != nil {
		span.NoticeError(err)
	}
	gasCost := o.gas.CostUSD(res.GasUsed, o.cfg.EthPriceUSD)

	rec := domain.AttemptRecord{
		Timestamp:     time.Now().UTC(),
		OpportunityID: opp.ID,
		RouteSummary:  opp.Route.Summary(),
		GasUsed:       res.GasUsed,
	}
	var profitUSD decimal.Decimal
	if err != nil || !res.Success {
		rec.Success = false
		if err != nil {
			rec.Err = err.Error()
		} else {
			rec.Err = res.RevertReason
		}
		profitUSD = gasCost.Neg()
		o.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "revert")))
		o.log.Warn(ctx, "submission reverted",
			"opportunity_id", opp.ID.String(),
			"reason", rec.Err,
			"gas_used", res.GasUsed)
	} else {
		rec.Success = true
		profitUSD = o.verifier.ToUSD(res.Profit).Sub(gasCost)
		o.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
		o.log.Info(ctx, "submission succeeded",
			"opportunity_id", opp.ID.String(),
			"profit", res.Profit.String(),
			"profit_usd", profitUSD.String(),
			"gas_used", res.GasUsed)
	}
	rec.ProfitUSD = profitUSD

	o.risk.Record(ctx, profitUSD)
	o.reporter.Report(ctx, rec)
}

func (o *Orchestrator) skip(ctx context.Context, reason string) {
	o.skips.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
