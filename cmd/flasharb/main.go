// flasharb runs the flash loan arbitrage stack: the execution engine on its
// in-memory ledger plus the off-chain orchestrator scanning and submitting
// against it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/flasharb-labs/flasharb/business/execution"
	"github.com/flasharb-labs/flasharb/business/offchain"
	offchaindi "github.com/flasharb-labs/flasharb/business/offchain/di"
	"github.com/flasharb-labs/flasharb/internal/apm"
	"github.com/flasharb-labs/flasharb/internal/di"
	"github.com/flasharb-labs/flasharb/internal/config"
	"github.com/flasharb-labs/flasharb/internal/health"
	"github.com/flasharb-labs/flasharb/internal/logger"
	"github.com/flasharb-labs/flasharb/internal/metrics"
	"github.com/flasharb-labs/flasharb/internal/monolith"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "flasharb: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "path to config file")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return nil
	}

	// .env is optional, real env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		traceProvider := apm.NewTraceProvider(log,
			apm.WithProvider(apm.OTLPProvider, log))
		defer func() {
			if err := traceProvider.Stop(); err != nil {
				log.Warn(ctx, "trace provider shutdown failed", "error", err)
			}
		}()

		opts := []metrics.OptionFn{
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			opts = append(opts, metrics.WithProviderConfig(
				metrics.NewOtelCollectorConfig(cfg.Telemetry.OTLPEndpoint, nil, true)))
		}
		meterProvider := metrics.NewMetricProvider(opts...)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := meterProvider.Shutdown(shutdownCtx); err != nil {
				log.Warn(ctx, "meter provider shutdown failed", "error", err)
			}
		}()
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(cfg.Telemetry.PrometheusPort)))
	}

	mono := monolith.New(cfg, log)
	executionModule := execution.NewModule()
	offchainModule := offchain.NewModule()
	if err := mono.RegisterModules(executionModule, offchainModule); err != nil {
		return err
	}

	healthServer := health.NewServer(8081, version)
	go func() {
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "health server stopped", "error", err)
		}
	}()

	if err := mono.StartModules(ctx); err != nil {
		return err
	}

	risk := di.GetToken(mono.Services(), offchaindi.RiskManagerToken)
	healthServer.RegisterCheck("risk", func(context.Context) (bool, string) {
		if risk.EmergencyStopped() {
			return false, "emergency stop engaged"
		}
		return true, "trading"
	})
	log.Info(ctx, "flasharb started", "version", version, "environment", cfg.App.Environment)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info(ctx, "shutting down")

	cancel()
	offchainModule.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Stop(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "health server shutdown failed", "error", err)
	}
	return nil
}
