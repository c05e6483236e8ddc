// Package monolith wires the application together: shared infrastructure
// (config, logger, ledger chain, DI container) plus the business modules
// registered on top of it.
package monolith

import (
	"context"

	"github.com/flasharb-labs/flasharb/business/execution/evm"
	"github.com/flasharb-labs/flasharb/internal/config"
	"github.com/flasharb-labs/flasharb/internal/di"
	"github.com/flasharb-labs/flasharb/internal/logger"
)

// Module is a self-contained business capability. RegisterServices wires
// the module's services into the container; Startup runs its long-lived
// work after every module has registered.
type Module interface {
	Name() string
	RegisterServices(mono *Monolith) error
	Startup(ctx context.Context) error
}

// Monolith is the composition root shared by all modules.
type Monolith struct {
	cfg       *config.Config
	log       logger.LoggerInterface
	chain     *evm.Chain
	container di.Container
	modules   []Module
}

// New creates the monolith with a fresh ledger chain.
func New(cfg *config.Config, log logger.LoggerInterface) *Monolith {
	m := &Monolith{
		cfg:       cfg,
		log:       log,
		chain:     evm.NewChain(),
		container: di.NewContainer(),
	}
	m.container.Register("config", cfg)
	m.container.Register("logger", log)
	m.container.Register("chain", m.chain)
	return m
}

// Config returns the application configuration.
func (m *Monolith) Config() *config.Config { return m.cfg }

// Logger returns the shared logger.
func (m *Monolith) Logger() logger.LoggerInterface { return m.log }

// Chain returns the shared ledger chain.
func (m *Monolith) Chain() *evm.Chain { return m.chain }

// Services returns the DI container.
func (m *Monolith) Services() di.Container { return m.container }

// RegisterModules runs service registration for each module in order.
// Registration order matters: later modules may resolve services the
// earlier ones registered.
func (m *Monolith) RegisterModules(modules ...Module) error {
	for _, mod := range modules {
		m.log.Info(context.Background(), "registering module", "module", mod.Name())
		if err := mod.RegisterServices(m); err != nil {
			return err
		}
		m.modules = append(m.modules, mod)
	}
	return nil
}

// StartModules starts every registered module.
func (m *Monolith) StartModules(ctx context.Context) error {
	for _, mod := range m.modules {
		m.log.Info(ctx, "starting module", "module", mod.Name())
		if err := mod.Startup(ctx); err != nil {
			return err
		}
	}
	return nil
}
