// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Ethereum     EthereumConfig     `mapstructure:"ethereum"`
	Arbitrage    ArbitrageConfig    `mapstructure:"arbitrage"`
	Risk         RiskConfig         `mapstructure:"risk"`
	Retry        RetryConfig        `mapstructure:"retry"`
	Gas          GasConfig          `mapstructure:"gas"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EngineConfig holds execution engine settings.
type EngineConfig struct {
	Owner      string `mapstructure:"owner"`
	OwnerOnly  bool   `mapstructure:"owner_only"`
	TTLSeconds uint64 `mapstructure:"ttl_seconds"`
	PremiumPpm uint64 `mapstructure:"premium_ppm"` // flash loan premium, parts per million (900 = 0.09%)
}

// OwnerAddress returns the owner as common.Address.
func (c *EngineConfig) OwnerAddress() common.Address {
	return common.HexToAddress(c.Owner)
}

// EthereumConfig holds Ethereum node configuration. The HTTP endpoint is
// optional: when empty the gas strategist runs on simulated observations.
type EthereumConfig struct {
	HTTPURL string `mapstructure:"http_url"`
	ChainID uint64 `mapstructure:"chain_id"`
}

// ArbitrageConfig holds flash loan sizing and profit thresholds.
type ArbitrageConfig struct {
	LoanAmount            float64 `mapstructure:"loan_amount"`              // in whole tokens of the borrowed asset
	MaxLoanAmount         float64 `mapstructure:"max_loan_amount"`          // upper bound enforced on-chain and off-chain
	MinProfitThresholdUSD float64 `mapstructure:"min_profit_threshold_usd"` // verifier floor
	AssetPriceUSD         float64 `mapstructure:"asset_price_usd"`          // USD price of the borrowed asset
	AssetDecimals         int32   `mapstructure:"asset_decimals"`
}

// LoanAmountRaw returns the loan amount in the asset's smallest unit.
func (c *ArbitrageConfig) LoanAmountRaw() decimal.Decimal {
	return decimal.NewFromFloat(c.LoanAmount).Shift(c.AssetDecimals)
}

// MaxLoanAmountRaw returns the maximum loan in the asset's smallest unit.
func (c *ArbitrageConfig) MaxLoanAmountRaw() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxLoanAmount).Shift(c.AssetDecimals)
}

// MinProfitThresholdUSDDecimal returns the verifier floor as decimal.
func (c *ArbitrageConfig) MinProfitThresholdUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitThresholdUSD)
}

// AssetPriceUSDDecimal returns the asset price as decimal.
func (c *ArbitrageConfig) AssetPriceUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.AssetPriceUSD)
}

// RiskConfig holds risk manager limits.
type RiskConfig struct {
	MaxConcurrentTrades int     `mapstructure:"max_concurrent_trades"`
	MaxDailyLossUSD     float64 `mapstructure:"max_daily_loss_usd"`
	MaxDailyTrades      int     `mapstructure:"max_daily_trades"`
	StopLossUSD         float64 `mapstructure:"stop_loss_usd"` // single-trade loss that trips the emergency stop
}

// MaxDailyLossUSDDecimal returns the daily loss limit as decimal.
func (c *RiskConfig) MaxDailyLossUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxDailyLossUSD)
}

// StopLossUSDDecimal returns the hard stop-loss threshold as decimal.
func (c *RiskConfig) StopLossUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.StopLossUSD)
}

// RetryConfig holds the retry policy applied to volatile off-chain calls.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// GasConfig holds gas strategist settings.
type GasConfig struct {
	MaxGasPriceGwei  float64 `mapstructure:"max_gas_price_gwei"`
	WindowSize       int     `mapstructure:"window_size"`
	GasLimitEstimate uint64  `mapstructure:"gas_limit_estimate"`
	EthPriceUSD      float64 `mapstructure:"eth_price_usd"`
}

// OrchestratorConfig holds control loop settings.
type OrchestratorConfig struct {
	ScanInterval time.Duration `mapstructure:"scan_interval"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Engine
	v.BindEnv("engine.owner", "ARB_ENGINE_OWNER")
	v.BindEnv("engine.owner_only", "ARB_ENGINE_OWNER_ONLY")
	v.BindEnv("engine.ttl_seconds", "ARB_ENGINE_TTL_SECONDS")

	// Ethereum
	v.BindEnv("ethereum.http_url", "ARB_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "ARB_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Arbitrage
	v.BindEnv("arbitrage.loan_amount", "ARB_LOAN_AMOUNT")
	v.BindEnv("arbitrage.max_loan_amount", "ARB_MAX_LOAN_AMOUNT")
	v.BindEnv("arbitrage.min_profit_threshold_usd", "ARB_MIN_PROFIT_THRESHOLD_USD")

	// Risk
	v.BindEnv("risk.max_concurrent_trades", "ARB_MAX_CONCURRENT_TRADES")
	v.BindEnv("risk.max_daily_loss_usd", "ARB_MAX_DAILY_LOSS_USD")
	v.BindEnv("risk.max_daily_trades", "ARB_MAX_DAILY_TRADES")

	// Retry
	v.BindEnv("retry.max_attempts", "ARB_RETRY_MAX_ATTEMPTS")
	v.BindEnv("retry.base_delay", "ARB_RETRY_BASE_DELAY")
	v.BindEnv("retry.max_delay", "ARB_RETRY_MAX_DELAY")

	// Gas
	v.BindEnv("gas.max_gas_price_gwei", "ARB_MAX_GAS_PRICE_GWEI")

	// Orchestrator
	v.BindEnv("orchestrator.scan_interval", "ARB_SCAN_INTERVAL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flasharb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Engine defaults
	v.SetDefault("engine.owner", "0x00000000000000000000000000000000000A11CE")
	v.SetDefault("engine.owner_only", true)
	v.SetDefault("engine.ttl_seconds", 300)
	v.SetDefault("engine.premium_ppm", 900) // Aave V3 default premium, 0.09%

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)

	// Arbitrage defaults
	v.SetDefault("arbitrage.loan_amount", 1000)
	v.SetDefault("arbitrage.max_loan_amount", 100000)
	v.SetDefault("arbitrage.min_profit_threshold_usd", 5)
	v.SetDefault("arbitrage.asset_price_usd", 1.0)
	v.SetDefault("arbitrage.asset_decimals", 6)

	// Risk defaults
	v.SetDefault("risk.max_concurrent_trades", 3)
	v.SetDefault("risk.max_daily_loss_usd", 1000)
	v.SetDefault("risk.max_daily_trades", 50)
	v.SetDefault("risk.stop_loss_usd", 500)

	// Retry defaults
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "200ms")
	v.SetDefault("retry.max_delay", "5s")

	// Gas defaults
	v.SetDefault("gas.max_gas_price_gwei", 200)
	v.SetDefault("gas.window_size", 10)
	v.SetDefault("gas.gas_limit_estimate", 600000)
	v.SetDefault("gas.eth_price_usd", 3400)

	// Orchestrator defaults
	v.SetDefault("orchestrator.scan_interval", "5s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flasharb")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Engine.Owner) {
		return fmt.Errorf("invalid engine.owner: %s", c.Engine.Owner)
	}
	if c.Engine.TTLSeconds < 10 || c.Engine.TTLSeconds > 600 {
		return fmt.Errorf("engine.ttl_seconds must be within [10, 600], got %d", c.Engine.TTLSeconds)
	}
	if c.Arbitrage.LoanAmount <= 0 {
		return fmt.Errorf("arbitrage.loan_amount must be positive")
	}
	if c.Arbitrage.LoanAmount > c.Arbitrage.MaxLoanAmount {
		return fmt.Errorf("arbitrage.loan_amount exceeds arbitrage.max_loan_amount")
	}
	if c.Arbitrage.AssetPriceUSD <= 0 {
		return fmt.Errorf("arbitrage.asset_price_usd must be positive")
	}
	if c.Risk.MaxConcurrentTrades < 1 {
		return fmt.Errorf("risk.max_concurrent_trades must be at least 1")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.BaseDelay <= 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry delays must satisfy 0 < base_delay <= max_delay")
	}
	if c.Gas.MaxGasPriceGwei <= 0 {
		return fmt.Errorf("gas.max_gas_price_gwei must be positive")
	}
	if c.Orchestrator.ScanInterval <= 0 {
		return fmt.Errorf("orchestrator.scan_interval must be positive")
	}
	return nil
}
