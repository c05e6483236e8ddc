package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults: %v", err)
	}
	return &cfg
}

func TestDefaults_AreValid(t *testing.T) {
	cfg := defaultConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Engine.PremiumPpm != 900 {
		t.Errorf("expected default premium 900 ppm, got %d", cfg.Engine.PremiumPpm)
	}
	if cfg.Orchestrator.ScanInterval != 5*time.Second {
		t.Errorf("expected default scan interval 5s, got %v", cfg.Orchestrator.ScanInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults pass",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "ttl below range",
			mutate:  func(c *Config) { c.Engine.TTLSeconds = 5 },
			wantErr: true,
		},
		{
			name:    "ttl above range",
			mutate:  func(c *Config) { c.Engine.TTLSeconds = 601 },
			wantErr: true,
		},
		{
			name:    "loan exceeds max loan",
			mutate:  func(c *Config) { c.Arbitrage.LoanAmount = c.Arbitrage.MaxLoanAmount + 1 },
			wantErr: true,
		},
		{
			name:    "zero concurrent trades",
			mutate:  func(c *Config) { c.Risk.MaxConcurrentTrades = 0 },
			wantErr: true,
		},
		{
			name:    "max delay below base delay",
			mutate:  func(c *Config) { c.Retry.MaxDelay = c.Retry.BaseDelay / 2 },
			wantErr: true,
		},
		{
			name:    "bad owner address",
			mutate:  func(c *Config) { c.Engine.Owner = "not-an-address" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoanAmountRaw(t *testing.T) {
	cfg := &ArbitrageConfig{LoanAmount: 1000, AssetDecimals: 6}
	if got := cfg.LoanAmountRaw().String(); got != "1000000000" {
		t.Errorf("expected 1000000000, got %s", got)
	}
}
