package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"
)

const (
	DefaultConfigFile = "config/bot_config.json"

	ModeMainnet = "main"
	ModeTest    = "test"
)

type Config struct {
	// Chain and network settings
	Mode       string `json:"mode" yaml:"mode"`
	LogLevel   string `json:"log_level" yaml:"log_level"`
	ChainID    uint64 `json:"chain_id" yaml:"chain_id"`
	MainnetRPC string `json:"mainnet_rpc" yaml:"mainnet_rpc"`
	TestnetRPC string `json:"testnet_rpc" yaml:"testnet_rpc"`

	// Contracts
	ArbitrageAddress string `json:"arbitrage_address" yaml:"arbitrage_address"`
	ArbitrageABIFile string `json:"arbitrage_abi_file" yaml:"arbitrage_abi_file"`
	FlashLoanAddress string `json:"flashloan_address" yaml:"flashloan_address"`
	GasLimit         uint64 `json:"gas_limit" yaml:"gas_limit"`

	// Token registries
	TokenFile         string   `json:"token_file" yaml:"token_file"`
	LoanTokenFile     string   `json:"loan_token_file" yaml:"loan_token_file"`
	AllowedLoanTokens []string `json:"allowed_loan_tokens" yaml:"allowed_loan_tokens"`

	// Loop behaviour
	LoopInterval       Duration `json:"loop_interval" yaml:"loop_interval"`
	FeePollInterval    Duration `json:"fee_poll_interval" yaml:"fee_poll_interval"`
	MaxFeePriceAge     Duration `json:"max_fee_price_age" yaml:"max_fee_price_age"`
	StopAfterExecution bool     `json:"stop_after_execution" yaml:"stop_after_execution"`
	DedupCacheSize     int      `json:"dedup_cache_size" yaml:"dedup_cache_size"`

	// Outbound proxies for quote requests
	Proxies []string `json:"proxies" yaml:"proxies"`

	Paraswap  ParaswapConfig  `json:"paraswap" yaml:"paraswap"`
	Kyberswap KyberswapConfig `json:"kyberswap" yaml:"kyberswap"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
}

// ServiceConfig contains the HTTP settings shared by both aggregators
type ServiceConfig struct {
	BaseURL           string   `json:"base_url" yaml:"base_url"`
	Timeout           Duration `json:"timeout" yaml:"timeout"`
	RequestsPerSecond float64  `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int      `json:"burst" yaml:"burst"`
	SlippageBps       uint64   `json:"slippage_bps" yaml:"slippage_bps"`
}

type ParaswapConfig struct {
	ServiceConfig `yaml:",inline"`
	Network       uint64 `json:"network" yaml:"network"`
	MaxImpact     int    `json:"max_impact" yaml:"max_impact"`
}

type KyberswapConfig struct {
	ServiceConfig `yaml:",inline"`
	ClientID      string `json:"client_id" yaml:"client_id"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Listen  string `json:"listen" yaml:"listen"`
}

func DefaultConfig() *Config {
	return &Config{
		Mode:               ModeMainnet,
		LogLevel:           "info",
		ChainID:            56,
		MainnetRPC:         "https://bsc-dataseed.binance.org/",
		TestnetRPC:         "https://data-seed-prebsc-1-s1.binance.org:8545/",
		GasLimit:           8_000_000,
		TokenFile:          "config/tokens.json",
		LoanTokenFile:      "config/loan_tokens.json",
		AllowedLoanTokens:  []string{"BUSD", "WBNB"},
		LoopInterval:       Duration{time.Second},
		FeePollInterval:    Duration{time.Second},
		StopAfterExecution: true,
		DedupCacheSize:     1024,
		Paraswap: ParaswapConfig{
			ServiceConfig: ServiceConfig{
				BaseURL:     "https://apiv5.paraswap.io",
				Timeout:     Duration{10 * time.Second},
				SlippageBps: 9000,
			},
			Network:   56,
			MaxImpact: 100,
		},
		Kyberswap: KyberswapConfig{
			ServiceConfig: ServiceConfig{
				BaseURL:     "https://aggregator-api.kyberswap.com/bsc/api/v1",
				Timeout:     Duration{10 * time.Second},
				SlippageBps: 2000,
			},
			ClientID: "v1swapper",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9100",
		},
	}
}

// LoadConfig reads a JSON or YAML file on top of DefaultConfig and
// validates the result
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		cfgFile = DefaultConfigFile
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(cfgFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RPCURL returns the node endpoint for the configured mode
func (c *Config) RPCURL() string {
	if c.Mode == ModeTest {
		return c.TestnetRPC
	}
	return c.MainnetRPC
}

// IsAllowedLoanToken reports whether symbol may be flash loaned
func (c *Config) IsAllowedLoanToken(symbol string) bool {
	for _, allowed := range c.AllowedLoanTokens {
		if allowed == symbol {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	var errors []string

	if c.ChainID == 0 {
		errors = append(errors, "chain_id must be specified")
	}
	if c.RPCURL() == "" {
		errors = append(errors, fmt.Sprintf("rpc endpoint for mode %q must be specified", c.Mode))
	}
	if _, err := zapcore.ParseLevel(levelOrDefault(c.LogLevel)); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log_level %q", c.LogLevel))
	}

	// Contracts
	if !isContractAddress(c.ArbitrageAddress) {
		errors = append(errors, "arbitrage_address must be a valid non-zero address")
	}
	if !isContractAddress(c.FlashLoanAddress) {
		errors = append(errors, "flashloan_address must be a valid non-zero address")
	}
	if c.GasLimit == 0 {
		errors = append(errors, "gas_limit must be positive")
	}

	// Tokens
	if c.TokenFile == "" {
		errors = append(errors, "token_file must be specified")
	}
	if c.LoanTokenFile == "" {
		errors = append(errors, "loan_token_file must be specified")
	}
	if len(c.AllowedLoanTokens) == 0 {
		errors = append(errors, "allowed_loan_tokens must not be empty")
	}

	// Intervals
	if c.LoopInterval.Duration <= 0 {
		errors = append(errors, "loop_interval must be positive")
	}
	if c.FeePollInterval.Duration <= 0 {
		errors = append(errors, "fee_poll_interval must be positive")
	}
	if c.MaxFeePriceAge.Duration < 0 {
		errors = append(errors, "max_fee_price_age must not be negative")
	}

	if err := c.Paraswap.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("paraswap: %v", err))
	}
	if err := c.Kyberswap.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("kyberswap: %v", err))
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errors = append(errors, "metrics.listen must be specified when metrics are enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}

func (s *ServiceConfig) Validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("base url must be specified")
	}
	if s.Timeout.Duration < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if s.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative")
	}
	if s.SlippageBps > 10000 {
		return fmt.Errorf("slippage must not exceed 10000 bps")
	}
	return nil
}

func (p *ParaswapConfig) Validate() error {
	if err := p.ServiceConfig.Validate(); err != nil {
		return err
	}
	if p.Network == 0 {
		return fmt.Errorf("network must be specified")
	}
	return nil
}

func (k *KyberswapConfig) Validate() error {
	if err := k.ServiceConfig.Validate(); err != nil {
		return err
	}
	if k.ClientID == "" {
		return fmt.Errorf("client id must be specified")
	}
	return nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

func isContractAddress(s string) bool {
	return common.IsHexAddress(s) && common.HexToAddress(s) != (common.Address{})
}
