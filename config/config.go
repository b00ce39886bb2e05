package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	RPCURL        string `mapstructure:"rpc_url"`
	Commitment    string `mapstructure:"commitment"`
	SkipPreflight bool   `mapstructure:"skip_preflight"`
	StakingVault  string `mapstructure:"staking_vault"`

	Wallet    WalletConfig           `mapstructure:"wallet"`
	Prices    PriceConfig            `mapstructure:"prices"`
	Swap      SwapConfig             `mapstructure:"swap"`
	Executor  ExecutorConfig         `mapstructure:"executor"`
	Notify    NotifyConfig           `mapstructure:"notify"`
	Flow      FlowConfig             `mapstructure:"flow"`
	Log       LogConfig              `mapstructure:"log"`
	Assets    map[string]AssetConfig `mapstructure:"assets"`
	Campaigns []CampaignConfig       `mapstructure:"campaigns"`
}

// WalletConfig selects where the signing key comes from
type WalletConfig struct {
	KeySource    string `mapstructure:"key_source"` // "env", "file" or "ssm"
	PrivateKey   string `mapstructure:"private_key"`
	KeyFile      string `mapstructure:"key_file"`
	SSMParameter string `mapstructure:"ssm_parameter"`
}

// PriceConfig configures the price fetcher
type PriceConfig struct {
	Source   string        `mapstructure:"source"` // "coingecko" or "oneclick"
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Currency string        `mapstructure:"currency"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// SwapConfig configures the 1Click route service
type SwapConfig struct {
	JWTToken    string        `mapstructure:"jwt_token"`
	BaseURL     string        `mapstructure:"base_url"`
	SlippageBps int           `mapstructure:"slippage_bps"`
	Deadline    time.Duration `mapstructure:"deadline"`
}

// ExecutorConfig bounds confirmation polling
type ExecutorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

type NotifyConfig struct {
	Duration time.Duration `mapstructure:"duration"`
}

type FlowConfig struct {
	SerializeSubmissions bool `mapstructure:"serialize_submissions"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // optional rotated log file
	Environment string `mapstructure:"environment"` // "dev" or "prod"
}

// AssetConfig describes one asset the flows can move
type AssetConfig struct {
	Mint       string  `mapstructure:"mint"` // empty for the native asset
	Decimals   uint8   `mapstructure:"decimals"`
	PriceID    string  `mapstructure:"price_id"`
	FixedPrice float64 `mapstructure:"fixed_price"`
}

// CampaignConfig is a donation target
type CampaignConfig struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Address     string `mapstructure:"address"`
}

const DonationWallet = "BARKkeAwhTuFzcLHX4DjotRsmjXQ1MshGrZbn1CUQqMo"

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".blinkpay")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	setDefaults(v)

	// BLINKPAY_SWAP_JWT_TOKEN -> swap.jwt_token
	v.SetEnvPrefix("BLINKPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Assets) == 0 {
		cfg.Assets = DefaultAssets()
	}
	if len(cfg.Campaigns) == 0 {
		cfg.Campaigns = DefaultCampaigns()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("commitment", "confirmed")
	v.SetDefault("skip_preflight", false)
	v.SetDefault("staking_vault", "")

	// Keys without a real default are still registered so AutomaticEnv
	// picks them up during Unmarshal.
	v.SetDefault("wallet.key_source", "env")
	v.SetDefault("wallet.private_key", "")
	v.SetDefault("wallet.key_file", "")
	v.SetDefault("wallet.ssm_parameter", "")
	v.SetDefault("prices.api_key", "")
	v.SetDefault("swap.jwt_token", "")
	v.SetDefault("log.output_file", "")

	v.SetDefault("prices.source", "coingecko")
	v.SetDefault("prices.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("prices.currency", "usd")
	v.SetDefault("prices.interval", 60*time.Second)
	v.SetDefault("prices.timeout", 10*time.Second)
	v.SetDefault("prices.max_age", 0)

	v.SetDefault("swap.base_url", "https://1click.chaindefuser.com")
	v.SetDefault("swap.slippage_bps", 100)
	v.SetDefault("swap.deadline", 24*time.Hour)

	v.SetDefault("executor.poll_interval", 2*time.Second)
	v.SetDefault("executor.max_wait", 60*time.Second)

	v.SetDefault("notify.duration", 3*time.Second)
	v.SetDefault("flow.serialize_submissions", true)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "prod")
}

// DefaultAssets returns SOL, USDC and BARK
func DefaultAssets() map[string]AssetConfig {
	return map[string]AssetConfig{
		"SOL":  {Decimals: 9, PriceID: "solana"},
		"USDC": {Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6, PriceID: "usd-coin"},
		"BARK": {Mint: "2NTvEssJ2i998V2cMGT4Fy3JhyFnAzHFonDo9dbAkVrg", Decimals: 9, FixedPrice: 0.0008},
	}
}

// DefaultCampaigns returns the built-in donation campaigns
func DefaultCampaigns() []CampaignConfig {
	return []CampaignConfig{
		{
			ID:          "animal-shelter",
			Name:        "Animal Shelter Support",
			Description: "Help us provide food, medical care, and shelter for rescued animals in need.",
			Address:     DonationWallet,
		},
		{
			ID:          "tree-planting",
			Name:        "Tree Planting Initiative",
			Description: "Support our efforts to combat deforestation and climate change by planting trees worldwide.",
			Address:     DonationWallet,
		},
		{
			ID:          "clean-water",
			Name:        "Clean Water Project",
			Description: "Help provide clean and safe drinking water to communities in developing countries.",
			Address:     DonationWallet,
		},
		{
			ID:          "education",
			Name:        "Education for All",
			Description: "Support programs that provide quality education and learning resources to underprivileged children.",
			Address:     DonationWallet,
		},
	}
}

// Validate checks values that would otherwise fail deep inside a flow
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is required")
	}
	switch c.Prices.Source {
	case "coingecko", "oneclick":
	default:
		return fmt.Errorf("prices.source must be 'coingecko' or 'oneclick', got %q", c.Prices.Source)
	}
	if c.Prices.Interval <= 0 {
		return fmt.Errorf("prices.interval must be positive")
	}
	if c.Executor.PollInterval <= 0 || c.Executor.MaxWait <= 0 {
		return fmt.Errorf("executor.poll_interval and executor.max_wait must be positive")
	}
	for symbol, a := range c.Assets {
		if a.Mint == "" && a.Decimals != 9 {
			return fmt.Errorf("asset %s: native asset must have 9 decimals", symbol)
		}
	}
	return nil
}

// RequireSwapToken returns an error when no 1Click JWT is configured
func (c *Config) RequireSwapToken() error {
	if c.Swap.JWTToken == "" {
		return fmt.Errorf("JWT token not found. Please set BLINKPAY_SWAP_JWT_TOKEN environment variable or swap.jwt_token in .blinkpay.yaml")
	}
	return nil
}

// RequireStakingVault returns an error when no staking vault is configured
func (c *Config) RequireStakingVault() error {
	if strings.TrimSpace(c.StakingVault) == "" {
		return fmt.Errorf("staking vault not configured. Please set BLINKPAY_STAKING_VAULT environment variable or staking_vault in .blinkpay.yaml")
	}
	return nil
}

// Campaign looks up a donation campaign by id
func (c *Config) Campaign(id string) (CampaignConfig, error) {
	for _, campaign := range c.Campaigns {
		if campaign.ID == id {
			return campaign, nil
		}
	}
	return CampaignConfig{}, fmt.Errorf("campaign '%s' not found", id)
}
