package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
	"github.com/stakingagency/delegation-dashboard/internal/chain"
)

// Config holds the network endpoints, the delegation contract and the
// economic constants used by the APR estimator.
type Config struct {
	Network            string          `yaml:"network"`
	APIURL             string          `yaml:"api_url"`
	ProxyURL           string          `yaml:"proxy_url"`
	DelegationContract string          `yaml:"delegation_contract"`
	Denomination       int             `yaml:"denomination"`
	Decimals           int             `yaml:"decimals"`
	RequestTimeout     time.Duration   `yaml:"request_timeout"`
	CacheTTL           time.Duration   `yaml:"cache_ttl"`
	Economics          EconomicsConfig `yaml:"economics"`
	Server             ServerConfig    `yaml:"server"`
}

// EconomicsConfig carries the chain constants as text so large supplies
// survive YAML without float rounding.
type EconomicsConfig struct {
	YearSettings                  []apr.YearSetting `yaml:"year_settings"`
	GenesisTokenSupply            string            `yaml:"genesis_token_supply"`
	FeesInEpoch                   string            `yaml:"fees_in_epoch"`
	StakePerNode                  string            `yaml:"stake_per_node"`
	ProtocolSustainabilityRewards float64           `yaml:"protocol_sustainability_rewards"`
}

// ServerConfig configures the browser dashboard
type ServerConfig struct {
	Listen         string   `yaml:"listen"`
	RefreshCron    string   `yaml:"refresh_cron"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type networkPreset struct {
	api   string
	proxy string
}

var presets = map[string]networkPreset{
	"mainnet": {api: "https://api.elrond.com", proxy: "https://gateway.elrond.com"},
	"testnet": {api: "https://testnet-api.elrond.com", proxy: "https://testnet-gateway.elrond.com"},
	"devnet":  {api: "https://devnet-api.elrond.com", proxy: "https://devnet-gateway.elrond.com"},
}

// Networks lists the preset names accepted by ForNetwork
func Networks() []string {
	return []string{"mainnet", "testnet", "devnet"}
}

func defaultYearSettings() []apr.YearSetting {
	rates := []float64{
		0.1084513, 0.09703538, 0.08561945, 0.07420352, 0.0627876, 0.05137167,
		0.03995574, 0.02853982, 0.01712389, 0.00570796, 0.0,
	}
	out := make([]apr.YearSetting, len(rates))
	for i, r := range rates {
		out[i] = apr.YearSetting{Year: i + 1, MaximumInflation: r}
	}
	return out
}

// Defaults returns the mainnet configuration.
func Defaults() Config {
	p := presets["mainnet"]
	return Config{
		Network:        "mainnet",
		APIURL:         p.api,
		ProxyURL:       p.proxy,
		Denomination:   18,
		Decimals:       4,
		RequestTimeout: 10 * time.Second,
		CacheTTL:       30 * time.Second,
		Economics: EconomicsConfig{
			YearSettings:                  defaultYearSettings(),
			GenesisTokenSupply:            "20000000",
			FeesInEpoch:                   "0",
			StakePerNode:                  "2500",
			ProtocolSustainabilityRewards: 0.1,
		},
		Server: ServerConfig{
			Listen:      "127.0.0.1:8080",
			RefreshCron: "@every 30s",
		},
	}
}

// ForNetwork returns Defaults with the endpoints of the named network
func ForNetwork(name string) (Config, error) {
	cfg := Defaults()
	if err := cfg.applyNetwork(name); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyNetwork(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown network %q (expected one of %s)", name, strings.Join(Networks(), ", "))
	}
	c.Network = name
	c.APIURL = p.api
	c.ProxyURL = p.proxy
	return nil
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file at path, a .env file in the working directory, and
// DASHBOARD_* environment variables. A missing file is not an error.
func Load(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			var file Config
			if err := yaml.Unmarshal(data, &file); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
			if file.Network != "" {
				if err := cfg.applyNetwork(file.Network); err != nil {
					return Config{}, err
				}
			}
			cfg.merge(file)
		}
	}

	if v := os.Getenv("DASHBOARD_NETWORK"); v != "" {
		if err := cfg.applyNetwork(v); err != nil {
			return Config{}, err
		}
	}
	if v := os.Getenv("DASHBOARD_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("DASHBOARD_PROXY_URL"); v != "" {
		cfg.ProxyURL = v
	}
	if v := os.Getenv("DASHBOARD_CONTRACT"); v != "" {
		cfg.DelegationContract = v
	}
	if v := os.Getenv("DASHBOARD_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}

	return cfg, nil
}

// merge copies every field set in f over c
func (c *Config) merge(f Config) {
	if f.APIURL != "" {
		c.APIURL = f.APIURL
	}
	if f.ProxyURL != "" {
		c.ProxyURL = f.ProxyURL
	}
	if f.DelegationContract != "" {
		c.DelegationContract = f.DelegationContract
	}
	if f.Denomination != 0 {
		c.Denomination = f.Denomination
	}
	if f.Decimals != 0 {
		c.Decimals = f.Decimals
	}
	if f.RequestTimeout != 0 {
		c.RequestTimeout = f.RequestTimeout
	}
	if f.CacheTTL != 0 {
		c.CacheTTL = f.CacheTTL
	}

	e := f.Economics
	if len(e.YearSettings) > 0 {
		c.Economics.YearSettings = e.YearSettings
	}
	if e.GenesisTokenSupply != "" {
		c.Economics.GenesisTokenSupply = e.GenesisTokenSupply
	}
	if e.FeesInEpoch != "" {
		c.Economics.FeesInEpoch = e.FeesInEpoch
	}
	if e.StakePerNode != "" {
		c.Economics.StakePerNode = e.StakePerNode
	}
	if e.ProtocolSustainabilityRewards != 0 {
		c.Economics.ProtocolSustainabilityRewards = e.ProtocolSustainabilityRewards
	}

	if f.Server.Listen != "" {
		c.Server.Listen = f.Server.Listen
	}
	if f.Server.RefreshCron != "" {
		c.Server.RefreshCron = f.Server.RefreshCron
	}
	if len(f.Server.AllowedOrigins) > 0 {
		c.Server.AllowedOrigins = f.Server.AllowedOrigins
	}
}

// Validate checks that the configuration can drive a dashboard.
func (c Config) Validate() error {
	if err := validateURL("api_url", c.APIURL); err != nil {
		return err
	}
	if err := validateURL("proxy_url", c.ProxyURL); err != nil {
		return err
	}
	if c.DelegationContract == "" {
		return fmt.Errorf("delegation_contract is required")
	}
	if _, err := chain.AddressToHex(c.DelegationContract); err != nil {
		return fmt.Errorf("delegation_contract: %w", err)
	}
	if c.Denomination < 0 || c.Decimals < 0 {
		return fmt.Errorf("denomination and decimals must not be negative")
	}
	if c.Decimals > c.Denomination {
		return fmt.Errorf("decimals (%d) must not exceed denomination (%d)", c.Decimals, c.Denomination)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	psr := c.Economics.ProtocolSustainabilityRewards
	if psr < 0 || psr > 1 {
		return fmt.Errorf("economics.protocol_sustainability_rewards must be within [0,1], got %v", psr)
	}
	if _, err := c.EconomicsModel(); err != nil {
		return err
	}
	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: invalid URL %q", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: unsupported scheme %q", field, u.Scheme)
	}
	return nil
}

// EconomicsModel converts the textual constants into the estimator's types.
func (c Config) EconomicsModel() (apr.Economics, error) {
	e := c.Economics
	sched, err := apr.NewInflationSchedule(e.YearSettings)
	if err != nil {
		return apr.Economics{}, fmt.Errorf("economics.year_settings: %w", err)
	}
	genesis, err := parseAmount("genesis_token_supply", e.GenesisTokenSupply)
	if err != nil {
		return apr.Economics{}, err
	}
	fees, err := parseAmount("fees_in_epoch", e.FeesInEpoch)
	if err != nil {
		return apr.Economics{}, err
	}
	stakePerNode, err := parseAmount("stake_per_node", e.StakePerNode)
	if err != nil {
		return apr.Economics{}, err
	}
	return apr.Economics{
		GenesisTokenSupply:            genesis,
		FeesInEpoch:                   fees,
		ProtocolSustainabilityRewards: e.ProtocolSustainabilityRewards,
		StakePerNode:                  stakePerNode,
		Inflation:                     sched,
		Denomination:                  c.Denomination,
		Decimals:                      c.Decimals,
	}, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("economics.%s: %w", field, err)
	}
	if d.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("economics.%s must not be negative", field)
	}
	return d, nil
}
