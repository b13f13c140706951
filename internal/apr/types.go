package apr

import (
	"strings"

	"github.com/shopspring/decimal"
)

// EpochStats carries the current epoch index
type EpochStats struct {
	Epoch int64
}

// NetworkConfig holds chain-wide round/epoch constants
type NetworkConfig struct {
	TopUpFactor               float64         `json:"top_up_factor" yaml:"top_up_factor"`
	RoundDurationMs           int64           `json:"round_duration_ms" yaml:"round_duration_ms"`
	RoundsPerEpoch            int64           `json:"rounds_per_epoch" yaml:"rounds_per_epoch"`
	RoundsPassedInEpoch       int64           `json:"rounds_passed_in_epoch" yaml:"rounds_passed_in_epoch"`
	TopUpRewardsGradientPoint decimal.Decimal `json:"top_up_rewards_gradient_point" yaml:"top_up_rewards_gradient_point"` // Raw on-chain magnitude
}

// NetworkStake holds network-wide stake aggregates
type NetworkStake struct {
	TotalValidators  int64           `json:"total_validators" yaml:"total_validators"`
	ActiveValidators int64           `json:"active_validators" yaml:"active_validators"`
	QueueSize        int64           `json:"queue_size" yaml:"queue_size"`
	TotalStaked      decimal.Decimal `json:"total_staked" yaml:"total_staked"` // Raw on-chain magnitude
}

// ValidatorActiveStake is the active stake of the queried validator set
type ValidatorActiveStake struct {
	Amount decimal.Decimal // Raw on-chain magnitude
}

// BlsKeyStatus is the registration state of one validator node
type BlsKeyStatus string

const (
	StatusStaked BlsKeyStatus = "staked"
	StatusJailed BlsKeyStatus = "jailed"
	StatusOther  BlsKeyStatus = "other"
)

// ParseBlsKeyStatus maps a contract status label to a BlsKeyStatus.
// Anything that is not staked or jailed collapses to StatusOther.
func ParseBlsKeyStatus(label string) BlsKeyStatus {
	switch strings.TrimSpace(label) {
	case string(StatusStaked):
		return StatusStaked
	case string(StatusJailed):
		return StatusJailed
	default:
		return StatusOther
	}
}

// Economics holds the static economic constants of the network.
// Token amounts are already denominated (whole tokens, not raw units).
type Economics struct {
	GenesisTokenSupply            decimal.Decimal
	FeesInEpoch                   decimal.Decimal
	ProtocolSustainabilityRewards float64 // Fraction in [0,1]
	StakePerNode                  decimal.Decimal
	Inflation                     InflationSchedule

	// Token precision used to scale raw on-chain magnitudes
	Denomination int
	Decimals     int
}

// Inputs is the per-call snapshot consumed by Calculate
type Inputs struct {
	Stats       EpochStats
	Config      NetworkConfig
	Stake       NetworkStake
	BlsKeys     []BlsKeyStatus
	ActiveStake ValidatorActiveStake
}

// Breakdown exposes every intermediate value of one calculation
type Breakdown struct {
	AllNodes    int `json:"all_nodes" yaml:"all_nodes"`
	ActiveNodes int `json:"active_nodes" yaml:"active_nodes"`

	EpochDurationSeconds float64 `json:"epoch_duration_seconds" yaml:"epoch_duration_seconds"`
	EpochsPerYear        float64 `json:"epochs_per_year" yaml:"epochs_per_year"`
	YearIndex            int     `json:"year_index" yaml:"year_index"`
	InflationRate        float64 `json:"inflation_rate" yaml:"inflation_rate"`

	RewardsPerEpoch float64 `json:"rewards_per_epoch" yaml:"rewards_per_epoch"`
	NetRewards      float64 `json:"net_rewards" yaml:"net_rewards"`
	TopUpLimit      float64 `json:"top_up_limit" yaml:"top_up_limit"`

	NetworkBaseStake  float64 `json:"network_base_stake" yaml:"network_base_stake"`
	NetworkTotalStake float64 `json:"network_total_stake" yaml:"network_total_stake"`
	NetworkTopUpStake float64 `json:"network_top_up_stake" yaml:"network_top_up_stake"`
	GradientPoint     float64 `json:"gradient_point" yaml:"gradient_point"`
	TopUpReward       float64 `json:"top_up_reward" yaml:"top_up_reward"`
	BaseReward        float64 `json:"base_reward" yaml:"base_reward"`

	ValidatorBaseStake   float64 `json:"validator_base_stake" yaml:"validator_base_stake"`
	ValidatorTotalStake  float64 `json:"validator_total_stake" yaml:"validator_total_stake"`
	ValidatorTopUpStake  float64 `json:"validator_top_up_stake" yaml:"validator_top_up_stake"`
	ValidatorTopUpReward float64 `json:"validator_top_up_reward" yaml:"validator_top_up_reward"`
	ValidatorBaseReward  float64 `json:"validator_base_reward" yaml:"validator_base_reward"`
}
