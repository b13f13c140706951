// Package apr estimates the annual percentage rate earned by the validators
// of a delegation contract from network counters, stake aggregates and
// the static economic constants of the chain.
//
// The estimator is pure: every call is independent, reads only its
// arguments and may run concurrently with other calls.
package apr

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/stakingagency/delegation-dashboard/internal/denominate"
)

const secondsPerYear = 365 * 24 * 3600

// Kind tags an Estimate
type Kind int

const (
	// KindPercentage is a computed rate
	KindPercentage Kind = iota
	// KindUndetermined means the inputs were too degenerate to produce a rate
	KindUndetermined
)

// Estimate is the result of one APR calculation
type Estimate struct {
	Kind    Kind
	Percent float64 // APR × 100, meaningful only for KindPercentage
	Reason  string  // Why the estimate is undetermined
}

// Determined reports whether Percent holds a usable rate
func (e Estimate) Determined() bool {
	return e.Kind == KindPercentage
}

// exactDigits is enough fractional digits to print any float64 exactly
const exactDigits = 1074

// String renders the rate with exactly two decimals. Ties on the exact
// binary value round away from zero (0.125 → "0.13", 1.005 → "1.00").
// Undetermined estimates render as "0.00", the same as a contract without
// active nodes.
func (e Estimate) String() string {
	if !e.Determined() {
		return "0.00"
	}
	if !isFinite(e.Percent) {
		return strconv.FormatFloat(e.Percent, 'f', 2, 64)
	}
	exact, err := decimal.NewFromString(strconv.FormatFloat(e.Percent, 'f', exactDigits, 64))
	if err != nil {
		return strconv.FormatFloat(e.Percent, 'f', 2, 64)
	}
	return exact.StringFixed(2)
}

// Display renders the rate for humans: "12.34%" or "n/a"
func (e Estimate) Display() string {
	if !e.Determined() {
		return "n/a"
	}
	return e.String() + "%"
}

func percentage(p float64) Estimate {
	return Estimate{Kind: KindPercentage, Percent: p}
}

func undetermined(reason string) Estimate {
	return Estimate{Kind: KindUndetermined, Reason: reason}
}

// CountNodes returns the number of staked-or-jailed nodes and the number
// of staked nodes.
func CountNodes(keys []BlsKeyStatus) (all, active int) {
	for _, k := range keys {
		switch k {
		case StatusStaked:
			all++
			active++
		case StatusJailed:
			all++
		}
	}
	return all, active
}

// EpochsPerYear returns how many epochs fit in a 365-day year
func EpochsPerYear(cfg NetworkConfig) float64 {
	epochSeconds := (float64(cfg.RoundDurationMs) / 1000) * float64(cfg.RoundsPerEpoch)
	return secondsPerYear / epochSeconds
}

// TopUpReward applies the arctangent response to the network top-up
// stake. The result tends to +limit as topUpStake/gradientPoint grows and
// to -limit as it falls; gradientPoint sets the steepest point of the curve.
func TopUpReward(limit, topUpStake, gradientPoint float64) float64 {
	return (2 * limit / math.Pi) * math.Atan(topUpStake/gradientPoint)
}

// ComputeAPR returns the APR of the validator set as a percentage string
// with two decimals, e.g. "11.53".
func ComputeAPR(stats EpochStats, cfg NetworkConfig, stake NetworkStake, keys []BlsKeyStatus, active ValidatorActiveStake, econ Economics) string {
	est, _ := Calculate(Inputs{
		Stats:       stats,
		Config:      cfg,
		Stake:       stake,
		BlsKeys:     keys,
		ActiveStake: active,
	}, econ)
	return est.String()
}

// Calculate runs the reward model and returns the estimate together with
// its intermediate values. It never panics: inputs that would divide by
// zero yield an undetermined estimate.
func Calculate(in Inputs, econ Economics) (Estimate, Breakdown) {
	var b Breakdown

	b.AllNodes, b.ActiveNodes = CountNodes(in.BlsKeys)
	if b.ActiveNodes <= 0 {
		return percentage(0), b
	}

	b.EpochDurationSeconds = (float64(in.Config.RoundDurationMs) / 1000) * float64(in.Config.RoundsPerEpoch)
	b.EpochsPerYear = EpochsPerYear(in.Config)
	if !isFinite(b.EpochsPerYear) || b.EpochsPerYear <= 0 {
		return undetermined("epoch duration is zero"), b
	}

	b.YearIndex = int(math.Floor(float64(in.Stats.Epoch)/b.EpochsPerYear)) + 1
	b.InflationRate = econ.Inflation.Rate(b.YearIndex)

	genesisSupply := econ.GenesisTokenSupply.InexactFloat64()
	feesInEpoch := econ.FeesInEpoch.InexactFloat64()
	stakePerNode := econ.StakePerNode.InexactFloat64()

	b.RewardsPerEpoch = math.Max(b.InflationRate*genesisSupply/b.EpochsPerYear, feesInEpoch)
	b.NetRewards = (1 - econ.ProtocolSustainabilityRewards) * b.RewardsPerEpoch
	b.TopUpLimit = in.Config.TopUpFactor * b.NetRewards

	var err error
	if b.NetworkTotalStake, err = magnitude(in.Stake.TotalStaked, econ); err != nil {
		return undetermined("network total stake: " + err.Error()), b
	}
	if b.GradientPoint, err = magnitude(in.Config.TopUpRewardsGradientPoint, econ); err != nil {
		return undetermined("top-up gradient point: " + err.Error()), b
	}

	b.NetworkBaseStake = float64(in.Stake.ActiveValidators) * stakePerNode
	b.NetworkTopUpStake = b.NetworkTotalStake -
		float64(in.Stake.TotalValidators)*stakePerNode -
		float64(in.Stake.QueueSize)*stakePerNode
	b.TopUpReward = TopUpReward(b.TopUpLimit, b.NetworkTopUpStake, b.GradientPoint)
	b.BaseReward = b.NetRewards - b.TopUpReward

	b.ValidatorBaseStake = float64(b.ActiveNodes) * stakePerNode
	if b.ValidatorTotalStake, err = magnitude(in.ActiveStake.Amount, econ); err != nil {
		return undetermined("validator active stake: " + err.Error()), b
	}

	// ActiveNodes > 0 here, hence AllNodes > 0
	switch {
	case b.NetworkBaseStake == 0:
		return undetermined("network base stake is zero"), b
	case b.ValidatorTotalStake <= 0:
		return undetermined("validator active stake is zero"), b
	}

	b.ValidatorTopUpStake = ((b.ValidatorTotalStake - float64(b.AllNodes)*stakePerNode) / float64(b.AllNodes)) * float64(b.ActiveNodes)
	if b.NetworkTopUpStake > 0 {
		b.ValidatorTopUpReward = (b.ValidatorTopUpStake / b.NetworkTopUpStake) * b.TopUpReward
	}
	b.ValidatorBaseReward = (b.ValidatorBaseStake / b.NetworkBaseStake) * b.BaseReward

	annual := b.EpochsPerYear * (b.ValidatorTopUpReward + b.ValidatorBaseReward) / b.ValidatorTotalStake
	p := annual * 100
	if !isFinite(p) {
		return undetermined("non-finite result"), b
	}
	return percentage(p), b
}

// magnitude downgrades a raw on-chain amount to a whole-token float64
func magnitude(raw decimal.Decimal, econ Economics) (float64, error) {
	m, err := denominate.Magnitude(raw.String(), econ.Denomination, econ.Decimals)
	if err != nil {
		return 0, err
	}
	return m.InexactFloat64(), nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type estimateView struct {
	Value      string `json:"value" yaml:"value"`
	Display    string `json:"display" yaml:"display"`
	Determined bool   `json:"determined" yaml:"determined"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func (e Estimate) view() estimateView {
	return estimateView{Value: e.String(), Display: e.Display(), Determined: e.Determined(), Reason: e.Reason}
}

// MarshalJSON renders the estimate as its formatted value
func (e Estimate) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.view())
}

// MarshalYAML renders the estimate as its formatted value
func (e Estimate) MarshalYAML() (interface{}, error) {
	return e.view(), nil
}
