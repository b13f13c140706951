package delegation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
)

// Contract view functions
const (
	FuncGetMetaData         = "getMetaData"
	FuncGetNumUsers         = "getNumUsers"
	FuncGetContractConfig   = "getContractConfig"
	FuncGetTotalActiveStake = "getTotalActiveStake"
	FuncGetAllNodeStates    = "getAllNodeStates"
)

// ContractOverview is the decoded getContractConfig result. OwnerAddress
// is hex, ServiceFee a percentage and InitialOwnerFunds denominated.
type ContractOverview struct {
	OwnerAddress         string `json:"owner_address" yaml:"owner_address"`
	OwnerBech32          string `json:"owner_bech32,omitempty" yaml:"owner_bech32,omitempty"`
	ServiceFee           string `json:"service_fee" yaml:"service_fee"`
	MaxDelegationCap     string `json:"max_delegation_cap" yaml:"max_delegation_cap"`
	InitialOwnerFunds    string `json:"initial_owner_funds" yaml:"initial_owner_funds"`
	AutomaticActivation  string `json:"automatic_activation" yaml:"automatic_activation"`
	WithDelegationCap    bool   `json:"with_delegation_cap" yaml:"with_delegation_cap"`
	ChangeableServiceFee bool   `json:"changeable_service_fee" yaml:"changeable_service_fee"`
	ReDelegationCap      string `json:"redelegation_cap" yaml:"redelegation_cap"`
	CreatedNonce         bool   `json:"created_nonce" yaml:"created_nonce"`
	UnBondPeriod         int64  `json:"unbond_period" yaml:"unbond_period"`
}

// AgencyMetadata is the staking provider's self-declared identity
type AgencyMetadata struct {
	Name       string `json:"name" yaml:"name"`
	Website    string `json:"website" yaml:"website"`
	Identifier string `json:"identifier" yaml:"identifier"`
}

// IsEmpty reports whether the provider never set its metadata
func (m AgencyMetadata) IsEmpty() bool {
	return m.Name == "" && m.Website == "" && m.Identifier == ""
}

// BlsKey is a node key managed by the contract together with its state.
// Key is hex; Label is the raw state label returned by the contract.
type BlsKey struct {
	Key    string           `json:"key" yaml:"key"`
	Status apr.BlsKeyStatus `json:"status" yaml:"status"`
	Label  string           `json:"label" yaml:"label"`
}

// Snapshot is one consistent read of the contract and the network
type Snapshot struct {
	Contract                string            `json:"contract" yaml:"contract"`
	Overview                ContractOverview  `json:"overview" yaml:"overview"`
	Metadata                AgencyMetadata    `json:"metadata" yaml:"metadata"`
	NumUsers                int64             `json:"num_users" yaml:"num_users"`
	TotalActiveStake        decimal.Decimal   `json:"total_active_stake" yaml:"total_active_stake"`
	TotalActiveStakeDisplay string            `json:"total_active_stake_display" yaml:"total_active_stake_display"`
	NumberOfActiveNodes     int               `json:"number_of_active_nodes" yaml:"number_of_active_nodes"`
	BlsKeys                 []BlsKey          `json:"bls_keys" yaml:"bls_keys"`
	Epoch                   int64             `json:"epoch" yaml:"epoch"`
	ChainID                 string            `json:"chain_id" yaml:"chain_id"`
	NetworkConfig           apr.NetworkConfig `json:"network_config" yaml:"network_config"`
	NetworkStake            apr.NetworkStake  `json:"network_stake" yaml:"network_stake"`
	APR                     apr.Estimate      `json:"apr" yaml:"apr"`
	Breakdown               apr.Breakdown     `json:"breakdown" yaml:"breakdown"`
	FetchedAt               time.Time         `json:"fetched_at" yaml:"fetched_at"`
}

// KeyStatuses returns the state of every BLS key, in contract order
func (s Snapshot) KeyStatuses() []apr.BlsKeyStatus {
	out := make([]apr.BlsKeyStatus, len(s.BlsKeys))
	for i, k := range s.BlsKeys {
		out[i] = k.Status
	}
	return out
}

// EpochProgress returns how far the current epoch has advanced, in [0,1]
func (s Snapshot) EpochProgress() float64 {
	if s.NetworkConfig.RoundsPerEpoch <= 0 {
		return 0
	}
	p := float64(s.NetworkConfig.RoundsPassedInEpoch) / float64(s.NetworkConfig.RoundsPerEpoch)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
