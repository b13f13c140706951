package delegation

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
	"github.com/stakingagency/delegation-dashboard/internal/chain"
	"github.com/stakingagency/delegation-dashboard/internal/denominate"
)

// blsKeyLen is the size of a BLS public key
const blsKeyLen = 96

// unbondRoundFactor converts the contract's unbond period into the
// displayed value.
const unbondRoundFactor = 6

func asBigInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

func asInt64(b []byte) int64 {
	n := asBigInt(b)
	if !n.IsInt64() {
		return 0
	}
	return n.Int64()
}

// asBool accepts both the textual and the numeric encodings
func asBool(b []byte) bool {
	switch string(b) {
	case "true":
		return true
	case "false", "":
		return false
	}
	return asBigInt(b).Sign() != 0
}

func entry(data [][]byte, i int) []byte {
	if i < len(data) {
		return data[i]
	}
	return nil
}

func decodeOverview(data [][]byte, denomination, decimals int) (ContractOverview, error) {
	if len(data) < 4 {
		return ContractOverview{}, fmt.Errorf("%s: expected at least 4 values, got %d", FuncGetContractConfig, len(data))
	}

	owner := entry(data, 0)
	initialFunds, err := denominate.Format(asBigInt(entry(data, 3)).String(), denomination, decimals, false, true)
	if err != nil {
		return ContractOverview{}, fmt.Errorf("%s: initial owner funds: %w", FuncGetContractConfig, err)
	}

	fee := new(big.Rat).SetFrac(asBigInt(entry(data, 1)), big.NewInt(100))
	feeFloat, _ := fee.Float64()

	ov := ContractOverview{
		OwnerAddress:         hex.EncodeToString(owner),
		ServiceFee:           strconv.FormatFloat(feeFloat, 'f', -1, 64),
		MaxDelegationCap:     asBigInt(entry(data, 2)).String(),
		InitialOwnerFunds:    initialFunds,
		AutomaticActivation:  string(entry(data, 4)),
		WithDelegationCap:    asBool(entry(data, 5)),
		ChangeableServiceFee: asBool(entry(data, 6)),
		ReDelegationCap:      string(entry(data, 7)),
		CreatedNonce:         asBool(entry(data, 8)),
		UnBondPeriod:         asInt64(entry(data, 9)) * unbondRoundFactor,
	}
	if addr, err := chain.AddressFromBytes(owner); err == nil {
		ov.OwnerBech32 = addr
	}
	return ov, nil
}

func decodeMetadata(data [][]byte) AgencyMetadata {
	if len(data) == 0 {
		return AgencyMetadata{}
	}
	return AgencyMetadata{
		Name:       string(entry(data, 0)),
		Website:    string(entry(data, 1)),
		Identifier: string(entry(data, 2)),
	}
}

// decodeNodeStates walks getAllNodeStates output: a state label followed
// by the keys in that state, repeated. Keys seen before any label are
// reported with an empty label.
func decodeNodeStates(data [][]byte) []BlsKey {
	var (
		keys  []BlsKey
		label string
	)
	for _, d := range data {
		if len(d) != blsKeyLen {
			label = string(d)
			continue
		}
		keys = append(keys, BlsKey{
			Key:    hex.EncodeToString(d),
			Status: apr.ParseBlsKeyStatus(label),
			Label:  label,
		})
	}
	return keys
}
