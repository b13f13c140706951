package chain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressHRP is the human-readable prefix of account addresses
const AddressHRP = "erd"

const addressLen = 32

// AddressToHex converts a bech32 erd1... address to its 32-byte public key in hex
func AddressToHex(addr string) (string, error) {
	b, err := AddressBytes(addr)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// AddressBytes decodes a bech32 address into its raw public key
func AddressBytes(addr string) ([]byte, error) {
	hrp, data, err := bech32.Decode(strings.TrimSpace(addr))
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if hrp != AddressHRP {
		return nil, fmt.Errorf("invalid address %q: prefix %q, want %q", addr, hrp, AddressHRP)
	}
	// Convert 5-bit groups to 8-bit bytes
	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if len(converted) != addressLen {
		return nil, fmt.Errorf("invalid address %q: %d bytes, want %d", addr, len(converted), addressLen)
	}
	return converted, nil
}

// AddressFromBytes encodes a 32-byte public key as an erd1... address
func AddressFromBytes(pub []byte) (string, error) {
	if len(pub) != addressLen {
		return "", fmt.Errorf("address must be %d bytes, got %d", addressLen, len(pub))
	}
	data, err := bech32.ConvertBits(pub, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(AddressHRP, data)
}

// IsSmartContract reports whether the public key belongs to a contract
// account. Contract addresses start with eight zero bytes.
func IsSmartContract(pub []byte) bool {
	if len(pub) < 8 {
		return false
	}
	for _, b := range pub[:8] {
		if b != 0 {
			return false
		}
	}
	return true
}
