package chain

import (
	"encoding/hex"
	"testing"
)

const (
	aliceAddr    = "erd1qyu5wthldzr8wx5c9ucg8kjagg0jfs53s8nr3zpz3hypefsdd8ssycr6th"
	aliceHex     = "0139472eff6886771a982f3083da5d421f24c29181e63888228dc81ca60d69e1"
	contractAddr = "erd1qqqqqqqqqqqqqpgq82wd6m6w94fmk0n6rfaxmrs6rdwj4cal3ttlzzwx9sg"
	contractHex  = "000000000000000005003a9cdd6f4e2d53bb3e7a1a7a6d8e1a1b5d2ae3bf8ad7f1"
)

func TestAddressToHex(t *testing.T) {
	tests := []struct {
		addr    string
		want    string
		wantErr bool
	}{
		{addr: aliceAddr, want: aliceHex},
		{addr: contractAddr, want: contractHex},
		{addr: "", wantErr: true},
		{addr: "erd1notanaddress", wantErr: true},
		{addr: aliceAddr[:len(aliceAddr)-1] + "q", wantErr: true}, // bad checksum
	}

	for _, tt := range tests {
		got, err := AddressToHex(tt.addr)
		if tt.wantErr {
			if err == nil {
				t.Errorf("AddressToHex(%q) expected error", tt.addr)
			}
			continue
		}
		if err != nil {
			t.Errorf("AddressToHex(%q) error: %v", tt.addr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("AddressToHex(%q) = %s, want %s", tt.addr, got, tt.want)
		}
	}
}

func TestAddressFromBytes(t *testing.T) {
	pub, _ := hex.DecodeString(aliceHex)
	got, err := AddressFromBytes(pub)
	if err != nil {
		t.Fatalf("AddressFromBytes() error: %v", err)
	}
	if got != aliceAddr {
		t.Errorf("AddressFromBytes() = %s, want %s", got, aliceAddr)
	}

	if _, err := AddressFromBytes(pub[:31]); err == nil {
		t.Error("expected error for short key")
	}
}

func TestIsSmartContract(t *testing.T) {
	sc, _ := hex.DecodeString(contractHex)
	user, _ := hex.DecodeString(aliceHex)
	if !IsSmartContract(sc) {
		t.Error("contract address not detected")
	}
	if IsSmartContract(user) {
		t.Error("user address detected as contract")
	}
	if IsSmartContract(nil) {
		t.Error("nil detected as contract")
	}
}
