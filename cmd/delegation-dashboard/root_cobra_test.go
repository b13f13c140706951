package main

import (
	"bytes"
	"testing"

	"github.com/stakingagency/delegation-dashboard/internal/config"
	"github.com/stakingagency/delegation-dashboard/internal/exitcodes"
)

// resetFlags restores the persistent flag globals after a test
func resetFlags(t *testing.T) {
	t.Helper()
	network, api, proxy, contract, cfgPath, output := flagNetwork, flagAPI, flagProxy, flagContract, flagConfig, flagOutput
	t.Cleanup(func() {
		flagNetwork, flagAPI, flagProxy, flagContract, flagConfig, flagOutput = network, api, proxy, contract, cfgPath, output
	})
}

func TestRootCommandsRegistered(t *testing.T) {
	want := []string{"dashboard", "apr", "overview", "serve", "version", "completion"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == nil || cmd.Name() != name {
			t.Errorf("command %q not registered (err=%v)", name, err)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "network", "api", "proxy", "contract", "output", "log-file", "quiet", "debug", "no-color", "no-emoji"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
	if f := rootCmd.PersistentFlags().ShorthandLookup("o"); f == nil || f.Name != "output" {
		t.Error("-o should be the shorthand of --output")
	}
}

func TestExplainFlag(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"apr"})
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Flags().Lookup("explain") == nil {
		t.Error("apr should accept --explain")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	tests := []struct {
		name      string
		network   string
		api       string
		contract  string
		wantNet   string
		wantAPI   string
		wantProxy string
		wantErr   bool
	}{
		{"no flags", "", "", "", "mainnet", "https://api.elrond.com", "https://gateway.elrond.com", false},
		{"network preset", "devnet", "", "", "devnet", "https://devnet-api.elrond.com", "https://devnet-gateway.elrond.com", false},
		{"api wins over preset", "testnet", "http://localhost:3001", "", "testnet", "http://localhost:3001", "https://testnet-gateway.elrond.com", false},
		{"unknown network", "moonnet", "", "", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			flagNetwork, flagAPI, flagProxy, flagContract = tt.network, tt.api, "", tt.contract

			cfg := config.Defaults()
			err := applyFlagOverrides(&cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Network != tt.wantNet || cfg.APIURL != tt.wantAPI || cfg.ProxyURL != tt.wantProxy {
				t.Errorf("got %s %s %s", cfg.Network, cfg.APIURL, cfg.ProxyURL)
			}
		})
	}
}

func TestLoadCfg(t *testing.T) {
	t.Setenv("DASHBOARD_NETWORK", "")
	t.Setenv("DASHBOARD_API_URL", "")
	t.Setenv("DASHBOARD_PROXY_URL", "")
	t.Setenv("DASHBOARD_CONTRACT", "")

	tests := []struct {
		name     string
		network  string
		contract string
		wantCode int
	}{
		{"valid", "", testContract, exitcodes.Success},
		{"missing contract", "", "", exitcodes.ValidationError},
		{"malformed contract", "", "erd1notanaddress", exitcodes.ValidationError},
		{"unknown network", "moonnet", testContract, exitcodes.InvalidArgs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			flagConfig, flagNetwork, flagAPI, flagProxy, flagContract = "", tt.network, "", "", tt.contract

			cfg, err := loadCfg()
			if got := exitcodes.CodeForError(err); got != tt.wantCode {
				t.Fatalf("exit code = %d (%v), want %d", got, err, tt.wantCode)
			}
			if err == nil && cfg.DelegationContract != testContract {
				t.Errorf("contract = %q", cfg.DelegationContract)
			}
		})
	}
}

func TestPersistentPreRunRejectsFormat(t *testing.T) {
	resetFlags(t)
	flagOutput = "xml"

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	if exitcodes.CodeForError(err) != exitcodes.InvalidArgs {
		t.Errorf("err = %v, want invalid args", err)
	}
}

func TestRootHelp(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)

	printRootHelp(rootCmd)
	out := buf.String()
	for _, want := range []string{"Delegation Dashboard", "USAGE", "apr [--explain]", "serve", "--contract"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("help missing %q", want)
		}
	}
}
