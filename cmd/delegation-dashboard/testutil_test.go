package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
	"github.com/stakingagency/delegation-dashboard/internal/config"
	"github.com/stakingagency/delegation-dashboard/internal/delegation"
	"github.com/stakingagency/delegation-dashboard/internal/ui"
)

const testContract = "erd1qqqqqqqqqqqqqpgq82wd6m6w94fmk0n6rfaxmrs6rdwj4cal3ttlzzwx9sg"

// errMock is a generic error for test assertions.
var errMock = errors.New("mock error")

// mockService implements webserver.SnapshotService for testing.
type mockService struct {
	snap delegation.Snapshot
	err  error
}

func (m *mockService) Snapshot(ctx context.Context) (delegation.Snapshot, error) {
	if m.err != nil {
		return delegation.Snapshot{}, m.err
	}
	return m.snap, nil
}

func (m *mockService) Refresh(ctx context.Context) (delegation.Snapshot, error) {
	return m.Snapshot(ctx)
}

func (m *mockService) Cached() (delegation.Snapshot, bool) {
	return m.snap, m.err == nil
}

func (m *mockService) Contract() string { return testContract }

func testCfg() config.Config {
	cfg := config.Defaults()
	cfg.DelegationContract = testContract
	return cfg
}

func testSnapshot() delegation.Snapshot {
	return delegation.Snapshot{
		Contract: testContract,
		Overview: delegation.ContractOverview{
			OwnerBech32:          "erd1qyu5wthldzr8wx5c9ucg8kjagg0jfs53s8nr3zpz3hypefsdd8ssycr6th",
			ServiceFee:           "12.5",
			InitialOwnerFunds:    "1,250.0000",
			AutomaticActivation:  "true",
			ChangeableServiceFee: true,
			ReDelegationCap:      "false",
			UnBondPeriod:         60,
		},
		Metadata:                delegation.AgencyMetadata{Name: "Staking Agency", Website: "https://staking.agency", Identifier: "stakingagency"},
		NumUsers:                1234,
		TotalActiveStake:        decimal.RequireFromString("10000000000000000000000"),
		TotalActiveStakeDisplay: "10,000.0000",
		NumberOfActiveNodes:     2,
		BlsKeys: []delegation.BlsKey{
			{Key: strings.Repeat("a1", 96), Status: apr.StatusStaked, Label: "staked"},
			{Key: strings.Repeat("a2", 96), Status: apr.StatusStaked, Label: "staked"},
			{Key: strings.Repeat("b1", 96), Status: apr.StatusJailed, Label: "jailed"},
		},
		Epoch:   512,
		ChainID: "1",
		NetworkConfig: apr.NetworkConfig{
			RoundDurationMs:     6000,
			RoundsPerEpoch:      14400,
			RoundsPassedInEpoch: 3600,
		},
		NetworkStake: apr.NetworkStake{
			TotalValidators:  3200,
			ActiveValidators: 3200,
			QueueSize:        12,
			TotalStaked:      decimal.RequireFromString("12000000000000000000000000"),
		},
		APR:       apr.Estimate{Kind: apr.KindPercentage, Percent: 11.53},
		Breakdown: apr.Breakdown{AllNodes: 3, ActiveNodes: 2, EpochDurationSeconds: 86400, EpochsPerYear: 365, YearIndex: 2, InflationRate: 0.0970},
		FetchedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

// newTestDeps returns deps printing uncolored output into buf
func newTestDeps(svc *mockService, format string) (*Deps, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	p := ui.NewPrinterTo(buf, format)
	p.Colors.Enabled = false
	p.Colors.EmojiEnabled = false
	return &Deps{Cfg: testCfg(), Service: svc, Printer: p}, buf
}
