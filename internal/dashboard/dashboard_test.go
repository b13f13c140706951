package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
	"github.com/stakingagency/delegation-dashboard/internal/delegation"
)

const testContract = "erd1qqqqqqqqqqqqqpgq82wd6m6w94fmk0n6rfaxmrs6rdwj4cal3ttlzzwx9sg"

type fakeSource struct {
	snap  delegation.Snapshot
	err   error
	calls int
}

func (f *fakeSource) Snapshot(ctx context.Context) (delegation.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

func sampleSnapshot() delegation.Snapshot {
	return delegation.Snapshot{
		Contract: testContract,
		Overview: delegation.ContractOverview{
			OwnerBech32:         "erd1qyu5wthldzr8wx5c9ucg8kjagg0jfs53s8nr3zpz3hypefsdd8ssycr6th",
			ServiceFee:          "12.5",
			MaxDelegationCap:    "0",
			InitialOwnerFunds:   "1,250.0000",
			AutomaticActivation: "true",
			ReDelegationCap:     "false",
			UnBondPeriod:        60,
		},
		Metadata:                delegation.AgencyMetadata{Name: "Staking Agency", Website: "https://staking.agency"},
		NumUsers:                1234,
		TotalActiveStakeDisplay: "10,000.0000",
		NumberOfActiveNodes:     2,
		BlsKeys: []delegation.BlsKey{
			{Key: strings.Repeat("aa", 96), Status: apr.StatusStaked, Label: "staked"},
			{Key: strings.Repeat("bb", 96), Status: apr.StatusStaked, Label: "staked"},
			{Key: strings.Repeat("cc", 96), Status: apr.StatusJailed, Label: "jailed"},
		},
		Epoch:   512,
		ChainID: "1",
		NetworkConfig: apr.NetworkConfig{
			TopUpFactor:         0.5,
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
		APR: apr.Estimate{Kind: apr.KindPercentage, Percent: 11.53},
		Breakdown: apr.Breakdown{
			EpochsPerYear:       365,
			YearIndex:           3,
			InflationRate:       0.0842,
			NetworkTotalStake:   12000000,
			ValidatorTotalStake: 12000,
		},
		FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleData() DashboardData {
	return DashboardData{
		Snapshot:     sampleSnapshot(),
		HasSnapshot:  true,
		Network:      "mainnet",
		Contract:     testContract,
		Denomination: 18,
		Decimals:     4,
		CLIVersion:   "1.2.0",
		LastUpdate:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTickCmd(t *testing.T) {
	cmd := tickCmd(10 * time.Millisecond)
	if cmd == nil {
		t.Fatal("tickCmd returned nil")
	}
	if _, ok := cmd().(tickMsg); !ok {
		t.Error("expected tickMsg")
	}
}

func TestGetCommandHelpText(t *testing.T) {
	helpText := getCommandHelpText()
	for _, want := range []string{
		"Delegation Dashboard",
		"USAGE",
		"Dashboard keys",
		"delegation-dashboard apr --explain",
		"delegation-dashboard serve",
	} {
		if !strings.Contains(helpText, want) {
			t.Errorf("help text missing %q", want)
		}
	}
}

func TestKeyMapHelp(t *testing.T) {
	km := newKeyMap()
	if got := len(km.ShortHelp()); got != 3 {
		t.Errorf("ShortHelp has %d bindings, want 3", got)
	}
	full := km.FullHelp()
	if len(full) != 2 || len(full[1]) != 2 {
		t.Errorf("FullHelp layout = %v", full)
	}
}

func TestNewWithDefaults(t *testing.T) {
	m := New(Options{})
	if m.opts.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v, want 30s", m.opts.RefreshInterval)
	}
	if m.opts.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", m.opts.FetchTimeout)
	}
	if !m.loading {
		t.Error("dashboard should start in loading state")
	}
	for _, id := range []string{"header", "contract_overview", "delegation_stats", "network_status", "bls_keys"} {
		if m.registry.Get(id) == nil {
			t.Errorf("component %q not registered", id)
		}
	}
}

func TestDashboardInit(t *testing.T) {
	m := New(Options{Source: &fakeSource{snap: sampleSnapshot()}})
	if m.Init() == nil {
		t.Error("Init should return a batch command")
	}
}

func TestDashboardViewZeroDimensions(t *testing.T) {
	m := New(Options{})
	if got := m.View(); got != "" {
		t.Errorf("View before WindowSizeMsg = %q, want empty", got)
	}
}

func TestDashboardViewLoading(t *testing.T) {
	m := New(Options{Network: "testnet"})
	m.width, m.height = 100, 40
	if got := m.View(); !strings.Contains(got, "CONNECTING TO TESTNET") {
		t.Errorf("loading view = %q", got)
	}
}

func TestHandleKey(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want tea.Msg
	}{
		{"refresh", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}, forceRefreshMsg{}},
		{"help", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}}, toggleHelpMsg{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(Options{})
			_, cmd := m.handleKey(tt.key)
			if cmd == nil {
				t.Fatal("expected a command")
			}
			if got := cmd(); got != tt.want {
				t.Errorf("cmd() = %T, want %T", got, tt.want)
			}
		})
	}
}

func TestHandleKeyQuitCancelsFetch(t *testing.T) {
	m := New(Options{})
	cancelled := false
	m.fetchCancel = func() { cancelled = true }

	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !cancelled {
		t.Error("in-flight fetch should be cancelled on quit")
	}
}

func TestHandleKeyWhileHelpShowing(t *testing.T) {
	m := New(Options{})
	m.showHelp = true

	if _, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}); cmd != nil {
		t.Error("keys other than close should be ignored while help is open")
	}
	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should close help")
	}
	if _, ok := cmd().(toggleHelpMsg); !ok {
		t.Error("expected toggleHelpMsg")
	}
}

func TestDashboardUpdateDataMsg(t *testing.T) {
	m := New(Options{})
	m.fetchCancel = func() {}

	model, _ := m.Update(dataMsg(sampleData()))
	d := model.(*Dashboard)
	if d.loading {
		t.Error("loading should be cleared")
	}
	if d.fetchCancel != nil {
		t.Error("fetchCancel should be cleared after data arrives")
	}
	if d.data.Snapshot.APR.Percent != 11.53 {
		t.Errorf("data not stored: %+v", d.data.Snapshot.APR)
	}
}

func TestDashboardUpdateDataErrMsgKeepsData(t *testing.T) {
	m := New(Options{RefreshInterval: time.Second})
	m.Update(dataMsg(sampleData()))

	boom := errors.New("gateway down")
	model, _ := m.Update(dataErrMsg{err: boom})
	d := model.(*Dashboard)
	if d.data.Snapshot.Contract != testContract {
		t.Error("previous snapshot should survive a failed fetch")
	}
	if !errors.Is(d.data.Err, boom) {
		t.Errorf("data.Err = %v", d.data.Err)
	}
	if d.stale {
		t.Error("should not be stale right after a good fetch")
	}
}

func TestDashboardUpdateTickMsg(t *testing.T) {
	m := New(Options{})
	if _, cmd := m.Update(tickMsg(time.Now())); cmd == nil {
		t.Error("tick should schedule the next tick")
	}
}

func TestDashboardUpdateWindowSizeAndHelp(t *testing.T) {
	m := New(Options{})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	if m.width != 120 || m.height != 50 {
		t.Errorf("size = %dx%d", m.width, m.height)
	}
	m.Update(toggleHelpMsg{})
	if !m.showHelp {
		t.Error("help should be visible after toggle")
	}
	m.loading = false
	if !strings.Contains(m.View(), "Dashboard keys") {
		t.Error("help overlay not rendered")
	}
}

func TestDashboardViewWithData(t *testing.T) {
	m := New(Options{})
	m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	m.Update(dataMsg(sampleData()))

	out := m.View()
	for _, want := range []string{"DELEGATION DASHBOARD", "11.53%", "Staking Agency", "Powered by Elrond Network", "Quick Commands"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestFetchData(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot()}
	m := New(Options{Source: src, Network: "mainnet", Contract: testContract, Denomination: 18, Decimals: 4})

	data, err := m.FetchDataOnce(context.Background())
	if err != nil {
		t.Fatalf("FetchDataOnce() error: %v", err)
	}
	if !data.HasSnapshot || data.Network != "mainnet" || data.Denomination != 18 {
		t.Errorf("data = %+v", data)
	}
	if !data.LastUpdate.Equal(src.snap.FetchedAt) {
		t.Errorf("LastUpdate = %v, want snapshot time", data.LastUpdate)
	}
}

func TestFetchDataErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("no source", func(t *testing.T) {
		if _, err := New(Options{}).FetchDataOnce(context.Background()); err == nil {
			t.Error("expected error without a source")
		}
	})

	t.Run("no snapshot", func(t *testing.T) {
		m := New(Options{Source: &fakeSource{err: boom}})
		if _, err := m.FetchDataOnce(context.Background()); !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
	})

	t.Run("stale snapshot", func(t *testing.T) {
		m := New(Options{Source: &fakeSource{snap: sampleSnapshot(), err: boom}})
		data, err := m.FetchDataOnce(context.Background())
		if err != nil {
			t.Fatalf("stale snapshot should not fail: %v", err)
		}
		if !data.HasSnapshot || !errors.Is(data.Err, boom) {
			t.Errorf("data = %+v", data)
		}
	})
}

func TestFetchCmd(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot()}
	m := New(Options{Source: src})
	if m.fetchCmd() == nil {
		t.Fatal("fetchCmd returned nil")
	}
}

func TestRenderStatic(t *testing.T) {
	m := New(Options{})
	out := m.RenderStatic(sampleData())

	for _, want := range []string{
		"=== DELEGATION DASHBOARD ===",
		"Name: Staking Agency",
		"APR: 11.53%",
		"Active Stake: 10,000.0000",
		"Active Nodes: 2/3",
		"Delegators: 1,234",
		"Service Fee: 12.5%",
		"Epoch: 512 (25%)",
		"Validators: 3,200/3,200 (queue 12)",
		"Total Staked: 12,000,000",
		"Powered by Elrond Network",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderStatic missing %q\n%s", want, out)
		}
	}
}

func TestRenderStaticUndetermined(t *testing.T) {
	data := sampleData()
	data.Snapshot.APR = apr.Estimate{Kind: apr.KindUndetermined, Reason: "network base stake is zero"}
	data.Err = errors.New("stale")

	out := New(Options{}).RenderStatic(data)
	if !strings.Contains(out, "APR: n/a") {
		t.Errorf("undetermined APR should render n/a:\n%s", out)
	}
	if !strings.Contains(out, "Warning: stale") {
		t.Errorf("fetch warning missing:\n%s", out)
	}
}

func TestRenderFooter(t *testing.T) {
	footer := renderFooter()
	for _, want := range []string{"Controls:", "Quick Commands:", "delegation-dashboard overview", "Powered by Elrond Network"} {
		if !strings.Contains(footer, want) {
			t.Errorf("footer missing %q", want)
		}
	}
}
