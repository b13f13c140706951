package dashboard

import (
	"context"
	"time"

	"github.com/stakingagency/delegation-dashboard/internal/delegation"
)

// Message types for the Bubble Tea event loop

// tickMsg is sent periodically to trigger data refresh
type tickMsg time.Time

// dataMsg contains successfully fetched dashboard data
type dataMsg DashboardData

// dataErrMsg contains an error from a failed data fetch
type dataErrMsg struct {
	err error
}

// fetchStartedMsg carries the cancel func of a fetch so it is assigned on
// the UI thread, not in the Cmd goroutine
type fetchStartedMsg struct {
	cancel context.CancelFunc
}

// forceRefreshMsg is sent when user presses 'r' to refresh immediately
type forceRefreshMsg struct{}

// toggleHelpMsg is sent when user presses 'h' to toggle help overlay
type toggleHelpMsg struct{}

// SnapshotSource is what the dashboard reads from. *delegation.Service
// satisfies it.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (delegation.Snapshot, error)
}

// DashboardData aggregates all data shown in the dashboard
type DashboardData struct {
	Snapshot    delegation.Snapshot
	HasSnapshot bool

	Network  string
	Contract string

	// Token precision for amounts the snapshot keeps raw
	Denomination int
	Decimals     int

	// CLI version (for display in header)
	CLIVersion string

	LastUpdate time.Time
	Err        error // Last fetch error (for display in header)
}

// Options configures dashboard behavior
type Options struct {
	Source          SnapshotSource
	Network         string
	Contract        string
	Denomination    int
	Decimals        int
	RefreshInterval time.Duration
	FetchTimeout    time.Duration // Timeout for one snapshot fetch (default: 10s)
	NoColor         bool
	NoEmoji         bool
	Debug           bool   // Enable debug output
	CLIVersion      string // CLI version to display in header
}
