package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stakingagency/delegation-dashboard/internal/dashboard"
	"github.com/stakingagency/delegation-dashboard/internal/ui"
)

// dashboardCoreDeps holds injectable dependencies for runDashboardCmdCore.
type dashboardCoreDeps struct {
	isTTY          func() bool
	runStatic      func(ctx context.Context, opts dashboard.Options) error
	runInteractive func(opts dashboard.Options) error
}

// runDashboardCmdCore contains the testable logic for the dashboard RunE handler.
func runDashboardCmdCore(ctx context.Context, opts dashboard.Options, deps dashboardCoreDeps) error {
	if !deps.isTTY() {
		if opts.Debug {
			fmt.Fprintln(os.Stderr, "Debug: Non-TTY detected, using static mode")
		}
		return deps.runStatic(ctx, opts)
	}

	if opts.Debug {
		fmt.Fprintln(os.Stderr, "Debug: TTY detected, using interactive mode")
	}
	return deps.runInteractive(opts)
}

func createDashboardCmd() *cobra.Command {
	var (
		refreshInterval time.Duration
		fetchTimeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive dashboard for the delegation contract",
		Long: `Launch an interactive terminal dashboard showing:

  • Estimated APR, active stake, delegators and active nodes
  • Contract settings and agency metadata
  • Network epoch progress, validators and total stake
  • Node keys with their staking state

The dashboard refreshes every 30 seconds by default. Press '?' for help.

For non-interactive environments (CI/pipes), dashboard automatically falls back
to a static text snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			isTTY := term.IsTerminal(int(os.Stdout.Fd()))

			// Console logs would tear the alternate screen
			var logOut io.Writer
			if isTTY {
				logOut = io.Discard
			}
			d, err := newDeps(logOut)
			if err != nil {
				return err
			}
			defer d.Close()

			opts := normalizeDashboardOptions(dashboard.Options{
				Source:          d.Service,
				Network:         d.Cfg.Network,
				Contract:        d.Cfg.DelegationContract,
				Denomination:    d.Cfg.Denomination,
				Decimals:        d.Cfg.Decimals,
				RefreshInterval: refreshInterval,
				FetchTimeout:    fetchTimeout,
				NoColor:         flagNoColor,
				NoEmoji:         flagNoEmoji,
				Debug:           flagDebug,
				CLIVersion:      Version,
			})

			return runDashboardCmdCore(cmd.Context(), opts, dashboardCoreDeps{
				isTTY:          func() bool { return isTTY },
				runStatic:      runDashboardStatic,
				runInteractive: runDashboardInteractive,
			})
		},
	}

	cmd.Flags().DurationVar(&refreshInterval, "refresh-interval", 30*time.Second, "Dashboard refresh interval")
	cmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 0, "Timeout for one snapshot fetch (default: min(20s, 2x refresh interval))")

	return cmd
}

// runDashboardStatic performs a single fetch and prints static output for non-TTY
func runDashboardStatic(ctx context.Context, opts dashboard.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Debug {
		fmt.Fprintf(os.Stderr, "Debug: Network: %s, Contract: %s\n", opts.Network, opts.Contract)
		fmt.Fprintln(os.Stderr, "Debug: Running in static mode")
		fmt.Fprintln(os.Stderr, "---")
	}

	d := dashboard.New(opts)

	ctx, cancel := context.WithTimeout(ctx, opts.FetchTimeout)
	defer cancel()

	data, err := d.FetchDataOnce(ctx)
	if err != nil {
		return classifyFetchError(fmt.Errorf("failed to fetch dashboard data: %w", err))
	}

	fmt.Print(d.RenderStatic(data))
	return nil
}

// runDashboardInteractive launches the Bubble Tea TUI program
func runDashboardInteractive(opts dashboard.Options) error {
	d := dashboard.New(opts)

	p := tea.NewProgram(
		d,
		tea.WithAltScreen(),
		tea.WithInput(os.Stdin),
		tea.WithOutput(os.Stdout),
	)

	if _, err := p.Run(); err != nil {
		// If TTY error, fall back to static mode
		if strings.Contains(err.Error(), "tty") || strings.Contains(err.Error(), "device not configured") {
			if opts.Debug {
				fmt.Fprintf(os.Stderr, "Debug: TTY error, falling back to static mode: %v\n", err)
			}
			return runDashboardStatic(context.Background(), opts)
		}
		return fmt.Errorf("dashboard error: %w", err)
	}

	// Drop stale terminal responses (cursor position reports, focus events)
	// that arrive after bubbletea exits the alternate screen
	ui.ResetTerminalAfterTUI()

	return nil
}

// normalizeDashboardOptions applies default refresh/timeout values to keep behaviour
// consistent between interactive and static dashboard modes.
func normalizeDashboardOptions(opts dashboard.Options) dashboard.Options {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 30 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		// Cap at twice the refresh interval so the UI remains responsive
		timeout := 20 * time.Second
		if candidate := 2 * opts.RefreshInterval; candidate < timeout {
			timeout = candidate
		}
		opts.FetchTimeout = timeout
	}
	return opts
}
