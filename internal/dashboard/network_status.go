package dashboard

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// NetworkStatus shows epoch progress and network-wide stake
type NetworkStatus struct {
	BaseComponent
	data    DashboardData
	icons   Icons
	noEmoji bool
}

// NewNetworkStatus creates a new network status component
func NewNetworkStatus(noEmoji bool) *NetworkStatus {
	return &NetworkStatus{
		BaseComponent: BaseComponent{id: "network_status", title: "Network Status", minW: 30, minH: 8},
		icons:         NewIcons(noEmoji),
		noEmoji:       noEmoji,
	}
}

// Update receives dashboard data
func (c *NetworkStatus) Update(msg tea.Msg, data DashboardData) (Component, tea.Cmd) {
	c.data = data
	return c, nil
}

// View renders the component with caching
func (c *NetworkStatus) View(w, h int) string {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return c.renderBox(c.renderContent(w), w, h)
}

func (c *NetworkStatus) renderContent(w int) string {
	inner := w - 4
	if inner < 0 {
		inner = 0
	}

	if !c.data.HasSnapshot {
		return fmt.Sprintf("%s\n%s Waiting for network data...", panelTitle(c.Title(), inner), c.icons.Unknown)
	}

	s := c.data.Snapshot
	cfg := s.NetworkConfig
	stake := s.NetworkStake

	var lines []string

	epochLine := fmt.Sprintf("%s Epoch %s", c.icons.Epoch, groupInt(s.Epoch))
	if s.ChainID != "" {
		epochLine += fmt.Sprintf("  (chain %s)", s.ChainID)
	}
	lines = append(lines, epochLine)

	barWidth := inner - 32
	if barWidth > 40 {
		barWidth = 40
	}
	lines = append(lines, fmt.Sprintf("Rounds: %s/%s %s %s",
		groupInt(cfg.RoundsPassedInEpoch),
		groupInt(cfg.RoundsPerEpoch),
		gauge(cfg.RoundsPassedInEpoch, cfg.RoundsPerEpoch, barWidth, c.noEmoji),
		pct(s.EpochProgress())))

	if left := epochTimeLeft(c.data); left > 0 {
		lines = append(lines, fmt.Sprintf("Epoch ends in: %s", shortDuration(left)))
	}

	lines = append(lines, fmt.Sprintf("Validators: %s active / %s total",
		groupInt(stake.ActiveValidators), groupInt(stake.TotalValidators)))
	lines = append(lines, fmt.Sprintf("Queue: %s", groupInt(stake.QueueSize)))
	lines = append(lines, fmt.Sprintf("Total staked: %s", networkStakeDisplay(c.data)))
	if cfg.TopUpFactor > 0 {
		lines = append(lines, fmt.Sprintf("Top-up factor: %s", pct(cfg.TopUpFactor)))
	}

	return fmt.Sprintf("%s\n%s", panelTitle(c.Title(), inner), strings.Join(lines, "\n"))
}

// epochTimeLeft estimates the wall time until the epoch rolls over
func epochTimeLeft(data DashboardData) time.Duration {
	cfg := data.Snapshot.NetworkConfig
	left := cfg.RoundsPerEpoch - cfg.RoundsPassedInEpoch
	if left <= 0 || cfg.RoundDurationMs <= 0 {
		return 0
	}
	return time.Duration(left*cfg.RoundDurationMs) * time.Millisecond
}
