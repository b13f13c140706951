package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DelegationStats shows the estimated APR next to the figures it is
// derived from
type DelegationStats struct {
	BaseComponent
	data    DashboardData
	icons   Icons
	noEmoji bool
}

// NewDelegationStats creates a new delegation stats component
func NewDelegationStats(noEmoji bool) *DelegationStats {
	return &DelegationStats{
		BaseComponent: BaseComponent{id: "delegation_stats", title: "Delegation", minW: 30, minH: 10},
		icons:         NewIcons(noEmoji),
		noEmoji:       noEmoji,
	}
}

// Update receives dashboard data
func (c *DelegationStats) Update(msg tea.Msg, data DashboardData) (Component, tea.Cmd) {
	c.data = data
	return c, nil
}

// View renders the component with caching
func (c *DelegationStats) View(w, h int) string {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return c.renderBox(c.renderContent(w), w, h)
}

func (c *DelegationStats) renderContent(w int) string {
	inner := w - 4
	if inner < 0 {
		inner = 0
	}

	if !c.data.HasSnapshot {
		return fmt.Sprintf("%s\n%s Loading delegation data...", panelTitle(c.Title(), inner), c.icons.Unknown)
	}

	s := c.data.Snapshot
	var lines []string

	aprStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	if !s.APR.Determined() {
		aprStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	}
	lines = append(lines, "APR: "+aprStyle.Render(s.APR.Display()))
	if !s.APR.Determined() && s.APR.Reason != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
			Render("  "+ellipsize(s.APR.Reason, inner-2)))
	}
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("Active stake: %s", orDefault(s.TotalActiveStakeDisplay, "—")))

	nodesIcon := c.icons.OK
	if s.NumberOfActiveNodes == 0 {
		nodesIcon = c.icons.Warn
	}
	lines = append(lines, fmt.Sprintf("%s Active nodes: %d/%d %s", nodesIcon, s.NumberOfActiveNodes, len(s.BlsKeys),
		gauge(int64(s.NumberOfActiveNodes), int64(len(s.BlsKeys)), 12, c.noEmoji)))
	lines = append(lines, fmt.Sprintf("Delegators: %s", groupInt(s.NumUsers)))
	lines = append(lines, fmt.Sprintf("Service fee: %s%%", orDefault(s.Overview.ServiceFee, "0")))

	if share, ok := stakeShare(s.Breakdown); ok {
		lines = append(lines, fmt.Sprintf("Network share: %s", pct(share)))
	}
	if b := s.Breakdown; b.EpochsPerYear > 0 {
		lines = append(lines, fmt.Sprintf("Inflation: %s (year %d)", pct(b.InflationRate), b.YearIndex))
	}

	return fmt.Sprintf("%s\n%s", panelTitle(c.Title(), inner), strings.Join(lines, "\n"))
}
