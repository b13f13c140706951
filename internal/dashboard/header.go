package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Header shows the dashboard title, the agency and the last fetch error
type Header struct {
	BaseComponent
	data DashboardData
}

// NewHeader creates a new header component
func NewHeader() *Header {
	return &Header{
		BaseComponent: BaseComponent{id: "header", title: "Delegation Dashboard", minW: 40, minH: 3},
	}
}

// Update receives dashboard data
func (c *Header) Update(msg tea.Msg, data DashboardData) (Component, tea.Cmd) {
	c.data = data
	return c, nil
}

// View renders the header
func (c *Header) View(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}

	// Border (2) + padding (2)
	inner := w - 4
	if inner < 0 {
		inner = 0
	}

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	var version string
	titleWidth := inner
	if c.data.CLIVersion != "" {
		version = "v" + strings.TrimPrefix(c.data.CLIVersion, "v")
		titleWidth -= len(version) + 1
		if titleWidth < 0 {
			titleWidth = 0
		}
	}
	titleLine := panelTitle(c.Title(), titleWidth)
	if version != "" {
		titleLine += " " + dim.Render(version)
	}

	lines := []string{titleLine}

	var sub []string
	if name := c.data.Snapshot.Metadata.Name; name != "" {
		sub = append(sub, lipgloss.NewStyle().Bold(true).Render(name))
	}
	contract := c.data.Contract
	if c.data.Snapshot.Contract != "" {
		contract = c.data.Snapshot.Contract
	}
	if contract != "" {
		sub = append(sub, dim.Render(ellipsize(contract, inner/2)))
	}
	if c.data.Network != "" {
		sub = append(sub, dim.Render("["+c.data.Network+"]"))
	}
	if len(sub) > 0 {
		lines = append(lines, strings.Join(sub, "  "))
	}

	if c.data.Err != nil {
		lines = append(lines, fmt.Sprintf("⚠ %s", c.data.Err.Error()))
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1).
		Align(lipgloss.Center)

	contentWidth := w - 2
	if contentWidth < 0 {
		contentWidth = 0
	}
	return style.Width(contentWidth).Render(strings.Join(lines, "\n"))
}
