package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
	"github.com/stakingagency/delegation-dashboard/internal/delegation"
)

// BlsKeys lists the contract's node keys, a page at a time
type BlsKeys struct {
	BaseComponent
	data        DashboardData
	icons       Icons
	currentPage int // 0-based
	pageSize    int
}

// NewBlsKeys creates a new node keys component
func NewBlsKeys(noEmoji bool) *BlsKeys {
	return &BlsKeys{
		BaseComponent: BaseComponent{id: "bls_keys", minW: 30, minH: 10},
		icons:         NewIcons(noEmoji),
		pageSize:      5,
	}
}

// Title returns component title with the page position when paginated
func (c *BlsKeys) Title() string {
	total := len(c.data.Snapshot.BlsKeys)
	if pages := c.totalPages(); pages > 1 {
		return fmt.Sprintf("Node Keys (Page %d/%d)", c.currentPage+1, pages)
	}
	if total == 0 {
		return "Node Keys"
	}
	return fmt.Sprintf("Node Keys (%d)", total)
}

func (c *BlsKeys) totalPages() int {
	return (len(c.data.Snapshot.BlsKeys) + c.pageSize - 1) / c.pageSize
}

// Update receives dashboard data and handles paging keys
func (c *BlsKeys) Update(msg tea.Msg, data DashboardData) (Component, tea.Cmd) {
	c.data = data

	// Keys can disappear between refreshes
	if pages := c.totalPages(); c.currentPage >= pages {
		c.currentPage = 0
		if pages > 0 {
			c.currentPage = pages - 1
		}
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "left", "p":
			if c.currentPage > 0 {
				c.currentPage--
			}
		case "right", "n":
			if c.currentPage < c.totalPages()-1 {
				c.currentPage++
			}
		}
	}
	return c, nil
}

// View renders the component with caching
func (c *BlsKeys) View(w, h int) string {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return c.renderBox(c.renderContent(w), w, h)
}

func (c *BlsKeys) renderContent(w int) string {
	inner := w - 4
	if inner < 0 {
		inner = 0
	}

	keys := c.data.Snapshot.BlsKeys
	if !c.data.HasSnapshot {
		return fmt.Sprintf("%s\n\n%s Loading node keys...", panelTitle(c.Title(), inner), c.icons.Unknown)
	}
	if len(keys) == 0 {
		return fmt.Sprintf("%s\n\n%s No nodes registered on this contract", panelTitle(c.Title(), inner), c.icons.Warn)
	}

	keyWidth := inner - 16
	if keyWidth < 12 {
		keyWidth = 12
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("%-14s %s", "STATUS", "BLS KEY"))
	lines = append(lines, strings.Repeat("─", inner))

	start := c.currentPage * c.pageSize
	end := start + c.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	// Always pageSize rows so the table height stays put
	for row := 0; row < c.pageSize; row++ {
		i := start + row
		if i >= end {
			lines = append(lines, "")
			continue
		}
		k := keys[i]
		line := fmt.Sprintf("%-14s %s", c.statusLabel(k), ellipsize(k.Key, keyWidth))
		lines = append(lines, statusStyle(k.Status).Render(line))
	}

	lines = append(lines, "")

	footer := summarizeKeys(keys)
	if c.totalPages() > 1 {
		footer = "← / →: change page | " + footer
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(footer))

	return fmt.Sprintf("%s\n%s", panelTitle(c.Title(), inner), strings.Join(lines, "\n"))
}

func (c *BlsKeys) statusLabel(k delegation.BlsKey) string {
	label := k.Label
	if label == "" {
		label = string(k.Status)
	}
	switch k.Status {
	case apr.StatusStaked:
		return c.icons.OK + " " + label
	case apr.StatusJailed:
		return c.icons.Err + " " + label
	default:
		return c.icons.Unknown + " " + label
	}
}

func statusStyle(s apr.BlsKeyStatus) lipgloss.Style {
	switch s {
	case apr.StatusStaked:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case apr.StatusJailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	}
}

// summarizeKeys renders "N staked, M jailed, K other"
func summarizeKeys(keys []delegation.BlsKey) string {
	var staked, jailed, other int
	for _, k := range keys {
		switch k.Status {
		case apr.StatusStaked:
			staked++
		case apr.StatusJailed:
			jailed++
		default:
			other++
		}
	}
	return fmt.Sprintf("%d staked, %d jailed, %d other", staked, jailed, other)
}
