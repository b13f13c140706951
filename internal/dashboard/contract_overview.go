package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stakingagency/delegation-dashboard/internal/denominate"
)

// ContractOverview shows the contract configuration and the agency
// metadata
type ContractOverview struct {
	BaseComponent
	data  DashboardData
	icons Icons
}

// NewContractOverview creates a new contract overview component
func NewContractOverview(noEmoji bool) *ContractOverview {
	return &ContractOverview{
		BaseComponent: BaseComponent{id: "contract_overview", title: "Contract", minW: 30, minH: 10},
		icons:         NewIcons(noEmoji),
	}
}

// Update receives dashboard data
func (c *ContractOverview) Update(msg tea.Msg, data DashboardData) (Component, tea.Cmd) {
	c.data = data
	return c, nil
}

// View renders the component with caching
func (c *ContractOverview) View(w, h int) string {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return c.renderBox(c.renderContent(w), w, h)
}

func (c *ContractOverview) renderContent(w int) string {
	inner := w - 4
	if inner < 0 {
		inner = 0
	}

	if !c.data.HasSnapshot {
		return fmt.Sprintf("%s\n%s Loading contract...", panelTitle(c.Title(), inner), c.icons.Unknown)
	}

	s := c.data.Snapshot
	ov := s.Overview
	valueWidth := inner - 18
	if valueWidth < 8 {
		valueWidth = 8
	}

	var lines []string

	if s.Metadata.IsEmpty() {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("No agency metadata set"))
	} else {
		lines = append(lines, field("Agency", s.Metadata.Name, valueWidth))
		if s.Metadata.Website != "" {
			lines = append(lines, field("Website", s.Metadata.Website, valueWidth))
		}
	}

	owner := ov.OwnerBech32
	if owner == "" {
		owner = ov.OwnerAddress
	}
	lines = append(lines, field("Owner", owner, valueWidth))
	lines = append(lines, field("Service fee", ov.ServiceFee+"%", valueWidth))
	lines = append(lines, field("Delegation cap", c.delegationCap(), valueWidth))
	lines = append(lines, field("Owner funds", ov.InitialOwnerFunds, valueWidth))
	lines = append(lines, field("Auto activation", c.flag(ov.AutomaticActivation == "true"), valueWidth))
	lines = append(lines, field("ReDelegation cap", c.flag(ov.ReDelegationCap == "true"), valueWidth))
	lines = append(lines, field("Fee changeable", c.flag(ov.ChangeableServiceFee), valueWidth))
	lines = append(lines, field("Unbond period", fmt.Sprintf("%s rounds", groupInt(ov.UnBondPeriod)), valueWidth))

	return fmt.Sprintf("%s\n%s", panelTitle(c.Title(), inner), strings.Join(lines, "\n"))
}

func (c *ContractOverview) delegationCap() string {
	ov := c.data.Snapshot.Overview
	if !ov.WithDelegationCap || ov.MaxDelegationCap == "" || ov.MaxDelegationCap == "0" {
		return "unlimited"
	}
	out, err := denominate.Format(ov.MaxDelegationCap, c.data.Denomination, 0, false, true)
	if err != nil {
		return ov.MaxDelegationCap
	}
	return out
}

func (c *ContractOverview) flag(on bool) string {
	if on {
		return c.icons.OK + " yes"
	}
	return c.icons.Err + " no"
}

// field renders one "label: value" row with a fixed label column
func field(label, value string, width int) string {
	if value == "" {
		value = "—"
	}
	return fmt.Sprintf("%-17s %s", label+":", ellipsize(value, width))
}
