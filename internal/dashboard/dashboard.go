package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stakingagency/delegation-dashboard/internal/denominate"
)

// keyMap defines keyboard shortcuts
type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Help    key.Binding
	Left    key.Binding
	Right   key.Binding
}

// ShortHelp implements help.KeyMap for inline help
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Refresh, k.Help}
}

// FullHelp implements help.KeyMap for full help overlay
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Refresh, k.Help},
		{k.Left, k.Right},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
		Help: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle help"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "p"),
			key.WithHelp("←/p", "prev page of node keys"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "n"),
			key.WithHelp("→/n", "next page of node keys"),
		),
	}
}

// tickCmd returns a command that sends a tick message after interval
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Dashboard is the main Bubble Tea Model
type Dashboard struct {
	opts     Options
	data     DashboardData
	lastOK   time.Time
	err      error
	stale    bool
	registry *ComponentRegistry
	layout   *Layout
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	width    int
	height   int
	showHelp bool
	loading  bool

	// Context for cancelling in-flight fetches
	fetchCancel context.CancelFunc
}

// New creates a new Dashboard instance
func New(opts Options) *Dashboard {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 30 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}

	registry := NewComponentRegistry()
	registry.Register(NewHeader())
	registry.Register(NewContractOverview(opts.NoEmoji))
	registry.Register(NewDelegationStats(opts.NoEmoji))
	registry.Register(NewNetworkStatus(opts.NoEmoji))
	registry.Register(NewBlsKeys(opts.NoEmoji))

	layout := NewLayout(DefaultLayout(), registry)

	// Spinner style is set in Init() to avoid terminal queries before alt screen
	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Dashboard{
		opts:     opts,
		registry: registry,
		layout:   layout,
		keys:     newKeyMap(),
		help:     help.New(),
		spinner:  s,
		loading:  true,
	}
}

// Init initializes the dashboard (Bubble Tea lifecycle)
func (m *Dashboard) Init() tea.Cmd {
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return tea.Batch(
		m.spinner.Tick,
		m.fetchCmd(),
		tickCmd(m.opts.RefreshInterval),
	)
}

// Update handles messages (Bubble Tea lifecycle)
func (m *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case fetchStartedMsg:
		if m.fetchCancel != nil {
			m.fetchCancel()
		}
		m.fetchCancel = msg.cancel
		return m, nil

	case tickMsg:
		// Only tickMsg schedules the next tick. A fetch still in flight is
		// left alone rather than cancelled.
		cmds := []tea.Cmd{tickCmd(m.opts.RefreshInterval)}
		if m.fetchCancel == nil {
			cmds = append(cmds, m.fetchCmd())
		}
		return m, tea.Batch(cmds...)

	case dataMsg:
		m.data = DashboardData(msg)
		m.lastOK = time.Now()
		m.err = nil
		m.stale = false
		m.loading = false
		m.fetchCancel = nil
		cmds := m.registry.UpdateAll(msg, m.data)
		return m, tea.Batch(cmds...)

	case dataErrMsg:
		// Keep old data, show error, mark stale after two missed refreshes
		m.err = msg.err
		m.data.Err = msg.err
		m.stale = time.Since(m.lastOK) > 2*m.opts.RefreshInterval
		m.loading = false
		m.fetchCancel = nil
		cmds := m.registry.UpdateAll(msg, m.data)
		return m, tea.Batch(cmds...)

	case forceRefreshMsg:
		return m, m.fetchCmd()

	case toggleHelpMsg:
		m.showHelp = !m.showHelp
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard (Bubble Tea lifecycle)
func (m *Dashboard) View() string {
	defer func() {
		if r := recover(); r != nil {
			if m.opts.Debug {
				fmt.Fprintf(os.Stderr, "Debug: View() panic recovered: %v\n", r)
			}
		}
	}()

	// Nothing to draw before the first WindowSizeMsg
	if m.width <= 0 || m.height <= 1 {
		return ""
	}

	if m.registry == nil || m.layout == nil {
		return "Initializing dashboard..."
	}

	if m.loading {
		return m.loadingView()
	}

	if m.showHelp {
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(1, 2).
				Render(getCommandHelpText()),
		)
	}

	result := m.layout.Compute(m.width, m.height)

	rowMap := make(map[int][]Cell)
	for _, cell := range result.Cells {
		rowMap[cell.Y] = append(rowMap[cell.Y], cell)
	}
	ys := make([]int, 0, len(rowMap))
	for y := range rowMap {
		ys = append(ys, y)
	}
	sort.Ints(ys)

	var rows []string
	for _, y := range ys {
		cells := rowMap[y]
		sort.Slice(cells, func(i, j int) bool { return cells[i].X < cells[j].X })

		var rowCells []string
		for _, cell := range cells {
			if comp := m.registry.Get(cell.ID); comp != nil {
				rowCells = append(rowCells, comp.View(cell.W, cell.H))
			}
		}
		if len(rowCells) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rowCells...))
		}
	}

	output := lipgloss.JoinVertical(lipgloss.Left, rows...)

	if result.Warning != "" {
		output += fmt.Sprintf("\n⚠ %s\n", result.Warning)
	}
	if m.stale {
		output += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("226")).
			Render(fmt.Sprintf("⚠ data is stale, last update %s ago", shortDuration(time.Since(m.lastOK))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, output, renderFooter())
}

func (m *Dashboard) loadingView() string {
	spinnerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)
	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)
	loadingBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(2, 4).
		MarginTop(1).
		Align(lipgloss.Center)

	subtext := "Querying delegation contract..."
	if m.opts.Contract != "" {
		subtext = "Querying " + ellipsize(m.opts.Contract, 24) + "..."
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		spinnerStyle.Render(m.spinner.View()),
		messageStyle.Render("CONNECTING TO "+strings.ToUpper(orDefault(m.opts.Network, "network"))),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(subtext),
	)

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		loadingBox.Render(content),
	)
}

// renderFooter builds the controls line, the quick commands line and the
// attribution line
func renderFooter() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)
	textStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	cmdStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	controlsLine := textStyle.Render("Controls: ") +
		keyStyle.Render("r") +
		textStyle.Render(" refresh | ") +
		keyStyle.Render("h") +
		textStyle.Render(" for help | ") +
		keyStyle.Render("Ctrl+C") +
		textStyle.Render(" to exit")

	commandsLine := textStyle.Render("Quick Commands: ") +
		cmdStyle.Render("delegation-dashboard apr --explain") +
		textStyle.Render(" | ") +
		cmdStyle.Render("delegation-dashboard overview") +
		textStyle.Render(" | ") +
		cmdStyle.Render("delegation-dashboard serve")

	poweredBy := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Powered by Elrond Network")

	return lipgloss.JoinVertical(lipgloss.Left, controlsLine, commandsLine, poweredBy)
}

// getCommandHelpText returns formatted help text showing all available commands
func getCommandHelpText() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)
	sectionStyle := titleStyle
	commandStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))
	separatorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("226")).
		Bold(true)

	const contentWidth = 72
	row := func(cmd, desc string) string {
		pad := 36 - len(cmd)
		if pad < 1 {
			pad = 1
		}
		return "  " + commandStyle.Render(cmd) + strings.Repeat(" ", pad) + descStyle.Render(desc) + "\n"
	}

	var b strings.Builder

	titleText := "Delegation Dashboard"
	b.WriteString(strings.Repeat(" ", (contentWidth-len(titleText))/2) + titleStyle.Render(titleText) + "\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", contentWidth)) + "\n\n")

	b.WriteString(sectionStyle.Render("USAGE") + "\n")
	b.WriteString("  " + commandStyle.Render("delegation-dashboard") + " " + descStyle.Render("<command> [flags]") + "\n\n")

	b.WriteString(sectionStyle.Render("Dashboard keys") + "\n")
	b.WriteString(row("r", "Refresh now"))
	b.WriteString(row("← / →", "Page through node keys"))
	b.WriteString(row("q", "Quit") + "\n")

	b.WriteString(sectionStyle.Render("Commands") + "\n")
	b.WriteString(row("delegation-dashboard apr", "Print the estimated APR"))
	b.WriteString(row("delegation-dashboard apr --explain", "Show every intermediate value"))
	b.WriteString(row("delegation-dashboard overview", "Contract, metadata and node keys"))
	b.WriteString(row("delegation-dashboard serve", "Browser dashboard and /metrics"))
	b.WriteString(row("delegation-dashboard version", "Show version information") + "\n")

	b.WriteString(footerStyle.Render("Press 'q', 'h', or 'esc' to close help"))
	return b.String()
}

// handleKey processes keyboard input
func (m *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "q", "h", "esc":
			return m, func() tea.Msg { return toggleHelpMsg{} }
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.fetchCancel != nil {
			m.fetchCancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		return m, func() tea.Msg { return forceRefreshMsg{} }

	case key.Matches(msg, m.keys.Help):
		return m, func() tea.Msg { return toggleHelpMsg{} }

	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		cmds := m.registry.UpdateAll(msg, m.data)
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// fetchCmd returns a Cmd that fetches data asynchronously
func (m *Dashboard) fetchCmd() tea.Cmd {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.FetchTimeout)

	return tea.Sequence(
		func() tea.Msg { return fetchStartedMsg{cancel: cancel} },
		func() tea.Msg {
			defer cancel()
			data, err := m.fetchData(ctx)
			if err != nil {
				return dataErrMsg{err: err}
			}
			return dataMsg(data)
		},
	)
}

// fetchData does the actual blocking I/O (called from fetchCmd)
func (m *Dashboard) fetchData(ctx context.Context) (DashboardData, error) {
	data := DashboardData{
		Network:      m.opts.Network,
		Contract:     m.opts.Contract,
		Denomination: m.opts.Denomination,
		Decimals:     m.opts.Decimals,
		CLIVersion:   m.opts.CLIVersion,
		LastUpdate:   time.Now(),
	}
	if m.opts.Source == nil {
		return data, errors.New("no snapshot source configured")
	}

	snap, err := m.opts.Source.Snapshot(ctx)
	if err != nil {
		// The source may hand back a stale snapshot along with the error
		if snap.Contract == "" {
			return data, err
		}
		data.Err = err
	}
	data.Snapshot = snap
	data.HasSnapshot = true
	if !snap.FetchedAt.IsZero() {
		data.LastUpdate = snap.FetchedAt
	}
	return data, nil
}

// FetchDataOnce performs a single blocking data fetch for non-TTY mode
func (m *Dashboard) FetchDataOnce(ctx context.Context) (DashboardData, error) {
	return m.fetchData(ctx)
}

// RenderStatic renders a static text snapshot of dashboard data
func (m *Dashboard) RenderStatic(data DashboardData) string {
	var b strings.Builder
	s := data.Snapshot

	b.WriteString("=== DELEGATION DASHBOARD ===\n\n")

	b.WriteString("AGENCY:\n")
	b.WriteString(fmt.Sprintf("  Name: %s\n", orDefault(s.Metadata.Name, "—")))
	if s.Metadata.Website != "" {
		b.WriteString(fmt.Sprintf("  Website: %s\n", s.Metadata.Website))
	}
	b.WriteString(fmt.Sprintf("  Contract: %s\n", orDefault(s.Contract, data.Contract)))
	b.WriteString("\n")

	b.WriteString("DELEGATION:\n")
	b.WriteString(fmt.Sprintf("  APR: %s\n", s.APR.Display()))
	b.WriteString(fmt.Sprintf("  Active Stake: %s\n", orDefault(s.TotalActiveStakeDisplay, "—")))
	b.WriteString(fmt.Sprintf("  Active Nodes: %d/%d\n", s.NumberOfActiveNodes, len(s.BlsKeys)))
	b.WriteString(fmt.Sprintf("  Delegators: %s\n", groupInt(s.NumUsers)))
	b.WriteString(fmt.Sprintf("  Service Fee: %s%%\n", orDefault(s.Overview.ServiceFee, "0")))
	b.WriteString("\n")

	b.WriteString("NETWORK:\n")
	b.WriteString(fmt.Sprintf("  Network: %s\n", orDefault(data.Network, "—")))
	b.WriteString(fmt.Sprintf("  Epoch: %s (%s)\n", groupInt(s.Epoch), pct(s.EpochProgress())))
	b.WriteString(fmt.Sprintf("  Validators: %s/%s (queue %s)\n",
		groupInt(s.NetworkStake.ActiveValidators),
		groupInt(s.NetworkStake.TotalValidators),
		groupInt(s.NetworkStake.QueueSize)))
	b.WriteString(fmt.Sprintf("  Total Staked: %s\n", networkStakeDisplay(data)))
	b.WriteString("\n")

	if data.Err != nil {
		b.WriteString(fmt.Sprintf("Warning: %v\n", data.Err))
	}
	b.WriteString(fmt.Sprintf("Last Update: %s\n", data.LastUpdate.Format("2006-01-02 15:04:05 MST")))
	b.WriteString("Powered by Elrond Network\n")

	return b.String()
}

// networkStakeDisplay denominates the network-wide total stake, which the
// snapshot keeps as a raw amount
func networkStakeDisplay(data DashboardData) string {
	raw := data.Snapshot.NetworkStake.TotalStaked
	if raw.IsZero() {
		return "—"
	}
	out, err := denominate.Format(raw.String(), data.Denomination, 0, false, true)
	if err != nil {
		return raw.String()
	}
	return out
}
