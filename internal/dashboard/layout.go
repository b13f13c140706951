package dashboard

import (
	"fmt"
	"sort"
	"strings"
)

// Panel IDs of the delegation dashboard
const (
	PanelHeader           = "header"
	PanelDelegationStats  = "delegation_stats"
	PanelContractOverview = "contract_overview"
	PanelNetworkStatus    = "network_status"
	PanelBlsKeys          = "bls_keys"
)

// LayoutRow is one band of panels sharing a height
type LayoutRow struct {
	Panels    []string // Component IDs, left to right
	Weights   []int    // Share of the width left after every MinWidth is met
	MinHeight int
	Fixed     bool // never receives vertical slack
}

// LayoutConfig describes the dashboard arrangement
type LayoutConfig struct {
	Rows []LayoutRow
	// Essential panels stay visible when their row can neither fit side
	// by side nor stack
	Essential []string
}

// DefaultLayout puts the APR and contract panels side by side under the
// header, then network progress, then the node keys table. Only the APR
// panel must survive a narrow terminal.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		Rows: []LayoutRow{
			{Panels: []string{PanelHeader}, MinHeight: 4, Fixed: true},
			{Panels: []string{PanelDelegationStats, PanelContractOverview}, Weights: []int{1, 1}, MinHeight: 11},
			{Panels: []string{PanelNetworkStatus}, MinHeight: 9},
			{Panels: []string{PanelBlsKeys}, MinHeight: 11},
		},
		Essential: []string{PanelHeader, PanelDelegationStats},
	}
}

// Cell is a positioned panel
type Cell struct {
	ID   string
	X, Y int
	W, H int
}

// LayoutResult is the outcome of Compute
type LayoutResult struct {
	Cells   []Cell
	Stacked []string // rows laid out vertically, by first panel ID
	Hidden  []string // panels left out entirely
	Warning string
}

// Layout positions registered panels on the terminal
type Layout struct {
	config   LayoutConfig
	registry *ComponentRegistry
}

// NewLayout creates a layout over the panels in registry
func NewLayout(config LayoutConfig, registry *ComponentRegistry) *Layout {
	return &Layout{config: config, registry: registry}
}

// band is a row after the narrow-terminal policy has been applied
type band struct {
	panels    []string
	weights   []int
	mins      []int
	minHeight int
	fixed     bool
}

// Compute places every visible panel. A row too narrow for its panels
// side by side is stacked when the spare height allows, otherwise only its
// essential panels are kept.
func (l *Layout) Compute(width, height int) LayoutResult {
	var res LayoutResult
	if width <= 0 || height <= 0 {
		return res
	}

	bands := l.plan(width, height, &res)
	heights := distributeHeight(bands, height)

	y := 0
	for i, b := range bands {
		x := 0
		for j, w := range splitWidth(b.weights, b.mins, width) {
			res.Cells = append(res.Cells, Cell{ID: b.panels[j], X: x, Y: y, W: w, H: heights[i]})
			x += w
		}
		y += heights[i]
	}

	if len(res.Hidden) > 0 {
		names := make([]string, len(res.Hidden))
		for i, id := range res.Hidden {
			names[i] = l.title(id)
		}
		res.Warning = fmt.Sprintf("%s hidden (terminal too narrow)", strings.Join(names, ", "))
	}
	return res
}

func (l *Layout) plan(width, height int, res *LayoutResult) []band {
	spare := height
	for _, row := range l.config.Rows {
		spare -= row.MinHeight
	}

	var bands []band
	for _, row := range l.config.Rows {
		mins := l.minWidths(row.Panels)
		if sum(mins) <= width || len(row.Panels) == 1 {
			if sum(mins) > width {
				res.Warning = "Terminal too narrow - display truncated"
			}
			bands = append(bands, band{row.Panels, row.Weights, mins, row.MinHeight, row.Fixed})
			continue
		}

		extra := (len(row.Panels) - 1) * row.MinHeight
		if maxInt(mins) <= width && extra <= spare {
			spare -= extra
			res.Stacked = append(res.Stacked, row.Panels[0])
			for i, id := range row.Panels {
				bands = append(bands, band{[]string{id}, nil, mins[i : i+1], row.MinHeight, row.Fixed})
			}
			continue
		}

		kept := band{minHeight: row.MinHeight, fixed: row.Fixed}
		var hidden []string
		for i, id := range row.Panels {
			if !contains(l.config.Essential, id) {
				hidden = append(hidden, id)
				continue
			}
			kept.panels = append(kept.panels, id)
			kept.mins = append(kept.mins, mins[i])
			if i < len(row.Weights) {
				kept.weights = append(kept.weights, row.Weights[i])
			}
		}
		if len(kept.panels) == 0 {
			// Nothing essential here, keep the leftmost panel
			kept.panels, kept.mins, hidden = row.Panels[:1], mins[:1], row.Panels[1:]
		}
		res.Hidden = append(res.Hidden, hidden...)
		bands = append(bands, kept)
	}
	return bands
}

func (l *Layout) minWidths(ids []string) []int {
	mins := make([]int, len(ids))
	for i, id := range ids {
		mins[i] = 20
		if c := l.registry.Get(id); c != nil {
			mins[i] = c.MinWidth()
		}
	}
	return mins
}

func (l *Layout) title(id string) string {
	if c := l.registry.Get(id); c != nil && c.Title() != "" {
		return c.Title()
	}
	return id
}

// distributeHeight gives each band its MinHeight, then shares what is left
// among the bands that may grow, earlier bands taking the remainder
func distributeHeight(bands []band, height int) []int {
	heights := make([]int, len(bands))
	var growable []int
	used := 0
	for i, b := range bands {
		heights[i] = b.minHeight
		used += b.minHeight
		if !b.fixed {
			growable = append(growable, i)
		}
	}

	slack := height - used
	if slack <= 0 || len(growable) == 0 {
		return heights
	}
	each, rem := slack/len(growable), slack%len(growable)
	for n, i := range growable {
		heights[i] += each
		if n < rem {
			heights[i]++
		}
	}
	return heights
}

// splitWidth meets every minimum, then hands out the rest by weight using
// largest remainders, so the widths always add up to width. Missing
// weights count as 1. When the minimums alone do not fit, the width is
// split evenly instead.
func splitWidth(weights, mins []int, width int) []int {
	n := len(mins)
	if n == 0 {
		return nil
	}
	if sum(mins) > width {
		return clampEven(n, width)
	}

	w := make([]int, n)
	total := 0
	for i := range w {
		w[i] = 1
		if i < len(weights) && weights[i] > 0 {
			w[i] = weights[i]
		}
		total += w[i]
	}

	free := width - sum(mins)
	out := append([]int(nil), mins...)
	type share struct {
		idx  int
		frac float64
	}
	shares := make([]share, n)
	given := 0
	for i := range out {
		exact := float64(free) * float64(w[i]) / float64(total)
		out[i] += int(exact)
		given += int(exact)
		shares[i] = share{i, exact - float64(int(exact))}
	}
	sort.SliceStable(shares, func(a, b int) bool { return shares[a].frac > shares[b].frac })
	for i := 0; i < free-given; i++ {
		out[shares[i%n].idx]++
	}
	return out
}

// clampEven splits width into n near-equal columns of at least one column
// each
func clampEven(n, width int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = width / n
		if i < width%n {
			out[i]++
		}
		if out[i] < 1 {
			out[i] = 1
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, s := range ids {
		if s == id {
			return true
		}
	}
	return false
}

func sum(xs []int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}

func maxInt(xs []int) int {
	m := 0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}
