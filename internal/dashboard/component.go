package dashboard

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Component is one dashboard panel
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg, data DashboardData) (Component, tea.Cmd)
	View(width, height int) string

	ID() string
	Title() string
	MinWidth() int
	MinHeight() int
}

// BaseComponent carries the identity of a panel and a render cache keyed
// on content and size
type BaseComponent struct {
	id    string
	title string
	minW  int
	minH  int

	lastHash uint64
	cached   string
}

// ID returns component identifier
func (c *BaseComponent) ID() string {
	return c.id
}

// Title returns component title
func (c *BaseComponent) Title() string {
	return c.title
}

// MinWidth returns minimum width required
func (c *BaseComponent) MinWidth() int {
	return c.minW
}

// MinHeight returns minimum height required
func (c *BaseComponent) MinHeight() int {
	return c.minH
}

// Init is a no-op
func (c *BaseComponent) Init() tea.Cmd {
	return nil
}

func (c *BaseComponent) cacheKey(content string, w, h int) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%dx%d|%s", w, h, content))
}

// CheckCacheWithSize reports a cache hit when neither content nor
// dimensions changed since the last render
func (c *BaseComponent) CheckCacheWithSize(content string, w, h int) bool {
	h64 := c.cacheKey(content, w, h)
	if h64 == c.lastHash && c.cached != "" {
		return true
	}
	c.lastHash = h64
	return false
}

// UpdateCache stores rendered output in cache
func (c *BaseComponent) UpdateCache(rendered string) {
	c.cached = rendered
}

// GetCached returns cached output
func (c *BaseComponent) GetCached() string {
	return c.cached
}

// renderBox wraps content in the rounded panel border, reusing the cached
// render when nothing changed
func (c *BaseComponent) renderBox(content string, w, h int) string {
	if c.CheckCacheWithSize(content, w, h) {
		return c.GetCached()
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1)

	// Border takes 2 columns
	contentWidth := w - 2
	if contentWidth < 0 {
		contentWidth = 0
	}

	rendered := style.Width(contentWidth).Render(content)
	c.UpdateCache(rendered)
	return rendered
}

// ComponentRegistry keeps panels in registration order
type ComponentRegistry struct {
	order      []string
	components map[string]Component
}

// NewComponentRegistry creates a new registry
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		order:      make([]string, 0),
		components: make(map[string]Component),
	}
}

// Register adds a component, replacing any previous one with the same ID
func (r *ComponentRegistry) Register(comp Component) {
	id := comp.ID()
	if _, exists := r.components[id]; !exists {
		r.order = append(r.order, id)
	}
	r.components[id] = comp
}

// Get retrieves a component by ID
func (r *ComponentRegistry) Get(id string) Component {
	return r.components[id]
}

// All returns all registered components in registration order
func (r *ComponentRegistry) All() []Component {
	comps := make([]Component, 0, len(r.order))
	for _, id := range r.order {
		comps = append(comps, r.components[id])
	}
	return comps
}

// UpdateAll forwards msg and data to every component in registration order
func (r *ComponentRegistry) UpdateAll(msg tea.Msg, data DashboardData) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(r.order))
	for _, id := range r.order {
		updated, cmd := r.components[id].Update(msg, data)
		r.components[id] = updated
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}
