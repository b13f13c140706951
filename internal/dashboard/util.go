package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
	"github.com/stakingagency/delegation-dashboard/internal/denominate"
)

// groupInt renders counts (epochs, rounds, validators, delegators) with
// thousands separators, the same way token amounts are grouped
func groupInt(n int64) string {
	s, err := denominate.Format(strconv.FormatInt(n, 10), 0, 0, false, true)
	if err != nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// pct renders a fraction as a percentage with at most three decimals:
// 0.1084513 → "10.845%", 0.25 → "25%"
func pct(fraction float64) string {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(fraction).Shift(2).Round(3).String() + "%"
}

// stakeShare is the contract's part of all stake on the network, taken from
// the whole-token values the APR was computed with
func stakeShare(b apr.Breakdown) (float64, bool) {
	if b.NetworkTotalStake <= 0 || b.ValidatorTotalStake <= 0 {
		return 0, false
	}
	return b.ValidatorTotalStake / b.NetworkTotalStake, true
}

// gauge draws done/total as a bar of the given width, e.g. rounds passed
// in the epoch or staked nodes out of all nodes. Below three columns only
// the percentage is shown.
func gauge(done, total int64, width int, noEmoji bool) string {
	frac := 0.0
	if total > 0 {
		frac = math.Max(0, math.Min(1, float64(done)/float64(total)))
	}
	if width < 3 {
		return pct(frac)
	}

	fill, empty, inner := "█", "░", width
	if noEmoji {
		fill, empty, inner = "=", " ", width-2
	}
	n := int(float64(inner) * frac)
	bar := strings.Repeat(fill, n) + strings.Repeat(empty, inner-n)
	if noEmoji {
		return "[" + bar + "]"
	}
	return bar
}

var durationUnits = []struct {
	size   time.Duration
	suffix string
}{
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
}

// shortDuration keeps the two most significant units: "1d4h", "18h",
// "2h5m", "45m", "30s"
func shortDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	var b strings.Builder
	shown := 0
	for _, u := range durationUnits {
		n := d / u.size
		d -= n * u.size
		if n == 0 && shown == 0 {
			continue
		}
		if n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.suffix)
		}
		if shown++; shown == 2 {
			break
		}
	}
	return b.String()
}

// Icons switch between emoji and plain ASCII markers
type Icons struct {
	OK      string
	Warn    string
	Err     string
	Epoch   string
	Unknown string
}

// NewIcons picks the icon set
func NewIcons(noEmoji bool) Icons {
	if noEmoji {
		return Icons{OK: "[OK]", Warn: "[!]", Err: "[X]", Epoch: "#", Unknown: "[?]"}
	}
	return Icons{OK: "✓", Warn: "⚠", Err: "✗", Epoch: "⏱", Unknown: "◯"}
}

// ellipsize cuts s to max runes, marking the cut with "…"
func ellipsize(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// panelTitle renders an upper-cased, centered, bold title line
func panelTitle(title string, width int) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		Width(width).
		Align(lipgloss.Center).
		Render(strings.ToUpper(title))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
