package ui

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Nodes int    `json:"nodes" yaml:"nodes"`
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"text", "json", "yaml", "JSON"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) error: %v", f, err)
		}
	}
	if err := ValidateFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestPrinterEmit(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{FormatJSON, "{\n  \"name\": \"agency\",\n  \"nodes\": 3\n}\n"},
		{FormatYAML, "name: agency\nnodes: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			p := NewPrinterTo(&buf, tt.format)
			if !p.Structured() {
				t.Fatal("Structured() = false")
			}
			if err := p.Emit(sample{Name: "agency", Nodes: 3}); err != nil {
				t.Fatalf("Emit() error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Emit() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestPrinterText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterTo(&buf, "")
	p.Colors.Enabled = false
	p.Colors.EmojiEnabled = false

	if p.Format() != FormatText || p.Structured() {
		t.Errorf("empty format should be text, got %q", p.Format())
	}

	p.Success("done")
	p.Warn("careful")
	p.KeyValueLine("APR", "11.53%", "green")
	p.Textf("%d nodes\n", 3)

	out := buf.String()
	for _, want := range []string{"[OK] done", "[WARN] careful", "APR: 11.53%", "3 nodes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTable(t *testing.T) {
	c := &ColorConfig{Theme: DefaultTheme()}
	out := Table(c, []string{"STATUS", "KEY"}, [][]string{
		{"staked", "aaaa"},
		{"jailed", "bbbbbbbb"},
	}, []int{0, 5})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	if lines[0] != "STATUS KEY  " {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != strings.Repeat("-", 12) {
		t.Errorf("separator = %q", lines[1])
	}
	if lines[3] != "jailed bbbb…" {
		t.Errorf("truncated row = %q", lines[3])
	}
}

func TestErrorMessageFormat(t *testing.T) {
	c := &ColorConfig{Theme: DefaultTheme()}
	out := ErrorMessage{
		Problem: "gateway unreachable",
		Causes:  []string{"wrong --proxy"},
		Actions: []string{"check the network"},
		Hints:   []string{"delegation-dashboard apr --network devnet"},
	}.Format(c)

	for _, want := range []string{"Problem: gateway unreachable", "• wrong --proxy", "→ check the network", "· delegation-dashboard apr"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted error missing %q:\n%s", want, out)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatPercent(0.1084); got != "10.84%" {
		t.Errorf("FormatPercent = %q", got)
	}
}

func TestStatusIcon(t *testing.T) {
	c := &ColorConfig{Theme: DefaultTheme()}
	if got := c.StatusIcon("staked"); got != "[OK]" {
		t.Errorf("StatusIcon(staked) = %q", got)
	}
	if got := c.StatusIcon("jailed"); got != "[ERR]" {
		t.Errorf("StatusIcon(jailed) = %q", got)
	}
	c.EmojiEnabled = true
	if got := c.StatusIcon("other"); got != "○" {
		t.Errorf("StatusIcon(other) = %q", got)
	}
}
