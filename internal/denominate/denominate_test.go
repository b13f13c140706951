package denominate

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		denom       int
		decimals    int
		showLast    bool
		addCommas   bool
		expected    string
	}{
		{
			name:      "whole tokens",
			input:     "2500000000000000000000",
			denom:     18,
			decimals:  4,
			addCommas: true,
			expected:  "2,500.0000",
		},
		{
			name:      "truncates extra decimals",
			input:     "1234567890000000000000",
			denom:     18,
			decimals:  2,
			addCommas: true,
			expected:  "1,234.56",
		},
		{
			name:      "does not round up",
			input:     "999999999999999999",
			denom:     18,
			decimals:  4,
			addCommas: true,
			expected:  "0.9999",
		},
		{
			name:      "show last non-zero decimal",
			input:     "1000000000000001",
			denom:     18,
			decimals:  4,
			showLast:  true,
			addCommas: true,
			expected:  "0.001000000000000001",
		},
		{
			name:      "show last pads to decimals",
			input:     "1500000000000000000",
			denom:     18,
			decimals:  4,
			showLast:  true,
			addCommas: true,
			expected:  "1.5000",
		},
		{
			name:     "no commas",
			input:    "12345678000000000000000000",
			denom:    18,
			decimals: 0,
			expected: "12345678",
		},
		{
			name:      "zero",
			input:     "0",
			denom:     18,
			decimals:  4,
			addCommas: true,
			expected:  "0.0000",
		},
		{
			name:      "millions grouped",
			input:     "12345678000000000000000000",
			denom:     18,
			decimals:  0,
			addCommas: true,
			expected:  "12,345,678",
		},
		{
			name:      "negative",
			input:     "-2500000000000000000000",
			denom:     18,
			decimals:  1,
			addCommas: true,
			expected:  "-2,500.0",
		},
		{
			name:     "zero denomination",
			input:    "42",
			denom:    0,
			decimals: 2,
			expected: "42.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.input, tt.denom, tt.decimals, tt.showLast, tt.addCommas)
			if err != nil {
				t.Fatalf("Format() error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Format(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormat_Invalid(t *testing.T) {
	if _, err := Format("12abc", 18, 4, false, true); err == nil {
		t.Error("Format() error = nil for non-numeric input")
	}
	if _, err := Format("1", -1, 4, false, true); err == nil {
		t.Error("Format() error = nil for negative denomination")
	}
}

func TestMagnitude(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "8000000000000000000000000", expected: "8000000"},
		{input: "2500999999999999999999", expected: "2500"},
		{input: "999999999999999999", expected: "0"},
		{input: "0", expected: "0"},
		{input: "12345678901234567890123456789", expected: "12345678901"},
	}

	for _, tt := range tests {
		got, err := Magnitude(tt.input, 18, 4)
		if err != nil {
			t.Fatalf("Magnitude(%q) error: %v", tt.input, err)
		}
		if got.String() != tt.expected {
			t.Errorf("Magnitude(%q) = %s, want %s", tt.input, got.String(), tt.expected)
		}
	}
}

func TestParse(t *testing.T) {
	if v, err := Parse(" 1000 "); err != nil || v.String() != "1000" {
		t.Errorf("Parse(\" 1000 \") = %v, %v; want 1000, nil", v, err)
	}
	for _, bad := range []string{"", "-1", "1.5", "1e18", "0x10"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) error = nil, want error", bad)
		}
	}
}

func TestGroupThousands(t *testing.T) {
	tests := map[string]string{
		"1":       "1",
		"123":     "123",
		"1234":    "1,234",
		"123456":  "123,456",
		"1234567": "1,234,567",
	}
	for in, want := range tests {
		if got := groupThousands(in); got != want {
			t.Errorf("groupThousands(%q) = %q, want %q", in, got, want)
		}
	}
}
