// Package denominate scales raw on-chain integer amounts into token units
// for display and for the floating-point reward model.
package denominate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse parses a raw on-chain integer magnitude (base-10, no fraction, no sign)
func Parse(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return decimal.Zero, fmt.Errorf("invalid amount %q: not a non-negative integer", raw)
		}
	}
	return decimal.NewFromString(raw)
}

// Format scales input down by 10^denomination and renders it with the
// given number of fractional digits. Digits past decimals are cut, never
// rounded. With showLastNonZeroDecimal the fraction is extended up to its
// last non-zero digit instead. With addCommas the integer part is grouped
// in thousands.
//
// Example: Format("1234567800000000000000", 18, 4, false, true) → "1,234.5678"
func Format(input string, denomination, decimals int, showLastNonZeroDecimal, addCommas bool) (string, error) {
	if denomination < 0 || decimals < 0 {
		return "", fmt.Errorf("invalid precision: denomination=%d decimals=%d", denomination, decimals)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", input, err)
	}

	scaled := d.Shift(-int32(denomination))
	negative := scaled.Sign() < 0

	intPart, frac, _ := strings.Cut(scaled.Abs().String(), ".")
	switch {
	case showLastNonZeroDecimal && len(frac) >= decimals:
		// keep every significant digit
	case len(frac) > decimals:
		frac = frac[:decimals]
	default:
		frac += strings.Repeat("0", decimals-len(frac))
	}

	if addCommas {
		intPart = groupThousands(intPart)
	}

	out := intPart
	if frac != "" {
		out += "." + frac
	}
	if negative && strings.Trim(out, "0.,") != "" {
		out = "-" + out
	}
	return out, nil
}

// Magnitude returns the whole-token magnitude of a raw amount: the
// formatted value with grouping separators stripped, truncated toward
// zero. Callers downgrade the result to float64 for the reward model,
// accepting the precision loss from that point on.
func Magnitude(input string, denomination, decimals int) (decimal.Decimal, error) {
	s, err := Format(input, denomination, decimals, true, true)
	if err != nil {
		return decimal.Zero, err
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse denominated %q: %w", s, err)
	}
	return v.Truncate(0), nil
}

// groupThousands inserts ',' every three digits from the right
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
