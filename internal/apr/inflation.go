package apr

import (
	"fmt"
	"sort"
)

// YearSetting is one row of the yearly inflation table
type YearSetting struct {
	Year             int     `yaml:"year" json:"year"`
	MaximumInflation float64 `yaml:"maximum_inflation" json:"maximum_inflation"`
}

// InflationSchedule is an immutable year -> maximum inflation lookup.
// The zero value is an empty schedule.
type InflationSchedule struct {
	settings []YearSetting // sorted by Year, no duplicates
}

// NewInflationSchedule copies and sorts settings. Duplicate years and
// negative rates are rejected.
func NewInflationSchedule(settings []YearSetting) (InflationSchedule, error) {
	sorted := make([]YearSetting, len(settings))
	copy(sorted, settings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	for i, s := range sorted {
		if s.MaximumInflation < 0 {
			return InflationSchedule{}, fmt.Errorf("year %d: negative maximum inflation %v", s.Year, s.MaximumInflation)
		}
		if i > 0 && sorted[i-1].Year == s.Year {
			return InflationSchedule{}, fmt.Errorf("year %d: duplicate inflation setting", s.Year)
		}
	}
	return InflationSchedule{settings: sorted}, nil
}

// Rate returns the maximum inflation configured for year.
// A year with no entry yields 0; there is no clamping to the last year.
func (s InflationSchedule) Rate(year int) float64 {
	i := sort.Search(len(s.settings), func(i int) bool { return s.settings[i].Year >= year })
	if i < len(s.settings) && s.settings[i].Year == year {
		return s.settings[i].MaximumInflation
	}
	return 0
}

// Settings returns a copy of the table in year order
func (s InflationSchedule) Settings() []YearSetting {
	out := make([]YearSetting, len(s.settings))
	copy(out, s.settings)
	return out
}

// Len returns the number of configured years
func (s InflationSchedule) Len() int {
	return len(s.settings)
}
