package models

// StrikeValue is an aggregated value at a strike, in billions.
type StrikeValue struct {
	Strike int     `json:"strike"`
	Value  float64 `json:"value"`
}

// AggregateSeries holds aggregated exposure for one field.
// Net is set in net mode; Calls and Puts in split mode.
type AggregateSeries struct {
	Mode  Mode          `json:"mode"`
	Net   []StrikeValue `json:"net,omitempty"`
	Calls []StrikeValue `json:"calls,omitempty"`
	Puts  []StrikeValue `json:"puts,omitempty"`
}

// Sides returns the series in render order: [net] or [calls, puts].
func (s AggregateSeries) Sides() [][]StrikeValue {
	if s.Mode == ModeSplit {
		return [][]StrikeValue{s.Calls, s.Puts}
	}
	return [][]StrikeValue{s.Net}
}

// NetSummary totals signed exposure around the current price.
type NetSummary struct {
	Total float64 `json:"total"`
	Below float64 `json:"below"`
	Above float64 `json:"above"`
}

// SplitSummary totals absolute exposure per side.
type SplitSummary struct {
	Calls float64 `json:"calls"`
	Puts  float64 `json:"puts"`
}

// FieldSummary is the legend data for one field under one mode.
type FieldSummary struct {
	Net   *NetSummary   `json:"net,omitempty"`
	Split *SplitSummary `json:"split,omitempty"`
}

// Summary is the legend data for both tabs.
type Summary struct {
	Mode  Mode         `json:"mode"`
	Gamma FieldSummary `json:"gex"`
	Vega  FieldSummary `json:"vex"`
}
