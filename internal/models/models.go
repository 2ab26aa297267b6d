// Package models provides domain models for the exposure dashboard.
package models

// OptionType represents the side of an option contract.
type OptionType string

const (
	OptionTypeCall    OptionType = "C"
	OptionTypePut     OptionType = "P"
	OptionTypeUnknown OptionType = "" // symbol did not match the OCC pattern
)

// Mode selects how exposure is displayed.
type Mode string

const (
	ModeNet   Mode = "net"   // one signed series per strike
	ModeSplit Mode = "split" // calls and puts as separate magnitude series
)

// ParseMode parses a display mode. "calls-puts" is accepted as an alias for split.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "net":
		return ModeNet, true
	case "split", "calls-puts", "callsputs":
		return ModeSplit, true
	default:
		return "", false
	}
}

// SeriesCount returns how many value series the mode renders.
func (m Mode) SeriesCount() int {
	if m == ModeSplit {
		return 2
	}
	return 1
}

// Field selects which exposure metric is aggregated.
type Field string

const (
	FieldGamma Field = "gex" // open interest weighted
	FieldVega  Field = "vex" // volume weighted
)

// Tab identifies a dashboard chart.
type Tab string

const (
	TabOpenInterest Tab = "oi"
	TabVolume       Tab = "vol"
)

// Field returns the exposure field the tab displays.
func (t Tab) Field() Field {
	if t == TabVolume {
		return FieldVega
	}
	return FieldGamma
}

// ParseTab parses a tab name.
func ParseTab(s string) (Tab, bool) {
	switch s {
	case "oi":
		return TabOpenInterest, true
	case "vol":
		return TabVolume, true
	default:
		return "", false
	}
}

// Tabs lists every dashboard tab in display order.
var Tabs = []Tab{TabOpenInterest, TabVolume}
