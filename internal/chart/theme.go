package chart

// Theme holds the colors used for bars and the price marker.
type Theme struct {
	Positive  string
	Negative  string
	PriceLine string
}

// DefaultTheme returns the default color scheme.
func DefaultTheme() Theme {
	return Theme{
		Positive:  "#26a69a",
		Negative:  "#ef5350",
		PriceLine: "#f5c542",
	}
}
