package models

import "time"

// OptionContract represents a single parsed contract from the quote feed.
type OptionContract struct {
	Symbol        string
	Type          OptionType
	Strike        int // whole-dollar strike; 0 when the symbol did not parse
	Gamma         float64
	Volume        float64
	OpenInterest  float64
	LastTradeTime *time.Time
}

// Bucketable reports whether the contract can be placed on a strike grid.
func (c OptionContract) Bucketable() bool {
	return c.Type != OptionTypeUnknown && c.Strike > 0
}

// ExposureRecord is an OptionContract with its derived dealer exposure.
type ExposureRecord struct {
	OptionContract
	GammaExposure float64
	VegaExposure  float64
}

// Value returns the exposure selected by field.
func (r ExposureRecord) Value(field Field) float64 {
	if field == FieldVega {
		return r.VegaExposure
	}
	return r.GammaExposure
}
