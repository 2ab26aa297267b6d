package models

// QuoteFeed is the delayed-quotes snapshot returned by the feed.
type QuoteFeed struct {
	Timestamp string    `json:"timestamp"` // "YYYY-MM-DD HH:MM:SS", UTC
	Symbol    string    `json:"symbol,omitempty"`
	Data      QuoteData `json:"data"`
}

// QuoteData carries the underlying price and the option records.
type QuoteData struct {
	CurrentPrice float64     `json:"current_price"`
	Options      []RawOption `json:"options"`
}

// RawOption is one option record as delivered by the feed.
// Numeric fields are nullable upstream.
type RawOption struct {
	Option        string   `json:"option"`
	Gamma         *float64 `json:"gamma"`
	Volume        *float64 `json:"volume"`
	OpenInterest  *float64 `json:"open_interest"`
	LastTradeTime *string  `json:"last_trade_time"`
}
