// Package gex derives dealer gamma and vega exposure from an options chain
// snapshot and aggregates it onto a strike grid.
package gex

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"gexview/internal/errors"
	"gexview/internal/models"
	"gexview/pkg/utils"
)

// OCC style symbols: <root><YYMMDD><C|P><strike x 1000, 8 digits>.
var (
	typePattern   = regexp.MustCompile(`\d([CP])\d`)
	strikePattern = regexp.MustCompile(`\d[CP](\d+)\d{3}`)
)

var lastTradeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseContract turns a raw feed record into an OptionContract.
// Missing numeric fields become zero. When the symbol does not carry both a
// type and a strike the contract is still returned, with the unparsed parts
// left empty, together with a *errors.ParseError.
func ParseContract(raw models.RawOption) (models.OptionContract, error) {
	c := models.OptionContract{
		Symbol:        raw.Option,
		Type:          parseType(raw.Option),
		Strike:        parseStrike(raw.Option),
		Gamma:         valueOrZero(raw.Gamma),
		Volume:        valueOrZero(raw.Volume),
		OpenInterest:  valueOrZero(raw.OpenInterest),
		LastTradeTime: parseLastTrade(raw.LastTradeTime),
	}
	if !c.Bucketable() {
		return c, errors.NewParseError(raw.Option)
	}
	return c, nil
}

func parseType(symbol string) models.OptionType {
	m := typePattern.FindStringSubmatch(symbol)
	if m == nil {
		return models.OptionTypeUnknown
	}
	return models.OptionType(m[1])
}

// parseStrike keeps the whole-dollar part of the encoded strike; fractional
// strikes are truncated.
func parseStrike(symbol string) int {
	m := strikePattern.FindStringSubmatch(symbol)
	if m == nil {
		return 0
	}
	strike, err := strconv.Atoi(m[1])
	if err != nil || strike < 0 {
		return 0
	}
	return strike
}

func parseLastTrade(s *string) *time.Time {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	for _, layout := range lastTradeLayouts {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(*s), utils.EasternLocation); err == nil {
			return &t
		}
	}
	return nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// SymbolRoot returns the option root for a feed ticker ("_SPX" -> "SPX").
func SymbolRoot(ticker string) string {
	return strings.Replace(ticker, "_", "", 1)
}

// IsFrontCycle reports whether symbol expires on the session identified by
// dateCode (YYMMDD). Both the weekly ("SPXW241018...") and the standard
// ("SPX241018...") roots match. An empty dateCode never matches.
func IsFrontCycle(symbol, ticker, dateCode string) bool {
	if dateCode == "" {
		return false
	}
	root := SymbolRoot(ticker)
	return strings.HasPrefix(symbol, root+"W"+dateCode) || strings.HasPrefix(symbol, root+dateCode)
}
