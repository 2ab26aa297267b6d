package feed

import (
	"regexp"

	"gexview/internal/errors"
)

// DefaultTicker is used when a request or config names no ticker.
const DefaultTicker = "_SPX"

var tickerPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateTicker checks that ticker is safe to place in an upstream path.
func ValidateTicker(ticker string) error {
	if ticker == "" {
		return errors.NewValidationError("ticker", ticker, "ticker cannot be empty")
	}
	if len(ticker) > 20 {
		return errors.NewValidationError("ticker", ticker, "ticker too long (max 20 characters)")
	}
	if !tickerPattern.MatchString(ticker) {
		return errors.NewValidationError("ticker", ticker, "only letters, digits and underscore are allowed")
	}
	return nil
}
