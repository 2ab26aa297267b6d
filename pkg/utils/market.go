package utils

import (
	"time"
)

// EasternLocation is the timezone for US index options.
var EasternLocation *time.Location

func init() {
	var err error
	EasternLocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to EST
		EasternLocation = time.FixedZone("EST", -5*60*60)
	}
}

// TradingDay returns the session date for t: the same day on weekdays,
// the following Monday on weekends. Holidays are not considered.
func TradingDay(t time.Time) time.Time {
	d := t.In(EasternLocation)
	switch d.Weekday() {
	case time.Saturday:
		d = d.AddDate(0, 0, 2)
	case time.Sunday:
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, EasternLocation)
}

// TradingDayCode formats the trading day for t as the YYMMDD code used in
// option symbols.
func TradingDayCode(t time.Time) string {
	return TradingDay(t).Format("060102")
}
