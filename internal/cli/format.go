package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gexview/internal/errors"
	"gexview/pkg/utils"
)

// FormatExposure formats a value in billions with sign and unit, e.g. "+1.23B".
// Magnitudes under a billion switch to millions.
func FormatExposure(billions float64) string {
	if math.IsNaN(billions) || math.IsInf(billions, 0) {
		return "n/a"
	}
	abs := math.Abs(billions)
	sign := "+"
	if billions < 0 {
		sign = "-"
	}
	if abs != 0 && abs < 0.01 {
		return fmt.Sprintf("%s%.2fM", sign, abs*1000)
	}
	return utils.FormatBillions(billions) + "B"
}

// FormatPrice formats an underlying price.
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.2f", price)
}

// FormatFeedTime renders a snapshot timestamp in US/Eastern.
func FormatFeedTime(ts string) string {
	return utils.FormatTimestamp(ts, utils.EasternLocation) + " ET"
}

// FormatClock formats a time as HH:MM:SS in US/Eastern.
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(utils.EasternLocation).Format("15:04:05") + " ET"
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// PadRight pads a string to the right.
func PadRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func errInvalidTab(s string) error {
	return errors.NewValidationError("tab", s, "must be 'oi' or 'vol'")
}
