package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# gexview configuration
# Every key can be overridden with GEXVIEW_<SECTION>_<KEY>, e.g. GEXVIEW_FEED_TICKER.

[feed]
# Delayed quotes endpoint; the ticker and ".json" are appended
base_url = "https://cdn.cboe.com/api/global/delayed_quotes/options"
# Underlying ticker (_SPX, _NDX, SPY, ...)
ticker = "_SPX"
# Expiry to treat as front cycle, YYMMDD. Empty uses the current trading day.
date = ""
timeout = "15s"

[refresh]
interval = "60s"
auto_fetch = true
# Drop a refresh that completes after a newer one was applied
discard_stale = true

[chart]
# Display mode: "net" or "split"
mode = "net"
# Initial tab: "oi" (gamma) or "vol" (vega)
tab = "oi"
width = 100
height = 24
positive_color = "#26a69a"
negative_color = "#ef5350"
price_color = "#f5c542"

[server]
addr = "127.0.0.1:8080"
cors_origins = ["*"]

[proxy]
addr = "127.0.0.1:8787"
upstream = "https://cdn.cboe.com/api/global/delayed_quotes/options"
# Requests per second per client, and burst size
rate = 2.0
burst = 10
cache_max_age = "30s"

[store]
# Keep the last snapshot per ticker for warm start
enabled = true
path = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
file_path = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	path := filepath.Join(configDir, "config.toml")
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
