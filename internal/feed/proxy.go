package feed

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ProxyConfig configures the relay.
type ProxyConfig struct {
	Upstream      string // base URL; "<ticker>.json" is appended
	DefaultTicker string
	CacheMaxAge   int // seconds
	Timeout       time.Duration
	Rate          float64 // requests per second per client; 0 disables limiting
	Burst         int
}

// DefaultProxyConfig returns the relay defaults.
func DefaultProxyConfig() ProxyConfig {
	return ProxyConfig{
		Upstream:      DefaultUpstream,
		DefaultTicker: DefaultTicker,
		CacheMaxAge:   30,
		Timeout:       15 * time.Second,
		Rate:          2,
		Burst:         10,
	}
}

// Proxy relays GET /<ticker> to the upstream with permissive CORS headers.
type Proxy struct {
	cfg        ProxyConfig
	httpClient *http.Client
	limiter    *KeyedLimiter
	logger     zerolog.Logger
}

// NewProxy creates a relay.
func NewProxy(cfg ProxyConfig, logger zerolog.Logger) *Proxy {
	if cfg.DefaultTicker == "" {
		cfg.DefaultTicker = DefaultTicker
	}
	p := &Proxy{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "proxy").Logger(),
	}
	if cfg.Rate > 0 {
		p.limiter = NewKeyedLimiter(cfg.Rate, cfg.Burst, 10*time.Minute)
	}
	return p
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := w.Header()

	if r.Method == http.MethodOptions {
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ticker := strings.TrimPrefix(r.URL.Path, "/")
	if ticker == "" {
		ticker = p.cfg.DefaultTicker
	}
	if !tickerPattern.MatchString(ticker) {
		http.Error(w, "Invalid ticker", http.StatusBadRequest)
		return
	}

	h.Set("Access-Control-Allow-Origin", "*")

	if p.limiter != nil && !p.limiter.Allow(clientKey(r)) {
		h.Set("Retry-After", "1")
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	log := p.logger.With().Str("ticker", ticker).Logger()
	url := strings.TrimRight(p.cfg.Upstream, "/") + "/" + ticker + ".json"

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		http.Error(w, "Proxy error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Upstream request failed")
		http.Error(w, "Proxy error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Info().Int("status", resp.StatusCode).Msg("Upstream returned an error")
		http.Error(w, fmt.Sprintf("CBOE returned %d", resp.StatusCode), resp.StatusCode)
		return
	}

	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "public, max-age="+strconv.Itoa(p.cfg.CacheMaxAge))
	w.WriteHeader(http.StatusOK)
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		log.Debug().Err(err).Msg("Relay copy interrupted")
		return
	}
	log.Debug().Int64("bytes", n).Dur("duration", time.Since(start)).Msg("Relayed snapshot")
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
