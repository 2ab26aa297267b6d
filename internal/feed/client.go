// Package feed fetches delayed option chain snapshots and relays them to
// browsers that cannot call the upstream directly.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gexview/internal/errors"
	"gexview/internal/logging"
	"gexview/internal/models"
)

// DefaultUpstream is the CBOE delayed quotes endpoint. The ticker and
// ".json" are appended.
const DefaultUpstream = "https://cdn.cboe.com/api/global/delayed_quotes/options"

const maxErrorBody = 512

// Client fetches snapshots from a base URL of the form <base>/<ticker>.
type Client struct {
	baseURL    string
	suffix     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSuffix appends suffix to every request path (".json" for the raw
// upstream).
func WithSuffix(suffix string) ClientOption {
	return func(c *Client) { c.suffix = suffix }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a feed client.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "feed").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the request URL for ticker.
func (c *Client) URL(ticker string) string {
	return c.baseURL + "/" + ticker + c.suffix
}

// Fetch downloads and decodes the snapshot for ticker. Transport failures
// and non-2xx responses are returned as *errors.FeedError.
func (c *Client) Fetch(ctx context.Context, ticker string) (feed *models.QuoteFeed, err error) {
	url := c.URL(ticker)
	start := time.Now()
	defer func() {
		logging.LogAPICall(c.logger, http.MethodGet, url, time.Since(start), err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFeedError(ticker, 0, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewFeedError(ticker, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, errors.NewFeedError(ticker, resp.StatusCode, msg, nil)
	}

	var out models.QuoteFeed
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.NewFeedError(ticker, 0, "decode response", err)
	}
	if out.Data.Options == nil && out.Data.CurrentPrice == 0 {
		return nil, errors.NewFeedError(ticker, 0, "empty snapshot", fmt.Errorf("no data for %s", ticker))
	}
	return &out, nil
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
