package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gexview/internal/errors"
	"gexview/internal/models"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// Cooldown is how long the circuit stays open before one probe is let through.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the fetch breaker defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         2 * time.Minute,
	}
}

// Snapshotter fetches a snapshot for a ticker. *Client implements it.
type Snapshotter interface {
	Fetch(ctx context.Context, ticker string) (*models.QuoteFeed, error)
}

// Breaker stops calling the upstream after repeated failures. While open,
// Fetch fails fast with a FeedError; after Cooldown a single probe decides
// whether to close again.
type Breaker struct {
	next   Snapshotter
	config BreakerConfig
	logger zerolog.Logger
	now    func() time.Time

	mu          sync.Mutex
	state       CircuitState
	failures    int
	openedAt    time.Time
	probing     bool
	rejected    int64
	lastFailure error
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Snapshotter, config BreakerConfig, logger zerolog.Logger) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	return &Breaker{
		next:   next,
		config: config,
		logger: logger.With().Str("component", "breaker").Logger(),
		now:    time.Now,
		state:  CircuitClosed,
	}
}

// Fetch implements Snapshotter.
func (b *Breaker) Fetch(ctx context.Context, ticker string) (*models.QuoteFeed, error) {
	if err := b.allow(ticker); err != nil {
		return nil, err
	}

	feed, err := b.next.Fetch(ctx, ticker)
	switch {
	case err == nil:
		b.recordSuccess()
	case errors.Is(err, context.Canceled):
		b.release()
	default:
		b.recordFailure(err)
	}
	return feed, err
}

func (b *Breaker) allow(ticker string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitOpen:
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			b.rejected++
			return errors.NewFeedError(ticker, 0, "circuit open after repeated failures", b.lastFailure)
		}
		b.transitionTo(CircuitHalfOpen)
		b.probing = true
		return nil
	case CircuitHalfOpen:
		if b.probing {
			b.rejected++
			return errors.NewFeedError(ticker, 0, "circuit half-open, probe in flight", b.lastFailure)
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) release() {
	b.mu.Lock()
	b.probing = false
	b.mu.Unlock()
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	b.failures = 0
	if b.state != CircuitClosed {
		b.transitionTo(CircuitClosed)
	}
}

func (b *Breaker) recordFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	b.lastFailure = err

	switch b.state {
	case CircuitClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		b.transitionTo(CircuitOpen)
	}
}

// transitionTo must be called with mu held.
func (b *Breaker) transitionTo(state CircuitState) {
	b.logger.Info().Str("from", string(b.state)).Str("to", string(state)).Int("failures", b.failures).Msg("Circuit state change")
	b.state = state
	b.failures = 0
	if state == CircuitOpen {
		b.openedAt = b.now()
	}
}

// BreakerStats reports the breaker state.
type BreakerStats struct {
	State    CircuitState `json:"state"`
	Failures int          `json:"failures"`
	Rejected int64        `json:"rejected"`
}

// Stats returns the current breaker statistics.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{State: b.state, Failures: b.failures, Rejected: b.rejected}
}
