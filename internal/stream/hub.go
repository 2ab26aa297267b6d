// Package stream distributes dashboard events to in-process consumers and
// websocket clients.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event types published by the dashboard.
const (
	EventDashboardUpdate = "dashboard.update"
	EventRefreshError    = "refresh.error"
)

// Event is one message on the hub. Ticker routes it to subscribers.
type Event struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"`
	Ticker string      `json:"ticker"`
	Seq    uint64      `json:"seq,omitempty"`
	Time   time.Time   `json:"time"`
	Data   interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with a fresh ID stamped with the current time.
func NewEvent(eventType, ticker string, seq uint64, data interface{}) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   eventType,
		Ticker: ticker,
		Seq:    seq,
		Time:   time.Now().UTC(),
		Data:   data,
	}
}

// HubConfig holds configuration for the Hub.
type HubConfig struct {
	// BufferSize is the size of the internal event channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           256,
		SubscriberBufferSize: 16,
	}
}

// Hub fans events out to subscribers keyed by ticker.
type Hub struct {
	config      HubConfig
	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
	events      chan Event
	done        chan struct{}
	started     bool
	consumers   []Consumer
	consumersMu sync.RWMutex

	// Metrics
	eventsReceived  uint64
	eventsBroadcast uint64
	eventsDropped   uint64
	metricsMu       sync.RWMutex
}

// Subscriber represents a channel subscriber with metadata.
type Subscriber struct {
	ID        string
	Channel   chan Event
	Dropped   atomic.Uint64 // events skipped because Channel was full
	CreatedAt time.Time
}

// NewHub creates a new hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a new hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[string][]*Subscriber),
		events:      make(chan Event, config.BufferSize),
		done:        make(chan struct{}),
		consumers:   make([]Consumer, 0),
	}
}

// Start begins the distribution loop.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return nil
	}
	h.started = true
	h.done = make(chan struct{})

	go h.broadcastLoop(ctx, h.done)
	return nil
}

func (h *Hub) broadcastLoop(ctx context.Context, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case ev := <-h.events:
			h.metricsMu.Lock()
			h.eventsReceived++
			h.metricsMu.Unlock()

			h.broadcast(ev)
			h.notifyConsumers(ev)
		}
	}
}

// Stop stops the hub and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}

	close(h.done)
	h.started = false

	for ticker, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
		delete(h.subscribers, ticker)
	}
}

// Subscribe adds a subscriber for ticker with a generated ID.
func (h *Hub) Subscribe(ticker string) <-chan Event {
	return h.SubscribeWithID(ticker, uuid.NewString())
}

// SubscribeWithID adds a subscriber with a specific ID for ticker.
func (h *Hub) SubscribeWithID(ticker, id string) <-chan Event {
	ch := make(chan Event, h.config.SubscriberBufferSize)
	sub := &Subscriber{
		ID:        id,
		Channel:   ch,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[ticker] = append(h.subscribers[ticker], sub)
	h.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel for ticker and closes it.
func (h *Hub) Unsubscribe(ticker string, ch <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[ticker]
	for i, sub := range subs {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subscribers[ticker] = append(subs[:i], subs[i+1:]...)
			break
		}
	}

	if len(h.subscribers[ticker]) == 0 {
		delete(h.subscribers, ticker)
	}
}

// Publish queues an event for distribution. It never blocks; when the
// internal buffer is full the event is dropped.
func (h *Hub) Publish(ev Event) {
	select {
	case h.events <- ev:
	default:
		h.metricsMu.Lock()
		h.eventsDropped++
		h.metricsMu.Unlock()
	}
}

// broadcast sends an event to every subscriber of its ticker without
// blocking on slow consumers.
func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers[ev.Ticker] {
		select {
		case sub.Channel <- ev:
			h.metricsMu.Lock()
			h.eventsBroadcast++
			h.metricsMu.Unlock()
		default:
			sub.Dropped.Add(1)
			h.metricsMu.Lock()
			h.eventsDropped++
			h.metricsMu.Unlock()
		}
	}
}

// SubscriberCount returns the number of subscribers for ticker.
func (h *Hub) SubscriberCount(ticker string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[ticker])
}

// TotalSubscriberCount returns the number of subscribers across tickers.
func (h *Hub) TotalSubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, subs := range h.subscribers {
		count += len(subs)
	}
	return count
}

// Metrics returns hub metrics.
func (h *Hub) Metrics() HubMetrics {
	h.metricsMu.RLock()
	m := HubMetrics{
		EventsReceived:  h.eventsReceived,
		EventsBroadcast: h.eventsBroadcast,
		EventsDropped:   h.eventsDropped,
	}
	h.metricsMu.RUnlock()

	m.Subscribers = h.TotalSubscriberCount()
	return m
}

// HubMetrics contains hub counters.
type HubMetrics struct {
	EventsReceived  uint64 `json:"events_received"`
	EventsBroadcast uint64 `json:"events_broadcast"`
	EventsDropped   uint64 `json:"events_dropped"`
	Subscribers     int    `json:"subscribers"`
}

// IsStarted returns whether the hub is running.
func (h *Hub) IsStarted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}

// Consumer processes events in-process.
type Consumer interface {
	// OnEvent is called for each event.
	OnEvent(ev Event)
	// Tickers returns the tickers this consumer wants. Empty means all.
	Tickers() []string
}

// RegisterConsumer adds a consumer. Each delivery runs on its own goroutine.
func (h *Hub) RegisterConsumer(consumer Consumer) {
	h.consumersMu.Lock()
	h.consumers = append(h.consumers, consumer)
	h.consumersMu.Unlock()
}

func (h *Hub) notifyConsumers(ev Event) {
	h.consumersMu.RLock()
	consumers := make([]Consumer, len(h.consumers))
	copy(consumers, h.consumers)
	h.consumersMu.RUnlock()

	for _, consumer := range consumers {
		tickers := consumer.Tickers()
		if len(tickers) == 0 || contains(tickers, ev.Ticker) {
			go consumer.OnEvent(ev)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc struct {
	tickers []string
	fn      func(Event)
}

// NewConsumerFunc creates a new ConsumerFunc.
func NewConsumerFunc(tickers []string, fn func(Event)) *ConsumerFunc {
	return &ConsumerFunc{tickers: tickers, fn: fn}
}

// OnEvent implements Consumer.
func (c *ConsumerFunc) OnEvent(ev Event) {
	if c.fn != nil {
		c.fn(ev)
	}
}

// Tickers implements Consumer.
func (c *ConsumerFunc) Tickers() []string {
	return c.tickers
}
