package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var testTickers = []string{"_SPX", "_NDX", "SPY", "QQQ", "_RUT"}

func TestProperty_AllSubscribersReceiveEvents(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("fast subscribers receive every event", prop.ForAll(
		func(subscriberCount int, eventCount int, tickerIdx int) bool {
			ticker := testTickers[tickerIdx]

			hub := NewHubWithConfig(HubConfig{
				BufferSize:           1000,
				SubscriberBufferSize: 100,
			})
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			hub.Start(ctx)
			defer hub.Stop()

			var wg sync.WaitGroup
			counts := make([]int64, subscriberCount)
			for i := 0; i < subscriberCount; i++ {
				ch := hub.Subscribe(ticker)
				wg.Add(1)
				go func(idx int, ch <-chan Event) {
					defer wg.Done()
					timeout := time.After(5 * time.Second)
					for {
						select {
						case _, ok := <-ch:
							if !ok {
								return
							}
							if atomic.AddInt64(&counts[idx], 1) >= int64(eventCount) {
								return
							}
						case <-timeout:
							return
						}
					}
				}(i, ch)
			}

			for i := 0; i < eventCount; i++ {
				hub.Publish(NewEvent(EventDashboardUpdate, ticker, uint64(i+1), nil))
				time.Sleep(time.Millisecond)
			}
			wg.Wait()

			for i := range counts {
				if atomic.LoadInt64(&counts[i]) != int64(eventCount) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
		gen.IntRange(1, 20),
		gen.IntRange(0, len(testTickers)-1),
	))

	properties.TestingRun(t)
}

func TestProperty_SlowSubscribersDoNotBlockOthers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("a subscriber that never reads does not stall delivery", prop.ForAll(
		func(tickerIdx int) bool {
			ticker := testTickers[tickerIdx]
			hub := NewHubWithConfig(HubConfig{
				BufferSize:           100,
				SubscriberBufferSize: 5,
			})
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			hub.Start(ctx)
			defer hub.Stop()

			fast := hub.Subscribe(ticker)
			_ = hub.Subscribe(ticker)

			var received int64
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				timeout := time.After(2 * time.Second)
				for {
					select {
					case _, ok := <-fast:
						if !ok {
							return
						}
						if atomic.AddInt64(&received, 1) >= 10 {
							return
						}
					case <-timeout:
						return
					}
				}
			}()

			for i := 0; i < 20; i++ {
				hub.Publish(NewEvent(EventDashboardUpdate, ticker, uint64(i+1), nil))
			}
			wg.Wait()
			return atomic.LoadInt64(&received) > 0
		},
		gen.IntRange(0, len(testTickers)-1),
	))

	properties.TestingRun(t)
}

func TestProperty_EventsRoutedByTicker(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("subscribers only see their ticker", prop.ForAll(
		func(subIdx, pubIdx int) bool {
			subscribed, published := testTickers[subIdx], testTickers[pubIdx]

			hub := NewHub()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			hub.Start(ctx)
			defer hub.Stop()

			ch := hub.Subscribe(subscribed)
			hub.Publish(NewEvent(EventDashboardUpdate, published, 1, nil))

			select {
			case ev := <-ch:
				return ev.Ticker == subscribed && subscribed == published
			case <-time.After(200 * time.Millisecond):
				return subscribed != published
			}
		},
		gen.IntRange(0, len(testTickers)-1),
		gen.IntRange(0, len(testTickers)-1),
	))

	properties.TestingRun(t)
}

func TestHub_ConsumersAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)
	defer hub.Stop()

	got := make(chan Event, 1)
	consumer := NewConsumerFunc([]string{"_SPX"}, func(ev Event) { got <- ev })
	hub.RegisterConsumer(consumer)

	hub.Publish(NewEvent(EventRefreshError, "_NDX", 0, "ignored"))
	hub.Publish(NewEvent(EventRefreshError, "_SPX", 0, "boom"))
	select {
	case ev := <-got:
		if ev.Ticker != "_SPX" || ev.Data != "boom" || ev.ID == "" {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("consumer not notified")
	}

	ch := hub.Subscribe("_SPX")
	if hub.SubscriberCount("_SPX") != 1 {
		t.Fatalf("SubscriberCount = %d", hub.SubscriberCount("_SPX"))
	}
	hub.Unsubscribe("_SPX", ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	if hub.TotalSubscriberCount() != 0 {
		t.Errorf("TotalSubscriberCount = %d", hub.TotalSubscriberCount())
	}
	if m := hub.Metrics(); m.EventsReceived < 2 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestHub_SlowSubscriberDropsCounted(t *testing.T) {
	hub := NewHubWithConfig(HubConfig{BufferSize: 64, SubscriberBufferSize: 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)
	defer hub.Stop()

	_ = hub.Subscribe("_SPX")
	if !hub.IsStarted() {
		t.Fatal("hub not started")
	}
	for i := 0; i < 10; i++ {
		hub.Publish(NewEvent(EventDashboardUpdate, "_SPX", uint64(i+1), nil))
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m := hub.Metrics(); m.EventsBroadcast+m.EventsDropped == 10 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.mu.RLock()
	dropped := hub.subscribers["_SPX"][0].Dropped.Load()
	hub.mu.RUnlock()
	if dropped != 8 {
		t.Errorf("subscriber dropped = %d, want 8", dropped)
	}
	if m := hub.Metrics(); m.EventsDropped != 8 || m.EventsBroadcast != 2 {
		t.Errorf("metrics = %+v", m)
	}
}
