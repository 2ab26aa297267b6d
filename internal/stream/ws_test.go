package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func TestWSHandler_StreamsEvents(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)
	defer hub.Stop()

	initial := func() (Event, bool) {
		return NewEvent(EventDashboardUpdate, "_SPX", 7, map[string]int{"hello": 1}), true
	}
	srv := httptest.NewServer(NewWSHandler(hub, "_SPX", initial, zerolog.Nop()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() Event {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return ev
	}

	if ev := read(); ev.Seq != 7 || ev.Type != EventDashboardUpdate {
		t.Errorf("initial event = %+v", ev)
	}

	deadline := time.Now().Add(time.Second)
	for hub.SubscriberCount("_SPX") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	hub.Publish(NewEvent(EventDashboardUpdate, "_SPX", 8, nil))
	if ev := read(); ev.Seq != 8 {
		t.Errorf("streamed event seq = %d, want 8", ev.Seq)
	}
}
