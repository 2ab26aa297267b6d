package server

import (
	"fmt"
	"sync"
	"time"

	"gexview/internal/stream"
)

// RefreshStatus summarizes refresh outcomes seen on the stream.
type RefreshStatus struct {
	Failures    uint64     `json:"failures"`
	Consecutive uint64     `json:"consecutive_failures"`
	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
	LastSeq     uint64     `json:"last_seq,omitempty"`
}

// refreshTracker is a hub consumer that records refresh failures for
// /api/health. A dashboard update clears the consecutive count.
type refreshTracker struct {
	mu     sync.Mutex
	status RefreshStatus
}

func (t *refreshTracker) OnEvent(ev stream.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case stream.EventRefreshError:
		t.status.Failures++
		t.status.Consecutive++
		t.status.LastError = eventError(ev.Data)
		at := ev.Time
		t.status.LastErrorAt = &at
	case stream.EventDashboardUpdate:
		t.status.Consecutive = 0
		if ev.Seq > t.status.LastSeq {
			t.status.LastSeq = ev.Seq
		}
	}
}

func (t *refreshTracker) Status() RefreshStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func eventError(data interface{}) string {
	switch v := data.(type) {
	case map[string]string:
		return v["error"]
	case error:
		return v.Error()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
