package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

const feedBody = `{
  "timestamp": "2024-10-18 20:15:00",
  "data": {
    "current_price": 100,
    "options": [
      {"option": "SPXW241018C00100000", "gamma": 0.05, "open_interest": 1000, "volume": 200, "last_trade_time": "2024-10-18T15:59:00"},
      {"option": "SPXW241018P00095000", "gamma": 0.04, "open_interest": 500, "volume": 100, "last_trade_time": "2024-10-18T15:58:00"}
    ]
  }
}`

type testEnv struct {
	dir  string
	down atomic.Bool
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{dir: t.TempDir()}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.down.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path != "/_SPX" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedBody))
	}))
	t.Cleanup(upstream.Close)

	t.Setenv("GEXVIEW_FEED_BASE_URL", upstream.URL)
	t.Setenv("GEXVIEW_LOGGING_CONSOLE", "false")
	t.Setenv("GEXVIEW_LOGGING_FILE", "false")
	t.Setenv("GEXVIEW_STORE_PATH", filepath.Join(env.dir, "snapshots.db"))
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.dir, "--date", "241018"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_Version(t *testing.T) {
	env := setupEnv(t)
	out, err := env.run(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil || v["version"] != Version {
		t.Errorf("version output = %q", out)
	}
}

func TestCLI_ConfigPath(t *testing.T) {
	env := setupEnv(t)
	out, err := env.run(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.Join(env.dir, "config.toml") {
		t.Errorf("config path = %q", out)
	}
	if _, err := env.run(t, "config", "validate"); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestCLI_ChartText(t *testing.T) {
	env := setupEnv(t)
	out, err := env.run(t, "chart", "oi", "--width", "60", "--height", "12")
	if err != nil {
		t.Fatalf("chart: %v\n%s", err, out)
	}
	for _, want := range []string{"_SPX", "100.00", "Gamma exposure", "█", "Net +"} {
		if !strings.Contains(out, want) {
			t.Errorf("chart output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_ChartJSON(t *testing.T) {
	env := setupEnv(t)
	out, err := env.run(t, "chart", "vol", "--json", "--mode", "split")
	if err != nil {
		t.Fatal(err)
	}
	var snap struct {
		CurrentPrice float64 `json:"current_price"`
		Mode         string  `json:"mode"`
		Charts       map[string]struct {
			Series []json.RawMessage `json:"series"`
		} `json:"charts"`
	}
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if snap.CurrentPrice != 100 || snap.Mode != "split" {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Charts["vol"].Series) != 2 {
		t.Errorf("vol series = %d, want 2", len(snap.Charts["vol"].Series))
	}
}

func TestCLI_InvalidTab(t *testing.T) {
	env := setupEnv(t)
	if _, err := env.run(t, "chart", "delta"); err == nil {
		t.Error("expected an error for an unknown tab")
	}
}

func TestCLI_SummaryFallsBackToCache(t *testing.T) {
	env := setupEnv(t)
	if _, err := env.run(t, "summary"); err != nil {
		t.Fatal(err)
	}

	env.down.Store(true)
	out, err := env.run(t, "summary", "--json")
	if err != nil {
		t.Fatalf("summary with feed down: %v", err)
	}
	idx := strings.Index(out, "{")
	if idx < 0 {
		t.Fatalf("no JSON in output: %q", out)
	}
	var body struct {
		CurrentPrice float64 `json:"current_price"`
	}
	if err := json.Unmarshal([]byte(out[idx:]), &body); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if body.CurrentPrice != 100 {
		t.Errorf("cached price = %v", body.CurrentPrice)
	}
}

func TestCLI_FeedDownWithoutCache(t *testing.T) {
	env := setupEnv(t)
	t.Setenv("GEXVIEW_STORE_ENABLED", "false")
	env.down.Store(true)
	if _, err := env.run(t, "summary"); err == nil {
		t.Error("expected a feed error")
	}
}

func TestCLI_CacheListAndClear(t *testing.T) {
	env := setupEnv(t)
	if _, err := env.run(t, "summary"); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "cache", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var entries []struct {
		Ticker       string  `json:"ticker"`
		CurrentPrice float64 `json:"current_price"`
		Options      int     `json:"options"`
	}
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].Ticker != "_SPX" || entries[0].CurrentPrice != 100 || entries[0].Options != 2 {
		t.Errorf("cache list = %+v", entries)
	}

	if out, err := env.run(t, "cache", "clear"); err != nil || !strings.Contains(out, "_SPX") {
		t.Fatalf("cache clear = %q, %v", out, err)
	}
	out, err = env.run(t, "cache", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("cache list after clear = %q", out)
	}

	env.down.Store(true)
	if _, err := env.run(t, "summary"); err == nil {
		t.Error("summary succeeded with the feed down and an empty cache")
	}
}

func TestCLI_CacheDisabled(t *testing.T) {
	env := setupEnv(t)
	t.Setenv("GEXVIEW_STORE_ENABLED", "false")
	if _, err := env.run(t, "cache", "list"); err == nil {
		t.Error("cache list succeeded with the cache disabled")
	}
}
