package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	buf.Reset()
	return m
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"bogus": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := WithTab(WithTicker(zerolog.New(&buf), "_SPX"), "oi")

	ctx := WithLogger(context.Background(), logger)
	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("hello")
	m := decodeLine(t, &buf)
	if m["ticker"] != "_SPX" || m["tab"] != "oi" {
		t.Errorf("fields = %v", m)
	}

	// Without a logger in the context a no-op logger is returned.
	nop := FromContext(context.Background())
	nop.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("no-op logger wrote %q", buf.String())
	}
}

func TestLogRefresh(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	LogRefresh(logger, 3, 5800.5, 1200, true, 150*time.Millisecond)
	m := decodeLine(t, &buf)
	if m["level"] != "info" || m["seq"] != float64(3) || m["message"] != "Refresh applied" {
		t.Errorf("applied entry = %v", m)
	}

	LogRefresh(logger, 2, 5800.5, 1200, false, time.Millisecond)
	m = decodeLine(t, &buf)
	if m["level"] != "debug" || m["message"] != "Stale refresh discarded" {
		t.Errorf("discarded entry = %v", m)
	}

	LogAPICall(logger, "GET", "http://example/_SPX", time.Millisecond, errors.New("boom"))
	m = decodeLine(t, &buf)
	if m["error"] != "boom" || m["event"] != "api_call" {
		t.Errorf("api entry = %v", m)
	}
}
