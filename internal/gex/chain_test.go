package gex

import (
	"encoding/json"
	"testing"

	"gexview/internal/models"
)

const chainFixture = `{
  "timestamp": "2024-10-18 20:15:00",
  "data": {
    "current_price": 100,
    "options": [
      {"option": "SPXW241018C00100000", "gamma": 0.05, "open_interest": 1000, "volume": 200, "last_trade_time": "2024-10-18T15:59:58"},
      {"option": "SPXW241018P00095000", "gamma": 0.04, "open_interest": 500, "volume": 100, "last_trade_time": "2024-10-18T15:30:00"},
      {"option": "SPXW241025C00100000", "gamma": 0.05, "open_interest": 9000, "volume": 900},
      {"option": "SPX241018C00130000", "gamma": 0.01, "open_interest": 1000, "volume": null},
      {"option": "BROKEN", "gamma": 1, "open_interest": 1, "volume": 1}
    ]
  }
}`

func loadChain(t *testing.T) *Chain {
	t.Helper()
	var feed models.QuoteFeed
	if err := json.Unmarshal([]byte(chainFixture), &feed); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	return NewChain(&feed, "_SPX", "241018")
}

func TestNewChain(t *testing.T) {
	c := loadChain(t)
	if c.CurrentPrice != 100 {
		t.Errorf("CurrentPrice = %v", c.CurrentPrice)
	}
	if len(c.Records) != 5 {
		t.Errorf("Records = %d, want 5", len(c.Records))
	}
	if len(c.FrontCycle) != 3 {
		t.Errorf("FrontCycle = %d, want 3", len(c.FrontCycle))
	}
	if c.Unparsed != 1 {
		t.Errorf("Unparsed = %d, want 1", c.Unparsed)
	}

	g, err := c.Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	if g.Len() != 41 {
		t.Errorf("grid length = %d, want 41", g.Len())
	}
}

func TestChain_StrikeData(t *testing.T) {
	c := loadChain(t)

	gex := c.StrikeData(models.FieldGamma, models.ModeNet)
	want := []models.StrikeValue{{Strike: 95, Value: -0.0002}, {Strike: 100, Value: 0.0005}}
	if len(gex.Net) != len(want) {
		t.Fatalf("gex net = %+v, want %+v", gex.Net, want)
	}
	for i := range want {
		if gex.Net[i].Strike != want[i].Strike || !approxEqual(gex.Net[i].Value, want[i].Value) {
			t.Errorf("gex net[%d] = %+v, want %+v", i, gex.Net[i], want[i])
		}
	}

	vex := c.StrikeData(models.FieldVega, models.ModeSplit)
	if len(vex.Calls) != 1 || !approxEqual(vex.Calls[0].Value, 0.0001) {
		t.Errorf("vex calls = %+v", vex.Calls)
	}
	if len(vex.Puts) != 1 || !approxEqual(vex.Puts[0].Value, -0.00004) {
		t.Errorf("vex puts = %+v", vex.Puts)
	}
}

func TestChain_Summary(t *testing.T) {
	c := loadChain(t)

	net := c.Summary(models.ModeNet)
	if net.Gamma.Net == nil || net.Gamma.Split != nil {
		t.Fatalf("net summary shape: %+v", net.Gamma)
	}
	// The 130 call sits outside the chart window but still counts here.
	if !approxEqual(net.Gamma.Net.Total, 0.0004) {
		t.Errorf("total = %v, want 0.0004", net.Gamma.Net.Total)
	}
	if !approxEqual(net.Gamma.Net.Below, -0.0002) {
		t.Errorf("below = %v, want -0.0002", net.Gamma.Net.Below)
	}
	if !approxEqual(net.Gamma.Net.Above, 0.0006) {
		t.Errorf("above = %v, want 0.0006", net.Gamma.Net.Above)
	}

	split := c.Summary(models.ModeSplit)
	if split.Vega.Split == nil {
		t.Fatal("missing split summary")
	}
	if !approxEqual(split.Gamma.Split.Calls, 0.0006) || !approxEqual(split.Gamma.Split.Puts, 0.0002) {
		t.Errorf("gex split = %+v", split.Gamma.Split)
	}
	if !approxEqual(split.Vega.Split.Puts, 0.00004) {
		t.Errorf("vex puts = %v", split.Vega.Split.Puts)
	}
}

func TestChain_LastTradeTime(t *testing.T) {
	c := loadChain(t)
	last := c.LastTradeTime()
	if last.Hour() != 15 || last.Minute() != 59 || last.Second() != 58 {
		t.Errorf("LastTradeTime = %v", last)
	}

	empty := NewChain(&models.QuoteFeed{Data: models.QuoteData{CurrentPrice: 100}}, "_SPX", "241018")
	if !empty.LastTradeTime().IsZero() {
		t.Error("expected zero time for an empty chain")
	}
}
