package gex

import (
	"math"
	"time"

	"gexview/internal/models"
)

// Chain is one parsed snapshot: every contract with its exposure, and the
// front-cycle subset that feeds the charts.
type Chain struct {
	Ticker       string
	DateCode     string
	CurrentPrice float64
	Timestamp    string
	Records      []models.ExposureRecord
	FrontCycle   []models.ExposureRecord
	Unparsed     int
}

// NewChain parses feed for ticker and classifies contracts expiring on dateCode
// as front-cycle.
func NewChain(feed *models.QuoteFeed, ticker, dateCode string) *Chain {
	c := &Chain{
		Ticker:       ticker,
		DateCode:     dateCode,
		CurrentPrice: feed.Data.CurrentPrice,
		Timestamp:    feed.Timestamp,
		Records:      make([]models.ExposureRecord, 0, len(feed.Data.Options)),
	}

	for _, raw := range feed.Data.Options {
		contract, err := ParseContract(raw)
		if err != nil {
			c.Unparsed++
		}
		record := ComputeExposure(contract, c.CurrentPrice)
		c.Records = append(c.Records, record)
		if IsFrontCycle(raw.Option, ticker, dateCode) {
			c.FrontCycle = append(c.FrontCycle, record)
		}
	}
	return c
}

// Grid builds the strike grid for the snapshot price.
func (c *Chain) Grid() (*StrikeGrid, error) {
	return BuildGrid(c.CurrentPrice)
}

// StrikeData aggregates the front-cycle records for field under mode.
func (c *Chain) StrikeData(field models.Field, mode models.Mode) models.AggregateSeries {
	return Aggregate(c.FrontCycle, field, mode, c.CurrentPrice)
}

// Summary returns the legend totals for both fields. Totals cover every
// bucketable front-cycle record; the inclusion window does not apply.
func (c *Chain) Summary(mode models.Mode) models.Summary {
	s := models.Summary{Mode: mode}
	if mode == models.ModeSplit {
		s.Gamma.Split = c.splitSummary(models.FieldGamma)
		s.Vega.Split = c.splitSummary(models.FieldVega)
		return s
	}
	s.Gamma.Net = c.netSummary(models.FieldGamma)
	s.Vega.Net = c.netSummary(models.FieldVega)
	return s
}

func (c *Chain) netSummary(field models.Field) *models.NetSummary {
	var total, below, above float64
	for _, r := range c.FrontCycle {
		if !r.Bucketable() {
			continue
		}
		v := r.Value(field)
		total += v
		if float64(r.Strike) < c.CurrentPrice {
			below += v
		} else {
			above += v
		}
	}
	return &models.NetSummary{
		Total: total / billions,
		Below: below / billions,
		Above: above / billions,
	}
}

func (c *Chain) splitSummary(field models.Field) *models.SplitSummary {
	var calls, puts float64
	for _, r := range c.FrontCycle {
		switch {
		case !r.Bucketable():
		case r.Type == models.OptionTypeCall:
			calls += math.Abs(r.Value(field))
		case r.Type == models.OptionTypePut:
			puts += math.Abs(r.Value(field))
		}
	}
	return &models.SplitSummary{Calls: calls / billions, Puts: puts / billions}
}

// LastTradeTime returns the most recent trade among front-cycle contracts,
// or the zero time when none traded.
func (c *Chain) LastTradeTime() time.Time {
	var last time.Time
	for _, r := range c.FrontCycle {
		if r.LastTradeTime != nil && r.LastTradeTime.After(last) {
			last = *r.LastTradeTime
		}
	}
	return last
}
