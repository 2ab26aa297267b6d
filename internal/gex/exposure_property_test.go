package gex

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gexview/internal/models"
)

func approxEqual(a, b float64) bool {
	diff := math.Abs(a - b)
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return diff <= 1e-9*scale
}

func optionTypeGen() gopter.Gen {
	return gen.OneConstOf(models.OptionTypeCall, models.OptionTypePut)
}

func TestExposure_ReferenceValue(t *testing.T) {
	c := models.OptionContract{Type: models.OptionTypeCall, Strike: 100, Gamma: 0.05, OpenInterest: 1000, Volume: 200}
	r := ComputeExposure(c, 100)
	if !approxEqual(r.GammaExposure, 500000) {
		t.Errorf("GammaExposure = %v, want 500000", r.GammaExposure)
	}
	if !approxEqual(r.VegaExposure, 100000) {
		t.Errorf("VegaExposure = %v, want 100000", r.VegaExposure)
	}

	c.Type = models.OptionTypePut
	r = ComputeExposure(c, 100)
	if !approxEqual(r.GammaExposure, -500000) {
		t.Errorf("put GammaExposure = %v, want -500000", r.GammaExposure)
	}
}

func TestMultiplier(t *testing.T) {
	if got := Multiplier(100); !approxEqual(got, 10000) {
		t.Errorf("Multiplier(100) = %v, want 10000", got)
	}
	if got := Multiplier(5800); !approxEqual(got, 33640000) {
		t.Errorf("Multiplier(5800) = %v, want 33640000", got)
	}
}

func TestProperty_ExposureZeroLaw(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("zero gamma gives zero exposure", prop.ForAll(
		func(typ models.OptionType, oi, vol, price float64) bool {
			r := ComputeExposure(models.OptionContract{Type: typ, Strike: 100, OpenInterest: oi, Volume: vol}, price)
			return r.GammaExposure == 0 && r.VegaExposure == 0
		},
		optionTypeGen(),
		gen.Float64Range(0, 100000),
		gen.Float64Range(0, 100000),
		gen.Float64Range(1, 10000),
	))

	properties.Property("zero open interest gives zero gamma exposure", prop.ForAll(
		func(typ models.OptionType, gamma, price float64) bool {
			r := ComputeExposure(models.OptionContract{Type: typ, Strike: 100, Gamma: gamma}, price)
			return r.GammaExposure == 0 && r.VegaExposure == 0
		},
		optionTypeGen(),
		gen.Float64Range(0, 1),
		gen.Float64Range(1, 10000),
	))

	properties.TestingRun(t)
}

func TestProperty_ExposureSign(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("puts are the negation of an identical call", prop.ForAll(
		func(gamma, oi, vol, price float64) bool {
			c := models.OptionContract{Type: models.OptionTypeCall, Strike: 100, Gamma: gamma, OpenInterest: oi, Volume: vol}
			call := ComputeExposure(c, price)
			c.Type = models.OptionTypePut
			put := ComputeExposure(c, price)
			return call.GammaExposure >= 0 && call.VegaExposure >= 0 &&
				approxEqual(put.GammaExposure, -call.GammaExposure) &&
				approxEqual(put.VegaExposure, -call.VegaExposure)
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 100000),
		gen.Float64Range(0, 100000),
		gen.Float64Range(1, 10000),
	))

	properties.Property("exposure scales with the square of price", prop.ForAll(
		func(typ models.OptionType, gamma, oi, price float64) bool {
			c := models.OptionContract{Type: typ, Strike: 100, Gamma: gamma, OpenInterest: oi}
			once := ComputeExposure(c, price).GammaExposure
			twice := ComputeExposure(c, 2*price).GammaExposure
			return approxEqual(twice, 4*once)
		},
		optionTypeGen(),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 100000),
		gen.Float64Range(1, 5000),
	))

	properties.TestingRun(t)
}
