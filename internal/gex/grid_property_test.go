package gex

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gexview/internal/errors"
)

func TestBuildGrid_Price100(t *testing.T) {
	g, err := BuildGrid(100)
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}
	if g.Len() != 41 {
		t.Fatalf("Len = %d, want 41", g.Len())
	}
	if s, _ := g.Strike(0); s != 0 {
		t.Errorf("first strike = %d, want 0", s)
	}
	if s, _ := g.Strike(40); s != 200 {
		t.Errorf("last strike = %d, want 200", s)
	}
	if i, ok := g.Index(100); !ok || i != 20 {
		t.Errorf("Index(100) = %d,%v, want 20,true", i, ok)
	}
	if _, ok := g.Index(102); ok {
		t.Error("off-grid strike should not be indexed")
	}
	if _, ok := g.Strike(41); ok {
		t.Error("Strike past the end should report false")
	}
}

func TestBuildGrid_InvalidPrice(t *testing.T) {
	for _, p := range []float64{0, -1, math.NaN(), math.Inf(1), 1e300, MaxPrice + 1} {
		g, err := BuildGrid(p)
		if g != nil {
			t.Errorf("BuildGrid(%v) returned a grid", p)
		}
		if !errors.Is(err, errors.ErrInvalidPrice) {
			t.Errorf("BuildGrid(%v) error = %v, want ErrInvalidPrice", p, err)
		}
	}
}

func TestStrikeGrid_NearestTiesToLower(t *testing.T) {
	g, err := BuildGrid(100)
	if err != nil {
		t.Fatal(err)
	}
	cases := map[float64]int{7: 5, 7.5: 5, 7.6: 10, 2.5: 0, 100: 100, 1000: 200}
	for price, want := range cases {
		s, _ := g.Strike(g.Nearest(price))
		if s != want {
			t.Errorf("Nearest(%v) -> strike %d, want %d", price, s, want)
		}
	}
}

func TestProperty_GridBijection(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("strike and index maps are inverse", prop.ForAll(
		func(price float64) bool {
			g, err := BuildGrid(price)
			if err != nil {
				return false
			}
			for i := 0; i < g.Len(); i++ {
				s, ok := g.Strike(i)
				if !ok || s != i*StrikeStep {
					return false
				}
				if j, ok := g.Index(s); !ok || j != i {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0.01, 10000),
	))

	properties.Property("grid spans 0 to round(2P/5)*5", prop.ForAll(
		func(price float64) bool {
			g, err := BuildGrid(price)
			if err != nil {
				return false
			}
			want := int(math.Round(price*2/StrikeStep))*StrikeStep/StrikeStep + 1
			last, _ := g.Strike(g.Len() - 1)
			return g.Len() == want && last == (want-1)*StrikeStep
		},
		gen.Float64Range(0.01, 10000),
	))

	properties.Property("same price builds an equal grid", prop.ForAll(
		func(price float64) bool {
			a, errA := BuildGrid(price)
			b, errB := BuildGrid(price)
			return errA == nil && errB == nil && a.Equal(b)
		},
		gen.Float64Range(0.01, 10000),
	))

	properties.TestingRun(t)
}
