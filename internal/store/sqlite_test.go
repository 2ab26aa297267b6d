package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"gexview/internal/errors"
	"gexview/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func feedAt(price float64, options ...string) *models.QuoteFeed {
	feed := &models.QuoteFeed{Timestamp: "2024-10-18 20:15:00", Data: models.QuoteData{CurrentPrice: price}}
	for _, o := range options {
		gamma := 0.01
		feed.Data.Options = append(feed.Data.Options, models.RawOption{Option: o, Gamma: &gamma})
	}
	return feed
}

func TestSQLiteStore_MissingSnapshot(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LatestSnapshot(context.Background(), "_SPX")
	if !errors.Is(err, errors.ErrDataNotFound) {
		t.Errorf("LatestSnapshot on empty store = %v, want ErrDataNotFound", err)
	}
}

func TestSQLiteStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	fetched := time.Date(2024, 10, 18, 20, 15, 0, 0, time.UTC)

	if err := s.SaveSnapshot(ctx, "_SPX", feedAt(5800.5, "SPXW241018C05800000"), fetched); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	snap, err := s.LatestSnapshot(ctx, "_SPX")
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if snap.Feed.Data.CurrentPrice != 5800.5 || len(snap.Feed.Data.Options) != 1 {
		t.Errorf("loaded feed = %+v", snap.Feed)
	}
	if *snap.Feed.Data.Options[0].Gamma != 0.01 {
		t.Errorf("gamma = %v", *snap.Feed.Data.Options[0].Gamma)
	}
	if !snap.FetchedAt.Equal(fetched) {
		t.Errorf("FetchedAt = %v, want %v", snap.FetchedAt, fetched)
	}

	tickers, err := s.Tickers(ctx)
	if err != nil || len(tickers) != 1 || tickers[0] != "_SPX" {
		t.Errorf("Tickers = %v, %v", tickers, err)
	}

	if err := s.DeleteSnapshot(ctx, "_SPX"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LatestSnapshot(ctx, "_SPX"); !errors.Is(err, errors.ErrDataNotFound) {
		t.Errorf("after delete: %v", err)
	}
}

func TestProperty_SnapshotReplacedInPlace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("the latest save wins and only one row per ticker exists", prop.ForAll(
		func(prices []float64) bool {
			if len(prices) == 0 {
				return true
			}
			for _, p := range prices {
				if err := s.SaveSnapshot(ctx, "_SPX", feedAt(p), time.Now()); err != nil {
					return false
				}
			}
			snap, err := s.LatestSnapshot(ctx, "_SPX")
			if err != nil || snap.Feed.Data.CurrentPrice != prices[len(prices)-1] {
				return false
			}
			tickers, err := s.Tickers(ctx)
			return err == nil && len(tickers) == 1
		},
		gen.SliceOf(gen.Float64Range(1, 10000)),
	))

	properties.TestingRun(t)
}
