// Package store persists the last good feed snapshot per ticker so the
// dashboard can render before the first fetch completes.
package store

import (
	"context"
	"time"

	"gexview/internal/models"
)

// Snapshot is a stored raw feed.
type Snapshot struct {
	Ticker    string
	FetchedAt time.Time
	Feed      *models.QuoteFeed
}

// SnapshotStore keeps at most one snapshot per ticker. Saving replaces the
// previous snapshot.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, ticker string, feed *models.QuoteFeed, fetchedAt time.Time) error
	// LatestSnapshot returns errors.ErrDataNotFound when nothing is stored.
	LatestSnapshot(ctx context.Context, ticker string) (*Snapshot, error)
	DeleteSnapshot(ctx context.Context, ticker string) error
	Tickers(ctx context.Context) ([]string, error)
	Close() error
}
