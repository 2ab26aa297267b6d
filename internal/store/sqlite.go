package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"gexview/internal/errors"
	"gexview/internal/models"
)

// SQLiteStore implements SnapshotStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Latest raw snapshot per ticker
	CREATE TABLE IF NOT EXISTS snapshots (
		ticker TEXT PRIMARY KEY,
		fetched_at DATETIME NOT NULL,
		feed_timestamp TEXT,
		current_price REAL NOT NULL,
		option_count INTEGER NOT NULL,
		payload TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSnapshot stores feed as the latest snapshot for ticker.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, ticker string, feed *models.QuoteFeed, fetchedAt time.Time) error {
	payload, err := json.Marshal(feed)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (ticker, fetched_at, feed_timestamp, current_price, option_count, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(ticker) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			feed_timestamp = excluded.feed_timestamp,
			current_price = excluded.current_price,
			option_count = excluded.option_count,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, ticker, fetchedAt.UTC(), feed.Timestamp, feed.Data.CurrentPrice, len(feed.Data.Options), string(payload))
	if err != nil {
		return fmt.Errorf("%w: save snapshot %s: %v", errors.ErrDatabaseError, ticker, err)
	}
	return nil
}

// LatestSnapshot loads the snapshot stored for ticker.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context, ticker string) (*Snapshot, error) {
	var (
		fetchedAt time.Time
		payload   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload FROM snapshots WHERE ticker = ?`, ticker,
	).Scan(&fetchedAt, &payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s: %w", ticker, errors.ErrDataNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot %s: %v", errors.ErrDatabaseError, ticker, err)
	}

	var feed models.QuoteFeed
	if err := json.Unmarshal([]byte(payload), &feed); err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %s", ticker)
	}
	return &Snapshot{Ticker: ticker, FetchedAt: fetchedAt, Feed: &feed}, nil
}

// DeleteSnapshot removes the snapshot for ticker, if any.
func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, ticker string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE ticker = ?`, ticker); err != nil {
		return fmt.Errorf("%w: delete snapshot %s: %v", errors.ErrDatabaseError, ticker, err)
	}
	return nil
}

// Tickers lists tickers with a stored snapshot.
func (s *SQLiteStore) Tickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker FROM snapshots ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("%w: list tickers: %v", errors.ErrDatabaseError, err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
