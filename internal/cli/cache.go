package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gexview/internal/errors"
	"gexview/internal/store"
)

func newCacheCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached snapshots",
		Long:  "Manage the last-good snapshots used when the feed is unavailable.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s, err := app.requireStore()
			if err != nil {
				return err
			}
			tickers, err := s.Tickers(cmd.Context())
			if err != nil {
				return err
			}

			type entry struct {
				Ticker       string    `json:"ticker"`
				FetchedAt    time.Time `json:"fetched_at"`
				Timestamp    string    `json:"timestamp"`
				CurrentPrice float64   `json:"current_price"`
				Options      int       `json:"options"`
			}
			entries := make([]entry, 0, len(tickers))
			for _, t := range tickers {
				snap, err := s.LatestSnapshot(cmd.Context(), t)
				if err != nil {
					return err
				}
				entries = append(entries, entry{
					Ticker:       t,
					FetchedAt:    snap.FetchedAt,
					Timestamp:    snap.Feed.Timestamp,
					CurrentPrice: snap.Feed.Data.CurrentPrice,
					Options:      len(snap.Feed.Data.Options),
				})
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}
			if len(entries) == 0 {
				output.Info("No cached snapshots")
				return nil
			}
			output.Bold("%s%s%s%s", PadRight("TICKER", 10), PadRight("PRICE", 12), PadRight("OPTIONS", 10), "SNAPSHOT")
			for _, e := range entries {
				output.Printf("%s%s%s%s\n", PadRight(e.Ticker, 10), PadRight(FormatPrice(e.CurrentPrice), 12),
					PadRight(strconv.Itoa(e.Options), 10), FormatFeedTime(e.Timestamp))
			}
			return nil
		},
	})

	var all bool
	clearCmd := &cobra.Command{
		Use:   "clear [ticker...]",
		Short: "Remove cached snapshots (default: the configured ticker)",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s, err := app.requireStore()
			if err != nil {
				return err
			}

			targets := args
			switch {
			case all:
				if targets, err = s.Tickers(cmd.Context()); err != nil {
					return err
				}
			case len(targets) == 0:
				targets = []string{app.Config.Feed.Ticker}
			}
			for i, t := range targets {
				targets[i] = strings.ToUpper(t)
				if err := s.DeleteSnapshot(cmd.Context(), targets[i]); err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string][]string{"cleared": targets})
			}
			output.Success("Cleared %d cached snapshot(s): %s", len(targets), strings.Join(targets, ", "))
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&all, "all", false, "clear every cached ticker")
	cmd.AddCommand(clearCmd)

	return cmd
}

// requireStore opens the snapshot cache or explains why it is unavailable.
func (a *App) requireStore() (store.SnapshotStore, error) {
	if !a.Config.Store.Enabled {
		return nil, errors.NewValidationError("store.enabled", false, "snapshot cache is disabled")
	}
	s := a.openStore()
	if s == nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "open snapshot cache %s", a.Config.Store.Path)
	}
	return s, nil
}
