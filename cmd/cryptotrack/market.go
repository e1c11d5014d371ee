package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vrautomations/cryptotrack/internal/dashboard"
	"github.com/vrautomations/cryptotrack/internal/models"
	"github.com/vrautomations/cryptotrack/internal/signals"
)

func newCoinsCmd(c *cli) *cobra.Command {
	var (
		search string
		sortBy string
		order  string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "coins",
		Short: "Show the top coins by market cap",
		Long: `Fetch the live top coins and print them as a table. Falls back to the
local cache when the API is rate limited or unreachable.

Sort keys: market_cap_rank, name, current_price, market_cap,
price_change_percentage_24h.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ord, err := dashboard.ParseOrder(order)
			if err != nil {
				return err
			}
			// validate the key before touching the network
			if err := dashboard.Sort(nil, sortBy, ord); err != nil {
				return err
			}

			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			feed := dashboard.NewFeed(c.client, store, c.logger)
			out := cmd.OutOrStdout()
			show := func(res dashboard.Result) {
				printCoins(out, res, search, sortBy, ord)
			}

			if !watch {
				show(feed.Load(cmd.Context()))
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(out, "Refreshing every %s. Press Ctrl+C to stop.\n", c.refreshInterval())
			dashboard.NewPoller(feed, c.refreshInterval(), show).Run(ctx)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name or symbol")
	cmd.Flags().StringVar(&sortBy, "sort", dashboard.DefaultSortKey, "sort key")
	cmd.Flags().StringVar(&order, "order", string(dashboard.Asc), "sort order (asc, desc)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing on the dashboard refresh interval")

	return cmd
}

func printCoins(w io.Writer, res dashboard.Result, search, sortBy string, order dashboard.Order) {
	switch res.Source {
	case dashboard.SourceCache:
		reason := "API unavailable"
		if res.RateLimited() {
			reason = "rate limit exceeded"
		}
		fmt.Fprintf(w, "Showing cached data (%s), saved %s\n", reason, dashboard.FormatAge(res.SavedAt))
	case dashboard.SourceEmpty:
		fmt.Fprintln(w, "No data available: the API could not be reached and nothing is cached.")
		return
	default:
		fmt.Fprintf(w, "Last updated %s\n", dashboard.FormatTimestamp(res.SavedAt))
	}

	dashboard.RenderOverview(w, dashboard.Summarize(res.Coins))
	fmt.Fprintln(w)

	coins := dashboard.Filter(res.Coins, search)
	dashboard.Sort(coins, sortBy, order)
	dashboard.RenderCoinsTable(w, coins)
}

func newCurrentCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the stored snapshot from the last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps, err := c.client.Current(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch current snapshot: %w", err)
			}
			return dashboard.RenderSnapshotTable(cmd.OutOrStdout(), snaps)
		},
	}
}

func newSnapshotCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Trigger a manual sync on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.client.Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("snapshot failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d coins at %s\n",
				res.Message, res.Count, dashboard.FormatTimestamp(res.Timestamp))
			return nil
		},
	}
}

func newHistoryCmd(c *cli) *cobra.Command {
	var chartPath string

	cmd := &cobra.Command{
		Use:   "history <coin-id>",
		Short: "Show the recorded price history of a coin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.client.History(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch history: %w", err)
			}

			if chartPath != "" {
				return writeChart(cmd.OutOrStdout(), chartPath, entries)
			}
			out := cmd.OutOrStdout()
			if err := dashboard.RenderHistoryTable(out, entries); err != nil {
				return err
			}
			if len(entries) > 0 {
				fmt.Fprintln(out)
				return dashboard.RenderSignals(out, signals.NewComputer().Compute(entries))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&chartPath, "chart", "", "write a PNG price chart to this file instead of printing a table")
	return cmd
}

func writeChart(w io.Writer, path string, entries []models.HistoryEntry) error {
	png, err := dashboard.RenderPriceChart(entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	fmt.Fprintf(w, "Wrote %d points to %s\n", len(entries), path)
	return nil
}
