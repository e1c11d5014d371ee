package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vrautomations/cryptotrack/internal/models"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// RenderCoinsTable writes the market table.
func RenderCoinsTable(w io.Writer, coins []models.MarketCoin) error {
	if len(coins) == 0 {
		_, err := fmt.Fprintln(w, "No coins found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tNAME\tSYMBOL\tPRICE\tMARKET CAP\t24H\tUPDATED\t")
	for _, c := range coins {
		change, updated := "-", "-"
		if c.PriceChangePercentage24h != nil {
			change = FormatChange(*c.PriceChangePercentage24h)
		}
		if c.LastUpdated != nil {
			updated = FormatTimestamp(*c.LastUpdated)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			c.MarketCapRank,
			c.Name,
			strings.ToUpper(c.Symbol),
			FormatPrice(c.CurrentPrice),
			FormatMarketCap(c.MarketCap),
			change,
			updated,
		)
	}
	return tw.Flush()
}

// RenderSnapshotTable writes the stored current collection.
func RenderSnapshotTable(w io.Writer, snaps []models.CoinSnapshot) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(w, "No snapshot stored yet.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "COIN\tSYMBOL\tPRICE\tMARKET CAP\t24H\tCAPTURED\t")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			s.Name,
			strings.ToUpper(s.Symbol),
			FormatPrice(s.Price),
			FormatMarketCap(s.MarketCap),
			FormatChange(s.Change24h),
			FormatTimestamp(s.Timestamp),
		)
	}
	return tw.Flush()
}

// RenderHistoryTable writes one coin's history, oldest first.
func RenderHistoryTable(w io.Writer, entries []models.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No history recorded.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "CAPTURED\tPRICE\tMARKET CAP\t24H\t")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			FormatTimestamp(e.Timestamp),
			FormatPrice(e.Price),
			FormatMarketCap(e.MarketCap),
			FormatChange(e.Change24h),
		)
	}
	return tw.Flush()
}

// RenderOverview writes the one-line market summary.
func RenderOverview(w io.Writer, o Overview) error {
	_, err := fmt.Fprintf(w, "Total market cap %s | Average 24h %s | Gainers %d | Losers %d | Top %d\n",
		FormatMarketCap(o.TotalMarketCap), FormatChange(o.AverageChange), o.Gainers, o.Losers, o.Count)
	return err
}

// RenderPriceChart renders a PNG line chart of a coin's price history.
// Returns raw PNG bytes.
func RenderPriceChart(entries []models.HistoryEntry) ([]byte, error) {
	if len(entries) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(entries))
	}

	xValues := make([]time.Time, len(entries))
	prices := make([]float64, len(entries))
	for i, e := range entries {
		xValues[i] = e.Timestamp
		prices[i] = e.Price
	}

	name := entries[0].Name
	if name == "" {
		name = entries[0].CoinID
	}

	priceSeries := chart.TimeSeries{
		Name: name + " Price",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: prices,
	}

	span := entries[len(entries)-1].Timestamp.Sub(entries[0].Timestamp)
	timeFormat := "Jan 02 15:04"
	if span > 14*24*time.Hour {
		timeFormat = "Jan 02"
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s (%s)", name, strings.ToUpper(entries[0].Symbol)),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format(timeFormat)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{priceSeries},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// RenderSignals writes the indicator summary below a history table.
func RenderSignals(w io.Writer, s *models.PriceSignals) error {
	if s == nil || s.Points == 0 {
		return nil
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "Points\t%d\t\n", s.Points)
	fmt.Fprintf(tw, "Change\t%s\t\n", FormatChange(s.ChangePct))
	fmt.Fprintf(tw, "High / Low\t%s / %s\t\n", FormatPrice(s.High), FormatPrice(s.Low))
	if s.SMAShort > 0 {
		fmt.Fprintf(tw, "SMA short\t%s\t\n", FormatPrice(s.SMAShort))
	}
	if s.SMALong > 0 {
		fmt.Fprintf(tw, "SMA long\t%s\t\n", FormatPrice(s.SMALong))
	}
	if s.EMAShort > 0 {
		fmt.Fprintf(tw, "EMA short\t%s\t\n", FormatPrice(s.EMAShort))
	}
	fmt.Fprintf(tw, "RSI\t%.1f (%s)\t\n", s.RSI, s.RSIClass)
	fmt.Fprintf(tw, "Trend\t%s\t\n", s.Trend)
	if s.Crossover != "none" {
		fmt.Fprintf(tw, "Crossover\t%s\t\n", s.Crossover)
	}
	return tw.Flush()
}
