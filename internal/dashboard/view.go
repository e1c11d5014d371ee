package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vrautomations/cryptotrack/internal/models"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// DefaultSortKey matches the upstream ordering.
const DefaultSortKey = "market_cap_rank"

// comparators maps a sort key to a three-way compare. Strings compare
// lowercased, numbers numerically.
var comparators = map[string]func(a, b models.MarketCoin) int{
	"market_cap_rank": func(a, b models.MarketCoin) int { return compareNum(float64(a.MarketCapRank), float64(b.MarketCapRank)) },
	"name":            func(a, b models.MarketCoin) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"current_price":   func(a, b models.MarketCoin) int { return compareNum(a.CurrentPrice, b.CurrentPrice) },
	"market_cap":      func(a, b models.MarketCoin) int { return compareNum(a.MarketCap, b.MarketCap) },
	"price_change_percentage_24h": func(a, b models.MarketCoin) int {
		return compareNum(a.Change24h(), b.Change24h())
	},
}

func compareNum(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortKeys lists the accepted sort keys.
func SortKeys() []string {
	keys := make([]string, 0, len(comparators))
	for k := range comparators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseOrder accepts "asc" or "desc" in any case; "" means Asc.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want asc or desc)", s)
}

// Filter keeps coins whose name or symbol contains query, case-insensitively.
// An empty query keeps everything. The input is not modified.
func Filter(coins []models.MarketCoin, query string) []models.MarketCoin {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.MarketCoin, 0, len(coins))
	for _, c := range coins {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Symbol), q) {
			out = append(out, c)
		}
	}
	return out
}

// Sort orders coins in place by key. Equal elements keep their relative order
// in both directions.
func Sort(coins []models.MarketCoin, key string, order Order) error {
	cmp, ok := comparators[key]
	if !ok {
		return fmt.Errorf("unknown sort key %q (want one of %s)", key, strings.Join(SortKeys(), ", "))
	}
	sort.SliceStable(coins, func(i, j int) bool {
		if order == Desc {
			return cmp(coins[i], coins[j]) > 0
		}
		return cmp(coins[i], coins[j]) < 0
	})
	return nil
}

// Overview is the market summary shown above the table.
type Overview struct {
	TotalMarketCap float64
	AverageChange  float64
	Gainers        int
	Losers         int
	Count          int
}

// Summarize computes the market overview of coins. Coins without a
// reported 24h change are left out of the average.
func Summarize(coins []models.MarketCoin) Overview {
	o := Overview{Count: len(coins)}
	if len(coins) == 0 {
		return o
	}
	var changes float64
	var known int
	for _, c := range coins {
		o.TotalMarketCap += c.MarketCap
		if c.PriceChangePercentage24h == nil {
			continue
		}
		known++
		changes += *c.PriceChangePercentage24h
		switch {
		case *c.PriceChangePercentage24h > 0:
			o.Gainers++
		case *c.PriceChangePercentage24h < 0:
			o.Losers++
		}
	}
	if known > 0 {
		o.AverageChange = changes / float64(known)
	}
	return o
}
