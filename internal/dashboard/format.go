package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatPrice renders a USD price with thousands separators. Prices of a
// dollar or more get two fraction digits; smaller prices keep up to six so
// that sub-cent coins stay readable.
func FormatPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "-"
	}
	if math.Abs(price) >= 1 || price == 0 {
		return "$" + humanize.FormatFloat("#,###.##", price)
	}
	s := humanize.FormatFloat("#,###.######", price)
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		keep := dot + 3
		s = strings.TrimRight(s, "0")
		if len(s) < keep {
			s += strings.Repeat("0", keep-len(s))
		}
	}
	return "$" + s
}

// FormatMarketCap abbreviates with T, B or M suffixes.
func FormatMarketCap(cap float64) string {
	switch {
	case cap >= 1e12:
		return fmt.Sprintf("$%.2fT", cap/1e12)
	case cap >= 1e9:
		return fmt.Sprintf("$%.2fB", cap/1e9)
	case cap >= 1e6:
		return fmt.Sprintf("$%.2fM", cap/1e6)
	}
	return "$" + humanize.Comma(int64(math.Round(cap)))
}

// FormatChange renders a signed percentage with a trend arrow. Zero counts as up.
func FormatChange(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("▲ +%.2f%%", pct)
	}
	return fmt.Sprintf("▼ -%.2f%%", math.Abs(pct))
}

// FormatTimestamp renders t in local time, or "-" when unset.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatAge renders how long ago t was, e.g. "3 minutes ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
