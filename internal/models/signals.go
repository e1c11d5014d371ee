package models

import "time"

// TrendType classifies the direction of a price series.
type TrendType string

const (
	TrendBullish TrendType = "bullish"
	TrendBearish TrendType = "bearish"
	TrendNeutral TrendType = "neutral"
)

// PriceSignals summarizes a coin's recorded history. Periods are counted
// in history points, one per sync.
type PriceSignals struct {
	CoinID     string    `json:"coinId"`
	Points     int       `json:"points"`
	LastPrice  float64   `json:"lastPrice"`
	ChangePct  float64   `json:"changePct"` // first to last point
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	SMAShort   float64   `json:"smaShort"`
	SMALong    float64   `json:"smaLong"`
	EMAShort   float64   `json:"emaShort"`
	RSI        float64   `json:"rsi"`
	RSIClass   string    `json:"rsiClass"`
	Crossover  string    `json:"crossover"`
	Trend      TrendType `json:"trend"`
	ComputedAt time.Time `json:"computedAt"`
}
