package signals

import (
	"time"

	"github.com/vrautomations/cryptotrack/internal/models"
)

// Default periods in history points. With the hourly sync these are
// 6 and 24 hours.
const (
	DefaultShortPeriod = 6
	DefaultLongPeriod  = 24
	DefaultRSIPeriod   = 14
)

// Computer computes price signals for a coin history
type Computer struct {
	shortPeriod int
	longPeriod  int
	rsiPeriod   int
	now         func() time.Time
}

// NewComputer creates a computer with the default periods
func NewComputer() *Computer {
	return &Computer{
		shortPeriod: DefaultShortPeriod,
		longPeriod:  DefaultLongPeriod,
		rsiPeriod:   DefaultRSIPeriod,
		now:         time.Now,
	}
}

// Prices returns the entries' prices newest first. entries must be in
// chronological order, as the history endpoint returns them.
func Prices(entries []models.HistoryEntry) []float64 {
	prices := make([]float64, len(entries))
	for i, e := range entries {
		prices[len(entries)-1-i] = e.Price
	}
	return prices
}

// Compute calculates all signals from a chronological history
func (c *Computer) Compute(entries []models.HistoryEntry) *models.PriceSignals {
	signals := &models.PriceSignals{
		Points:     len(entries),
		Crossover:  "none",
		Trend:      models.TrendNeutral,
		RSI:        50,
		RSIClass:   "neutral",
		ComputedAt: c.now(),
	}
	if len(entries) == 0 {
		return signals
	}

	signals.CoinID = entries[0].CoinID
	prices := Prices(entries)

	signals.LastPrice = prices[0]
	signals.ChangePct = PercentChange(prices[len(prices)-1], prices[0])
	signals.High = High(prices)
	signals.Low = Low(prices)

	signals.SMAShort = SMA(prices, c.shortPeriod)
	signals.SMALong = SMA(prices, c.longPeriod)
	signals.EMAShort = EMA(prices, c.shortPeriod)
	signals.RSI = RSI(prices, c.rsiPeriod)
	signals.RSIClass = ClassifyRSI(signals.RSI)
	signals.Crossover = DetectCrossover(prices, c.shortPeriod, c.longPeriod)
	signals.Trend = DetermineTrend(signals.LastPrice, signals.SMAShort, signals.SMALong)

	return signals
}
