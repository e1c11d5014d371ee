// Package signals provides indicator calculations over recorded price history
package signals

import (
	"math"

	"github.com/vrautomations/cryptotrack/internal/models"
)

// All functions take prices newest first: prices[0] is the latest point.

// SMA calculates Simple Moving Average for the given period
func SMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	return sum / float64(period)
}

// EMA calculates Exponential Moving Average for the given period
func EMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}

	multiplier := 2.0 / float64(period+1)
	ema := SMA(prices[len(prices)-period:], period) // Start with SMA

	// oldest to newest within the period
	for i := period - 1; i >= 0; i-- {
		ema = (prices[i]-ema)*multiplier + ema
	}

	return ema
}

// RSI calculates Relative Strength Index
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50 // Neutral default
	}

	var gains, losses float64
	for i := 0; i < period; i++ {
		change := prices[i] - prices[i+1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if gains == 0 && losses == 0 {
		return 50
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// High returns the highest price, or 0 for an empty series.
func High(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	high := prices[0]
	for _, p := range prices[1:] {
		high = math.Max(high, p)
	}
	return high
}

// Low returns the lowest price, or 0 for an empty series.
func Low(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	low := prices[0]
	for _, p := range prices[1:] {
		low = math.Min(low, p)
	}
	return low
}

// DetectCrossover detects SMA crossovers
// Returns "golden_cross", "death_cross", or "none"
func DetectCrossover(prices []float64, shortPeriod, longPeriod int) string {
	if len(prices) < longPeriod+1 {
		return "none"
	}

	shortSMA := SMA(prices, shortPeriod)
	longSMA := SMA(prices, longPeriod)

	// Previous values (shift by 1)
	prevShortSMA := SMA(prices[1:], shortPeriod)
	prevLongSMA := SMA(prices[1:], longPeriod)

	// Golden cross: short crosses above long
	if prevShortSMA <= prevLongSMA && shortSMA > longSMA {
		return "golden_cross"
	}

	// Death cross: short crosses below long
	if prevShortSMA >= prevLongSMA && shortSMA < longSMA {
		return "death_cross"
	}

	return "none"
}

// ClassifyRSI classifies RSI value
func ClassifyRSI(rsi float64) string {
	if rsi >= 70 {
		return "overbought"
	}
	if rsi <= 30 {
		return "oversold"
	}
	return "neutral"
}

// PercentChange returns the change from first to last in percent.
func PercentChange(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return ((last - first) / first) * 100
}

// DetermineTrend classifies the overall trend. With no long average yet the
// trend is neutral.
func DetermineTrend(currentPrice, smaShort, smaLong float64) models.TrendType {
	if smaShort == 0 || smaLong == 0 {
		return models.TrendNeutral
	}

	// BULLISH: Price > long SMA AND short SMA > long SMA
	if currentPrice > smaLong && smaShort > smaLong {
		return models.TrendBullish
	}

	// BEARISH: Price < long SMA AND short SMA < long SMA
	if currentPrice < smaLong && smaShort < smaLong {
		return models.TrendBearish
	}

	return models.TrendNeutral
}
