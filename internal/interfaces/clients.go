// Package interfaces defines service contracts for cryptotrack
package interfaces

import (
	"context"
	"encoding/json"

	"github.com/vrautomations/cryptotrack/internal/models"
)

// MarketDataClient fetches the top assets by market cap.
type MarketDataClient interface {
	// GetTopMarkets performs one upstream request and decodes the rows.
	GetTopMarkets(ctx context.Context) ([]models.MarketCoin, error)
	// GetTopMarketsRaw performs one upstream request and returns the body
	// unmodified, for relaying.
	GetTopMarketsRaw(ctx context.Context) (json.RawMessage, error)
}
