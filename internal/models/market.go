package models

import (
	"sort"
	"time"
)

// MarketCoin holds the fields of a CoinGecko /coins/markets row that are
// read here. GET /api/coins relays the raw rows, not this type.
// Upstream sends null for an unknown 24h change or update time.
type MarketCoin struct {
	ID                       string     `json:"id"`
	Symbol                   string     `json:"symbol"`
	Name                     string     `json:"name"`
	Image                    string     `json:"image,omitempty"`
	CurrentPrice             float64    `json:"current_price"`
	MarketCap                float64    `json:"market_cap"`
	MarketCapRank            int        `json:"market_cap_rank"`
	PriceChangePercentage24h *float64   `json:"price_change_percentage_24h"`
	LastUpdated              *time.Time `json:"last_updated"`
}

// Change24h returns the 24h change, 0 when upstream did not report one.
func (c MarketCoin) Change24h() float64 {
	if c.PriceChangePercentage24h == nil {
		return 0
	}
	return *c.PriceChangePercentage24h
}

// CoinSnapshot is the latest normalized record for one asset.
// CoinID is unique across the current collection.
type CoinSnapshot struct {
	CoinID    string    `json:"coinId" badgerhold:"key"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	MarketCap float64   `json:"marketCap"`
	Change24h float64   `json:"change24h"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is an append-only copy of a snapshot.
type HistoryEntry struct {
	CoinID     string    `json:"coinId" badgerhold:"index"`
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	MarketCap  float64   `json:"marketCap"`
	Change24h  float64   `json:"change24h"`
	Timestamp  time.Time `json:"timestamp"`
	RecordedAt time.Time `json:"recordedAt"`
}

// NewHistoryEntry copies a snapshot into a history row stamped at recordedAt.
func NewHistoryEntry(s CoinSnapshot, recordedAt time.Time) HistoryEntry {
	return HistoryEntry{
		CoinID:     s.CoinID,
		Name:       s.Name,
		Symbol:     s.Symbol,
		Price:      s.Price,
		MarketCap:  s.MarketCap,
		Change24h:  s.Change24h,
		Timestamp:  s.Timestamp,
		RecordedAt: recordedAt,
	}
}

// SyncResult summarises one completed sync run.
type SyncResult struct {
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// SortHistory orders entries by Timestamp ascending, RecordedAt breaking ties.
func SortHistory(entries []HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].RecordedAt.Before(entries[j].RecordedAt)
	})
}

// SortByMarketCap orders snapshots largest market cap first.
func SortByMarketCap(snaps []CoinSnapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].MarketCap > snaps[j].MarketCap
	})
}
