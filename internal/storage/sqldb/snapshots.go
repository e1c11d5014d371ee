package sqldb

import (
	"context"
	"fmt"

	"github.com/vrautomations/cryptotrack/internal/models"
)

// SnapshotStore keeps current rows in "coins" and history rows in "history".
type SnapshotStore struct {
	m *Manager
}

// ReplaceCurrent clears and refills coins in one transaction.
func (s *SnapshotStore) ReplaceCurrent(ctx context.Context, snaps []models.CoinSnapshot) error {
	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM coins"); err != nil {
		return fmt.Errorf("failed to clear current coins: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.m.rebind(
		"INSERT INTO coins (coin_id, name, symbol, price, market_cap, change_24h, captured_at) VALUES (?, ?, ?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range snaps {
		if _, err := stmt.ExecContext(ctx, c.CoinID, c.Name, c.Symbol, c.Price, c.MarketCap, c.Change24h, toUnix(c.Timestamp)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", c.CoinID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}
	return nil
}

func (s *SnapshotStore) ListCurrent(ctx context.Context) ([]models.CoinSnapshot, error) {
	rows, err := s.m.db.QueryContext(ctx,
		"SELECT coin_id, name, symbol, price, market_cap, change_24h, captured_at FROM coins ORDER BY market_cap DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list current coins: %w", err)
	}
	defer rows.Close()

	snaps := []models.CoinSnapshot{}
	for rows.Next() {
		var c models.CoinSnapshot
		var ts int64
		if err := rows.Scan(&c.CoinID, &c.Name, &c.Symbol, &c.Price, &c.MarketCap, &c.Change24h, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan coin: %w", err)
		}
		c.Timestamp = fromUnix(ts)
		snaps = append(snaps, c)
	}
	return snaps, rows.Err()
}

func (s *SnapshotStore) AppendHistory(ctx context.Context, entries []models.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.m.rebind(
		"INSERT INTO history (coin_id, name, symbol, price, market_cap, change_24h, captured_at, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.CoinID, e.Name, e.Symbol, e.Price, e.MarketCap, e.Change24h, toUnix(e.Timestamp), toUnix(e.RecordedAt)); err != nil {
			return fmt.Errorf("failed to append history for %s: %w", e.CoinID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}
	return nil
}

func (s *SnapshotStore) GetHistory(ctx context.Context, coinID string) ([]models.HistoryEntry, error) {
	rows, err := s.m.db.QueryContext(ctx, s.m.rebind(
		"SELECT coin_id, name, symbol, price, market_cap, change_24h, captured_at, recorded_at FROM history WHERE coin_id = ? ORDER BY captured_at ASC, recorded_at ASC, id ASC"),
		coinID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", coinID, err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		var ts, rec int64
		if err := rows.Scan(&e.CoinID, &e.Name, &e.Symbol, &e.Price, &e.MarketCap, &e.Change24h, &ts, &rec); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.Timestamp = fromUnix(ts)
		e.RecordedAt = fromUnix(rec)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SnapshotStore) CountHistory(ctx context.Context) (int, error) {
	var n int
	if err := s.m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}
