package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vrautomations/cryptotrack/internal/clients/coingecko"
)

// handleCoins relays the live top-N list from the market data provider
// byte for byte. A provider rate limit is relayed with its status and body so the
// dashboard can detect it and fall back to its cache.
func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	body, err := s.app.MarketClient.GetTopMarketsRaw(r.Context())
	if err != nil {
		var apiErr *coingecko.APIError
		if errors.As(err, &apiErr) && apiErr.IsRateLimited() {
			s.logger.Warn().Err(err).Msg("Market data provider rate limited")
			if len(apiErr.Body) > 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write(apiErr.Body)
				return
			}
			WriteError(w, http.StatusTooManyRequests, "Rate limited")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to fetch coins")
		WriteError(w, http.StatusInternalServerError, "Failed to fetch coins")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleCoinsCurrent returns the stored current collection.
func (s *Server) handleCoinsCurrent(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snaps, err := s.app.Storage.SnapshotStore().ListCurrent(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list current coins")
		WriteError(w, http.StatusInternalServerError, "Failed to fetch current coins")
		return
	}

	WriteJSON(w, http.StatusOK, snaps)
}

type snapshotResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// handleSnapshot runs a manual sync. It waits for any scheduled run in flight
// and is not cut short by the client disconnecting.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	result, err := s.app.SyncService.Sync(context.WithoutCancel(r.Context()))
	if err != nil {
		s.logger.Error().Err(err).Msg("Manual sync failed")
		WriteError(w, http.StatusInternalServerError, "Failed to sync coin data")
		return
	}

	WriteJSON(w, http.StatusOK, snapshotResponse{
		Success:   true,
		Message:   "Manual sync completed",
		Timestamp: result.Timestamp,
		Count:     result.Count,
	})
}

// handleHistory returns the chronological history for one coin, or its
// indicator summary on /api/history/{coinId}/signals.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	coinID := PathParam(r, "/api/history/")
	rest := strings.TrimPrefix(r.URL.Path, "/api/history/"+coinID)
	if coinID == "" || (rest != "" && rest != "/signals") {
		WriteMessage(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	entries, err := s.app.Storage.SnapshotStore().GetHistory(r.Context(), coinID)
	if err != nil {
		s.logger.Error().Err(err).Str("coin_id", coinID).Msg("Failed to fetch history")
		WriteError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	if rest == "/signals" {
		WriteJSON(w, http.StatusOK, s.signals.Compute(entries))
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}
