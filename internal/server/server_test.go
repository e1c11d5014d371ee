package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrautomations/cryptotrack/internal/app"
	"github.com/vrautomations/cryptotrack/internal/clients/coingecko"
	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/models"
	"github.com/vrautomations/cryptotrack/internal/services/auth"
	"github.com/vrautomations/cryptotrack/internal/services/coinsync"
	"github.com/vrautomations/cryptotrack/internal/storage/badger"
)

// fakeMarket is a scripted MarketDataClient.
type fakeMarket struct {
	mu    sync.Mutex
	coins []models.MarketCoin
	raw   json.RawMessage
	err   error
	calls int
}

func (f *fakeMarket) GetTopMarkets(_ context.Context) ([]models.MarketCoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.coins, nil
}

func (f *fakeMarket) set(coins []models.MarketCoin, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coins, f.err = coins, err
}

// GetTopMarketsRaw returns raw when set, otherwise the encoded coins.
func (f *fakeMarket) GetTopMarketsRaw(_ context.Context) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.raw != nil {
		return f.raw, nil
	}
	return json.Marshal(f.coins)
}

// newTestServer creates a test server backed by real badger storage and
// the real sync and auth services.
func newTestServer(t *testing.T) (*Server, *fakeMarket) {
	t.Helper()
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = "test-secret"

	mgr, err := badger.NewManager(logger, filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	market := &fakeMarket{}
	a := &app.App{
		Config:       cfg,
		Logger:       logger,
		Storage:      mgr,
		MarketClient: market,
		SyncService:  coinsync.NewService(market, mgr.SnapshotStore(), logger),
		AuthService:  auth.NewService(mgr.UserStore(), cfg.Auth.JWTSecret, logger),
	}
	return NewServer(a), market
}

func do(t *testing.T, srv *Server, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func bitcoin(price float64) models.MarketCoin {
	change := 2.5
	return models.MarketCoin{
		ID:                       "bitcoin",
		Symbol:                   "btc",
		Name:                     "Bitcoin",
		CurrentPrice:             price,
		MarketCap:                1e12,
		MarketCapRank:            1,
		PriceChangePercentage24h: &change,
	}
}

func TestRoot_Banner(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rootBanner, rec.Body.String())
}

func TestUnknownPath_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/nope", "/api/nope", "/api/users/whoami", "/api/history/"} {
		rec := do(t, srv, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		var resp MessageResponse
		decode(t, rec, &resp)
		assert.Equal(t, "Endpoint not found", resp.Message)
	}
}

func TestHealthAndVersion(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/version", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var v common.VersionInfo
	decode(t, rec, &v)
	assert.Equal(t, common.GetVersion(), v.Version)
}

func TestWrongMethod(t *testing.T) {
	srv, _ := newTestServer(t)
	cases := []struct{ method, path, allow string }{
		{http.MethodPost, "/api/coins", "GET"},
		{http.MethodGet, "/api/history", "POST"},
		{http.MethodDelete, "/api/history/bitcoin", "GET"},
		{http.MethodGet, "/api/users/login", "POST"},
		{http.MethodPost, "/api/users/me", "GET"},
	}
	for _, tc := range cases {
		rec := do(t, srv, tc.method, tc.path, nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tc.path)
		assert.Equal(t, tc.allow, rec.Header().Get("Allow"), tc.path)
	}
}

func TestCoins_ProxiesUpstream(t *testing.T) {
	srv, market := newTestServer(t)
	market.set([]models.MarketCoin{bitcoin(50000)}, nil)

	rec := do(t, srv, http.MethodGet, "/api/coins", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var coins []models.MarketCoin
	decode(t, rec, &coins)
	require.Len(t, coins, 1)
	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, 50000.0, coins[0].CurrentPrice)
}

func TestCoins_RelaysUpstreamBodyUnchanged(t *testing.T) {
	srv, market := newTestServer(t)
	upstream := `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":50000,"high_24h":51000,"ath":69000,"price_change_percentage_24h":null,"roi":null,"last_updated":null}]`
	market.mu.Lock()
	market.raw = json.RawMessage(upstream)
	market.mu.Unlock()

	rec := do(t, srv, http.MethodGet, "/api/coins", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, upstream, rec.Body.String())
}

func TestCoins_UpstreamFailure(t *testing.T) {
	srv, market := newTestServer(t)
	market.set(nil, coingecko.ErrUpstreamUnavailable)

	rec := do(t, srv, http.MethodGet, "/api/coins", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch coins"}`, rec.Body.String())
}

func TestCoins_RateLimitRelayed(t *testing.T) {
	srv, market := newTestServer(t)
	body := []byte(`{"status":{"error_code":429,"error_message":"You've exceeded the Rate Limit."}}`)
	market.set(nil, &coingecko.APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited", Body: body})

	rec := do(t, srv, http.MethodGet, "/api/coins", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, string(body), rec.Body.String())
}

func TestSnapshotThenHistory(t *testing.T) {
	srv, market := newTestServer(t)
	market.set([]models.MarketCoin{bitcoin(50000)}, nil)

	rec := do(t, srv, http.MethodPost, "/api/history", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp snapshotResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "Manual sync completed", resp.Message)
	assert.Equal(t, 1, resp.Count)

	market.set([]models.MarketCoin{bitcoin(51000)}, nil)
	rec = do(t, srv, http.MethodPost, "/api/history", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/history/bitcoin", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.HistoryEntry
	decode(t, rec, &history)
	require.Len(t, history, 2)
	assert.Equal(t, 50000.0, history[0].Price)
	assert.Equal(t, 51000.0, history[1].Price)
	assert.False(t, history[1].Timestamp.Before(history[0].Timestamp))

	rec = do(t, srv, http.MethodGet, "/api/coins/current", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current []models.CoinSnapshot
	decode(t, rec, &current)
	require.Len(t, current, 1)
	assert.Equal(t, 51000.0, current[0].Price)
}

func TestSnapshot_FailureLeavesStoreUntouched(t *testing.T) {
	srv, market := newTestServer(t)
	market.set([]models.MarketCoin{bitcoin(50000)}, nil)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/history", nil, nil).Code)

	market.set(nil, errors.New("boom"))
	rec := do(t, srv, http.MethodPost, "/api/history", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to sync coin data"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/history/bitcoin", nil, nil)
	var history []models.HistoryEntry
	decode(t, rec, &history)
	assert.Len(t, history, 1)
}

func TestHistory_UnknownCoinEmpty(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/history/dogecoin", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSignupLoginMe(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/users", map[string]string{
		"name": "Vic", "email": "vic@example.com", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	var signup authResponse
	decode(t, rec, &signup)
	assert.True(t, signup.OK)
	assert.Equal(t, "vic@example.com", signup.User.Email)
	assert.NotEmpty(t, signup.User.ID)
	assert.NotEmpty(t, signup.Token)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(t, srv, http.MethodPost, "/api/users/login", map[string]string{
		"email": "vic@example.com", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var login authResponse
	decode(t, rec, &login)
	assert.Equal(t, signup.User, login.User)

	rec = do(t, srv, http.MethodGet, "/api/users/me", nil, map[string]string{
		"Authorization": "Bearer " + login.Token,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var me meResponse
	decode(t, rec, &me)
	assert.Equal(t, signup.User.ID, me.ID)
	assert.Equal(t, "Vic", me.Name)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSignup_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/users", map[string]string{"email": "a@b.c"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing required fields"}`, rec.Body.String())

	user := map[string]string{"name": "A", "email": "a@b.c", "password": "pw"}
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/users", user, nil).Code)

	rec = do(t, srv, http.MethodPost, "/api/users", user, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"message":"User already exists"}`, rec.Body.String())
}

func TestLogin_Errors(t *testing.T) {
	srv, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/users",
		map[string]string{"name": "A", "email": "a@b.c", "password": "pw"}, nil).Code)

	rec := do(t, srv, http.MethodPost, "/api/users/login", map[string]string{"email": "a@b.c"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing email or password"}`, rec.Body.String())

	for _, creds := range []map[string]string{
		{"email": "a@b.c", "password": "wrong"},
		{"email": "nobody@b.c", "password": "pw"},
	} {
		rec = do(t, srv, http.MethodPost, "/api/users/login", creds, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid email or password"}`, rec.Body.String())
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing email or password"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing required fields"}`, rec.Body.String())
}

func TestAccount_EmptyBodyIsMissingFields(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/users", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing required fields"}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/users/login", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing email or password"}`, rec.Body.String())
}

func TestMe_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"No token provided"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/users/me", nil, map[string]string{"Authorization": "Token abc"})
	assert.JSONEq(t, `{"message":"No token provided"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/users/me", nil, map[string]string{"Authorization": "Bearer not.a.jwt"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid token"}`, rec.Body.String())
}

func TestMe_TokenForOtherSecretRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	other := auth.NewService(srv.app.Storage.UserStore(), "other-secret", common.NewSilentLogger())
	res, err := other.Signup(context.Background(), "A", "a@b.c", "pw")
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/api/users/me", nil, map[string]string{"Authorization": "Bearer " + res.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHistorySignals(t *testing.T) {
	srv, market := newTestServer(t)
	for _, price := range []float64{50000, 50500, 51000} {
		market.set([]models.MarketCoin{bitcoin(price)}, nil)
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/history", nil, nil).Code)
	}

	rec := do(t, srv, http.MethodGet, "/api/history/bitcoin/signals", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var s models.PriceSignals
	decode(t, rec, &s)
	assert.Equal(t, "bitcoin", s.CoinID)
	assert.Equal(t, 3, s.Points)
	assert.Equal(t, 51000.0, s.LastPrice)
	assert.Equal(t, 50000.0, s.Low)

	rec = do(t, srv, http.MethodGet, "/api/history/bitcoin/other", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
