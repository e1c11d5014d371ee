package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Coins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/coins", r.URL.Path)
		w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":50000,"market_cap":1e12,"market_cap_rank":1}]`))
	}))
	defer server.Close()

	coins, err := NewClient(server.URL + "/api/").Coins(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, 1, coins[0].MarketCapRank)
}

func TestClient_RateLimitStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Coins(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestClient_RateLimitMarkerIn200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"error_code":429,"error_message":"You've exceeded the Rate Limit."}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Coins(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestClient_APIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid email or password"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Login(context.Background(), "a@b.c", "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
}

func TestClient_ErrorFieldFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to sync coin data"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Snapshot(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Failed to sync coin data", apiErr.Message)
}

func TestClient_SignupAndMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			assert.Equal(t, http.MethodPost, r.Method)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Vic", body["name"])
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"ok":true,"user":{"id":"u1","name":"Vic","email":"vic@example.com"},"token":"tok"}`))
		case "/users/me":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Write([]byte(`{"id":"u1","name":"Vic","email":"vic@example.com"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL)
	res, err := c.Signup(context.Background(), "Vic", "vic@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "u1", res.User.ID)

	me, err := c.Me(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, "vic@example.com", me.Email)
}

func TestClient_HistoryEscapesID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history/a%2Fb", r.URL.EscapedPath())
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	entries, err := NewClient(server.URL).History(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).Coins(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
}
