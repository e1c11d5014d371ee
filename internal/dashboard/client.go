// Package dashboard is the client side of cryptotrack: an API client, a
// cache-backed coin feed, list filtering and sorting, and text and chart
// rendering for the CLI.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/models"
)

const (
	DefaultAPIBase = "http://localhost:5000/api"
	DefaultTimeout = 30 * time.Second
	maxBodySize    = 4 << 20
)

// ErrRateLimited is returned when the API relays an upstream rate limit,
// either as HTTP 429 or as a {"status":{"error_code":429}} body.
var ErrRateLimited = errors.New("rate limited")

// APIError is a non-2xx response from the cryptotrack API.
type APIError struct {
	StatusCode int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cryptotrack API error: %s (status: %d, path: %s)", e.Message, e.StatusCode, e.Path)
}

// SnapshotResult is the response of a manual sync.
type SnapshotResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// Profile is the signed-in user as returned by /users/me.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Client talks to the cryptotrack HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClientLogger sets the logger
func WithClientLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the API rooted at baseURL (".../api").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rateLimitMarker struct {
	Status *struct {
		ErrorCode int `json:"error_code"`
	} `json:"status"`
}

func isRateLimitBody(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var marker rateLimitMarker
	if err := json.Unmarshal(trimmed, &marker); err != nil {
		return false
	}
	return marker.Status != nil && marker.Status.ErrorCode == http.StatusTooManyRequests
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || isRateLimitBody(data) {
		return ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		json.Unmarshal(data, &msg)
		text := msg.Message
		if text == "" {
			text = msg.Error
		}
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: text, Path: path}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Coins fetches the live top-N list.
func (c *Client) Coins(ctx context.Context) ([]models.MarketCoin, error) {
	var coins []models.MarketCoin
	if err := c.do(ctx, http.MethodGet, "/coins", "", nil, &coins); err != nil {
		return nil, err
	}
	if coins == nil {
		coins = []models.MarketCoin{}
	}
	return coins, nil
}

// Current fetches the stored current snapshot.
func (c *Client) Current(ctx context.Context) ([]models.CoinSnapshot, error) {
	var snaps []models.CoinSnapshot
	if err := c.do(ctx, http.MethodGet, "/coins/current", "", nil, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// History fetches the chronological history of one coin.
func (c *Client) History(ctx context.Context, coinID string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := c.do(ctx, http.MethodGet, "/history/"+url.PathEscape(coinID), "", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Snapshot triggers a manual sync.
func (c *Client) Snapshot(ctx context.Context) (*SnapshotResult, error) {
	var result SnapshotResult
	if err := c.do(ctx, http.MethodPost, "/history", "", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Signup creates an account and returns its session.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*models.AuthResult, error) {
	var result models.AuthResult
	in := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users", "", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login opens a session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var result models.AuthResult
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users/login", "", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Me returns the user that token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/users/me", token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
