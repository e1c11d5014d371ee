// Package coingecko provides a client for the CoinGecko markets API
package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/models"
)

const (
	DefaultBaseURL    = "https://api.coingecko.com/api/v3"
	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 30 // requests per minute, free tier
	DefaultPerPage    = 10
	DefaultVsCurrency = "usd"

	maxBodySize = 4 << 20
)

// ErrUpstreamUnavailable covers transport failures, non-2xx responses and
// rate-limit markers. Callers match it with errors.Is.
var ErrUpstreamUnavailable = errors.New("market data upstream unavailable")

// Client implements interfaces.MarketDataClient
type Client struct {
	baseURL    string
	apiKey     string
	vsCurrency string
	perPage    int
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

var _ interfaces.MarketDataClient = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithAPIKey sets the demo API key sent as x-cg-demo-api-key
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the number of requests allowed per minute
func WithRateLimit(requestsPerMinute int) ClientOption {
	return func(c *Client) {
		if requestsPerMinute > 0 {
			c.limiter = newLimiter(requestsPerMinute)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithPerPage sets how many assets a call returns
func WithPerPage(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithVsCurrency sets the quote currency
func WithVsCurrency(currency string) ClientOption {
	return func(c *Client) {
		if currency != "" {
			c.vsCurrency = currency
		}
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// NewClient creates a new CoinGecko client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		vsCurrency: DefaultVsCurrency,
		perPage:    DefaultPerPage,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: newLimiter(DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig builds a client from the coingecko config section.
func NewClientFromConfig(cfg common.CoinGeckoConfig, logger *common.Logger) *Client {
	opts := []ClientOption{
		WithLogger(logger),
		WithAPIKey(cfg.APIKey),
		WithPerPage(cfg.PerPage),
		WithVsCurrency(cfg.VsCurrency),
		WithRateLimit(cfg.RateLimit),
		WithTimeout(cfg.GetTimeout()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return NewClient(opts...)
}

// APIError is returned for non-2xx responses and rate-limit markers.
// Body holds the upstream payload so it can be relayed.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("CoinGecko API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap lets errors.Is match ErrUpstreamUnavailable.
func (e *APIError) Unwrap() error {
	return ErrUpstreamUnavailable
}

// IsRateLimited reports whether the upstream refused the call for quota.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// statusMarker is the error object CoinGecko sometimes returns with a 2xx.
type statusMarker struct {
	Status *struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

// get performs a rate-limited GET request and returns the 2xx body
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	c.logger.Debug().Str("url", reqURL).Msg("CoinGecko API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
			Body:       body,
		}
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		var marker statusMarker
		if json.Unmarshal(trimmed, &marker) == nil && marker.Status != nil && marker.Status.ErrorCode != 0 {
			return nil, &APIError{
				StatusCode: marker.Status.ErrorCode,
				Message:    marker.Status.ErrorMessage,
				Endpoint:   path,
				Body:       body,
			}
		}
	}

	return body, nil
}

// marketsParams builds the /coins/markets query.
func (c *Client) marketsParams() url.Values {
	params := url.Values{}
	params.Set("vs_currency", c.vsCurrency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(c.perPage))
	params.Set("page", "1")
	return params
}

// GetTopMarketsRaw returns the /coins/markets array exactly as upstream sent
// it. The body must be a JSON array.
func (c *Client) GetTopMarketsRaw(ctx context.Context) (json.RawMessage, error) {
	body, err := c.get(ctx, "/coins/markets", c.marketsParams())
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' || !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: response is not a JSON array", ErrUpstreamUnavailable)
	}
	return json.RawMessage(trimmed), nil
}

// GetTopMarkets returns the top assets by market cap.
func (c *Client) GetTopMarkets(ctx context.Context) ([]models.MarketCoin, error) {
	body, err := c.get(ctx, "/coins/markets", c.marketsParams())
	if err != nil {
		return nil, err
	}

	var coins []models.MarketCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrUpstreamUnavailable, err)
	}
	if coins == nil {
		coins = []models.MarketCoin{}
	}

	c.logger.Debug().Int("count", len(coins)).Msg("CoinGecko markets fetched")
	return coins, nil
}
