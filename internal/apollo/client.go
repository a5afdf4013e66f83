package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iago/outreach-leadgen/internal/icp"
	"github.com/iago/outreach-leadgen/internal/retry"
)

const (
	DefaultBaseURL     = "https://api.apollo.io/api/v1"
	DefaultTimeout     = 20 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

type ClientConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client

	// Retry overrides the default policy (3 attempts, 1s doubling).
	// Retryable is always set by the client.
	Retry retry.Policy

	// RateLimitRPS throttles outgoing calls. Set to <=0 to disable.
	RateLimitRPS float64
}

// Client searches people through the Apollo API.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	policy     retry.Policy
	limiter    *rate.Limiter
}

func NewClient(config ClientConfig) *Client {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	policy := config.Retry
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultBaseDelay
	}
	policy.Retryable = IsRetryable

	var limiter *rate.Limiter
	if config.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimitRPS), 1)
	}

	return &Client{
		apiKey:     strings.TrimSpace(config.APIKey),
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		timeout:    config.Timeout,
		httpClient: config.HTTPClient,
		policy:     policy,
		limiter:    limiter,
	}
}

func (c *Client) Available() bool {
	return c.apiKey != ""
}

type searchRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	icp.Filters
}

// Search fetches one page of people matching filters.
func (c *Client) Search(ctx context.Context, filters icp.Filters, page, perPage int) (SearchPage, error) {
	if !c.Available() {
		return SearchPage{}, ErrMissingAPIKey
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 25
	}

	payload, err := json.Marshal(searchRequest{Page: page, PerPage: perPage, Filters: filters})
	if err != nil {
		return SearchPage{}, fmt.Errorf("marshal apollo payload: %w", err)
	}

	result, err := retry.Do(ctx, c.policy, func(ctx context.Context) (SearchPage, error) {
		return c.callSearchAPI(ctx, payload)
	})
	if err != nil {
		return SearchPage{}, fmt.Errorf("apollo: %w", err)
	}
	return result, nil
}

func (c *Client) callSearchAPI(ctx context.Context, payload []byte) (SearchPage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return SearchPage{}, err
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(
		timeoutCtx,
		http.MethodPost,
		c.baseURL+"/mixed_people/search",
		bytes.NewReader(payload),
	)
	if err != nil {
		return SearchPage{}, fmt.Errorf("create apollo request: %w", err)
	}
	httpRequest.Header.Set("X-Api-Key", c.apiKey)
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")
	httpRequest.Header.Set("Cache-Control", "no-cache")

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return SearchPage{}, &transportError{err: err}
	}
	defer httpResponse.Body.Close()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return SearchPage{}, &transportError{err: fmt.Errorf("read apollo body: %w", err)}
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return SearchPage{}, newHTTPError(httpResponse.StatusCode, body)
	}
	return decodeSearchPage(body)
}

// IsRetryable reports whether a search error is transient: 429, 5xx,
// network failures and per-call timeouts.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	var transportErr *transportError
	if errors.As(err, &transportErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
