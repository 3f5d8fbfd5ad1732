// Package brandsearch is the Go client for the brand directory search API.
// It wraps the HTTP endpoints and adds the interactive search behavior that
// callers such as admin tooling need: debouncing, stale-response discard,
// and keyword fallback when semantic search finds nothing.
package brandsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrTimeout reports that a search request exceeded its deadline. Callers
// show a dedicated "search timed out" message for this instead of the
// generic failure text.
var ErrTimeout = errors.New("brandsearch: request timed out")

// DefaultTimeout bounds a single search request end to end.
const DefaultTimeout = 30 * time.Second

// Result is one brand returned by either search mode. Similarity is set
// only for semantic results.
type Result struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Creators        string   `json:"creators"`
	ProductCategory *string  `json:"product_category,omitempty"`
	Description     string   `json:"description"`
	Similarity      *float64 `json:"similarity,omitempty"`
}

// ClientOptions configures the directory API client.
type ClientOptions struct {
	// BaseURL is the directory service base URL, without /v1.
	BaseURL string
	// APIKey is sent as a Bearer token.
	APIKey string
	// RetryMax is the maximum number of retries (default: 3)
	RetryMax int
	// Timeout is the HTTP client timeout (default: 30 seconds)
	Timeout time.Duration
}

// Client is the directory search API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
}

// NewClient creates a client with default settings.
func NewClient(baseURL, apiKey string) *Client {
	return NewClientWithOptions(ClientOptions{BaseURL: baseURL, APIKey: apiKey})
}

// NewClientWithOptions creates a client with custom options.
func NewClientWithOptions(opts ClientOptions) *Client {
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/v1")

	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil
	// Hand back the final response instead of a "giving up" error so
	// status codes can be mapped after retries are exhausted.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: retryClient,
	}
}

func (c *Client) v1URL() string {
	return c.baseURL + "/v1"
}

// SemanticSearch runs vector search for the query. An empty slice with a
// nil error means the search succeeded and matched nothing; that is the
// only case where callers should fall back to keyword search.
func (c *Client) SemanticSearch(ctx context.Context, query string) ([]Result, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := c.v1URL() + "/brands/search/semantic"

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, req)
}

// KeywordSearch runs substring matching on brand name and creators.
func (c *Client) KeywordSearch(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)

	reqURL := c.v1URL() + "/brands/search/keyword?" + params.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *retryablehttp.Request) ([]Result, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}

		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusGatewayTimeout {
		return nil, ErrTimeout
	}

	if resp.StatusCode != http.StatusOK {
		if msg := errorMessage(body); msg != "" {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, msg)
		}

		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return decodeResults(body)
}

// decodeResults accepts both response shapes the service has used over
// time: a bare JSON array of results and an object with a "results" field.
// An object with an "error" field is reported as an error even under a 200.
func decodeResults(body []byte) ([]Result, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var results []Result
		if err := json.Unmarshal(body, &results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}

		return results, nil
	}

	var envelope struct {
		Results []Result        `json:"results"`
		Error   json.RawMessage `json:"error"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		var msg string
		if err := json.Unmarshal(envelope.Error, &msg); err != nil {
			msg = string(envelope.Error)
		}

		return nil, fmt.Errorf("search failed: %s", msg)
	}

	if envelope.Results == nil {
		return []Result{}, nil
	}

	return envelope.Results, nil
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	if envelope.Error != "" {
		return envelope.Error
	}

	return envelope.Detail
}
