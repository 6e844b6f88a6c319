// Package supabase is a minimal REST client for the hosted backend:
// GoTrue authentication, PostgREST tables, object storage, RPC invocation
// and realtime subscriptions. It covers exactly the calls the gallery
// makes; it is not a general SDK.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is the configured handle to the backend. It is safe for
// concurrent use and is owned for the process lifetime.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu        sync.Mutex
	listeners map[int]AuthChangeFunc
	nextID    int
}

// Config holds client configuration.
type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// New creates a backend client from the project URL and anon key.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase: URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase: APIKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		listeners:  make(map[int]AuthChangeFunc),
	}, nil
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string { return c.baseURL }

// RPC calls a named database function with a JSON argument mapping.
func (c *Client) RPC(ctx context.Context, fn string, params any) (*Response, error) {
	reqURL := fmt.Sprintf("%s/rest/v1/rpc/%s", c.baseURL, fn)

	var body io.Reader
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, "")
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req)
}

// Response is a raw backend response.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Err returns a typed *APIError when the response indicates failure.
func (r *Response) Err() error {
	if r.StatusCode < 400 {
		return nil
	}
	return parseAPIError(r.StatusCode, r.Body)
}

// setHeaders applies the anon key and, when given, the user's access token.
// Requests authenticated with a user token are subject to row-level security.
func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("apikey", c.apiKey)
	token := accessToken
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header,
	}, nil
}
