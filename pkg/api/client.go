package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Client talks to the learning platform REST API. Streaming requests use a
// separate transport without a client-level timeout so long responses are
// bounded only by the caller's context.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	streamClient *http.Client

	docMu        sync.Mutex
	docCache     []Document
	docFetchedAt time.Time
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return NewClientWithTimeout(baseURL, token, 30*time.Second)
}

// NewClientWithTimeout creates a new API client with a custom timeout for
// non-streaming requests
func NewClientWithTimeout(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		streamClient: &http.Client{},
	}
}

// SetToken replaces the bearer token used on subsequent requests
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

// doJSON performs a request and decodes a JSON response into out. A nil out
// discards the body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// decodeError extracts a human-readable message from an error response body,
// falling back to the status code when the body carries nothing usable
func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(body) == 0 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Detail != "":
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, payload.Detail)
		case payload.Error != "":
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, payload.Error)
		case payload.Message != "":
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, payload.Message)
		}
	}

	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
}
