// Package client is a small HTTP client for the Code-Lens review API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sevigo/code-lens/internal/core"
)

// DefaultTimeout covers a full fallback chain with default settings.
const DefaultTimeout = 3 * time.Minute

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("review API returned status %d", e.Status)
	}
	return fmt.Sprintf("review API returned status %d: %s", e.Status, e.Message)
}

// Client talks to a running Code-Lens server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL, e.g. "http://localhost:3000".
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Review submits code for review and returns the markdown answer.
func (c *Client) Review(ctx context.Context, code, language string) (string, error) {
	payload, err := json.Marshal(core.ReviewRequest{Code: code, Language: language})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/review", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp core.ReviewResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.Review == "" {
		return "No review was generated. Please try again.", nil
	}
	return resp.Review, nil
}

// Providers returns the server's configured fallback chain.
func (c *Client) Providers(ctx context.Context) ([]ProviderInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/providers", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var infos []ProviderInfo
	if err := c.do(req, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// ProviderInfo is the wire form of a configured provider.
type ProviderInfo struct {
	Name    string `json:"name"`
	Tier    string `json:"tier"`
	Timeout string `json:"timeout"`
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp core.ReviewResponse
		if json.Unmarshal(body, &errResp) == nil {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
