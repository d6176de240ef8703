package ghl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nawneet77/ghl/pkg/logging"
)

// DefaultBaseURL is the hosted GoHighLevel REST API.
const DefaultBaseURL = "https://services.leadconnectorhq.com"

// apiVersion is the Version header GoHighLevel requires on every call.
const apiVersion = "2021-07-28"

// defaultRequestTimeout bounds outbound API calls.
const defaultRequestTimeout = 30 * time.Second

// maxErrorBodySize caps how much of a provider error body is retained.
const maxErrorBodySize = 64 << 10

// APIError reports a non-2xx response from the GoHighLevel API. The facade
// never retries: some provider operations are not safe to retry blindly,
// so retry policy belongs to the caller.
type APIError struct {
	// StatusCode is the provider's HTTP status.
	StatusCode int

	// Path is the request path, for diagnostics.
	Path string

	// Body is the raw provider error body.
	Body string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("GoHighLevel API error: %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// Client performs outbound calls to the GoHighLevel REST API with a bearer
// token attached. The token is supplied per request, never stored here.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given API base URL. An empty baseURL
// selects the hosted platform; a nil httpClient falls back to a
// timeout-bounded default.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Request performs an API call with the given bearer token. A non-nil body
// is sent as JSON. Responses outside 2xx return an *APIError carrying the
// provider's status, body and the request path.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}, token string) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.Debug("API", "%s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody := data
		if len(errBody) > maxErrorBodySize {
			errBody = errBody[:maxErrorBodySize]
		}
		logging.Warn("API", "%s %s returned %d", method, path, resp.StatusCode)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Path:       path,
			Body:       string(errBody),
		}
	}

	return json.RawMessage(data), nil
}
