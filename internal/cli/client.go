package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/teambalancer/internal/api/apierr"
	"github.com/mcoot/teambalancer/internal/api/middleware"
	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
)

// Client is an HTTP client for the API
type Client struct {
	baseURL    string
	hostKey    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, hostKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		hostKey: hostKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the server URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHostKey updates the host key sent with every request
func (c *Client) SetHostKey(key string) {
	c.hostKey = key
}

// APIError represents an error response from the API
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *APIError) Error() string {
	return e.String()
}

// codeErrors maps API error codes back to the model errors they came from
var codeErrors = map[string]error{
	apierr.CodeInvalidName:         model.ErrInvalidName,
	apierr.CodeInvalidContent:      model.ErrInvalidContent,
	apierr.CodeInvalidTeamCount:    model.ErrInvalidTeamCount,
	apierr.CodeInsufficientPlayers: model.ErrInsufficientPlayers,
	apierr.CodeInvalidPartition:    model.ErrInvalidPartition,
	apierr.CodeInvalidRoomID:       model.ErrInvalidRoomID,
	apierr.CodeInvalidRoomMode:     model.ErrInvalidRoomMode,
	apierr.CodeRoomNotFound:        model.ErrRoomNotFound,
	apierr.CodePlayerNotFound:      model.ErrPlayerNotFound,
	apierr.CodePartitionNotFound:   model.ErrPartitionNotFound,
	apierr.CodeRoomExists:          model.ErrRoomExists,
	apierr.CodeNotHost:             model.ErrNotHost,
}

// Unwrap lets callers match API errors with errors.Is against model errors
func (e *APIError) Unwrap() error {
	return codeErrors[e.Code]
}

// Do performs an HTTP request
func (c *Client) Do(method, path string, body, result any) error {
	return c.DoContext(context.Background(), method, path, body, result)
}

// DoContext performs an HTTP request bound to ctx. Failures to reach the
// server are returned as boundary.TransportError.
func (c *Client) DoContext(ctx context.Context, method, path string, body, result any) error {
	url := c.baseURL + path
	op := method + " " + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return boundary.NewTransportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return boundary.NewTransportError(op, err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		return decodeError(op, resp.StatusCode, respBody)
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.hostKey != "" {
		req.Header.Set(middleware.HostKeyHeader, c.hostKey)
	}
}

// decodeError turns an error response into an *APIError, or a transport
// error when the server could not serve the request at all
func decodeError(op string, status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Code == "" {
		if status >= 500 {
			return boundary.NewTransportError(op, fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body))))
		}
		return fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
	}

	apiErr := errResp.Error
	apiErr.Status = status
	if apiErr.Code == apierr.CodeUnavailable {
		return boundary.NewTransportError(op, &apiErr)
	}
	return &apiErr
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(http.MethodPost, path, body, result)
}

// Put performs a PUT request
func (c *Client) Put(path string, body, result any) error {
	return c.Do(http.MethodPut, path, body, result)
}

// Patch performs a PATCH request
func (c *Client) Patch(path string, body, result any) error {
	return c.Do(http.MethodPatch, path, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(path string) error {
	return c.Do(http.MethodDelete, path, nil, nil)
}
