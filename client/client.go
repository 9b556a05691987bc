// Package client is the Go client for the portal's project API. It creates
// projects and waits for their analysis by polling the status endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "Citizen-Portaal-Client/1.0"

// Status values returned by the status endpoint.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProjectInput mirrors the create-with-webhook request body.
type ProjectInput struct {
	Name            string  `json:"projectnaam"`
	Location        *string `json:"locatie,omitempty"`
	RadiusMeters    *int    `json:"radius_meters,omitempty"`
	WorkDescription *string `json:"omschrijving_werkzaamheden,omitempty"`
	Planning        *string `json:"globale_planning,omitempty"`
	Detours         *string `json:"omleidingen_bereikbaarheidsissues,omitempty"`
}

// Status is the poller view of a project.
type Status struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s Status) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("portal api returned status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout
}

type Options struct {
	// BaseURL is the API root, e.g. https://portaal.example/api.
	BaseURL string
	// Token returns the caller's bearer token; it is called per request so
	// refreshed tokens are picked up.
	Token   func(ctx context.Context) (string, error)
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	token      func(ctx context.Context) (string, error)
	httpClient *http.Client
}

func New(opt Options) *Client {
	if opt.Timeout == 0 {
		opt.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opt.BaseURL, "/"),
		token:      opt.Token,
		httpClient: &http.Client{Timeout: opt.Timeout},
	}
}

// StaticToken is a Token func for a fixed bearer token.
func StaticToken(token string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return token, nil }
}

// CreateProject submits a project for analysis and returns its id.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (string, error) {
	var out struct {
		ProjectID string `json:"projectId"`
	}
	if err := c.do(ctx, http.MethodPost, "/projects/create-with-webhook", in, &out); err != nil {
		return "", err
	}
	if out.ProjectID == "" {
		return "", fmt.Errorf("create project: response carried no projectId")
	}
	return out.ProjectID, nil
}

// GetStatus fetches the current status of a project once.
func (c *Client) GetStatus(ctx context.Context, projectID string) (Status, error) {
	var out Status
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/status", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call portal api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
