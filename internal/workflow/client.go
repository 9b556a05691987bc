package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "Citizen-Portaal/1.0"

// ErrNotConfigured is returned by Submit when no webhook URL is set.
var ErrNotConfigured = errors.New("workflow webhook url not configured")

// Job is the analysis request posted to the workflow engine.
type Job struct {
	ProjectID       string  `json:"projectId"`
	Name            string  `json:"projectnaam"`
	Location        *string `json:"locatie"`
	RadiusMeters    *int    `json:"radius_meters"`
	WorkDescription *string `json:"omschrijving_werkzaamheden"`
	Planning        *string `json:"globale_planning"`
	Detours         *string `json:"omleidingen_bereikbaarheidsissues"`
	UserID          string  `json:"user_id"`
	UserEmail       string  `json:"user_email"`
	CreatedAt       string  `json:"created_at"`
	CallbackURL     string  `json:"callback_url,omitempty"`
	// Engine echoes this back in the callback secret header.
	CallbackSecret string `json:"callback_secret,omitempty"`
}

// StatusError is a non-2xx answer from the engine.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("workflow engine returned status %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	WebhookURL string
	Timeout    time.Duration
	// RateLimit caps submissions per second; zero disables limiting.
	RateLimit rate.Limit
	Burst     int
}

// Client posts analysis jobs to the workflow engine's webhook.
type Client struct {
	webhookURL string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new workflow engine client
func NewClient(opt Options) *Client {
	if opt.Timeout == 0 {
		opt.Timeout = 10 * time.Second
	}
	c := &Client{
		webhookURL: opt.WebhookURL,
		httpClient: &http.Client{Timeout: opt.Timeout},
	}
	if opt.RateLimit > 0 {
		if opt.Burst < 1 {
			opt.Burst = 1
		}
		c.limiter = rate.NewLimiter(opt.RateLimit, opt.Burst)
	}
	return c
}

// Configured reports whether a webhook URL is set.
func (c *Client) Configured() bool {
	return c.webhookURL != ""
}

// Submit posts job once. Any transport error or non-2xx status is returned;
// the caller decides what a failed dispatch means for the project.
func (c *Client) Submit(ctx context.Context, job Job) error {
	if c.webhookURL == "" {
		return ErrNotConfigured
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	jsonData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call workflow engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
