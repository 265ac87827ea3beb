package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gatewarden/internal/config"
)

const userAgent = "Gatewarden-Go/0.1.0"

// Client is a minimal REST client for the chat platform API. It implements
// both the notification and directory surfaces used by the enforcer.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient builds a client from configuration. The returned client is safe
// for concurrent use.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Chat.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Chat.APIBaseURL, "/"),
		token:   strings.TrimSpace(cfg.Chat.BotToken),
		client:  &http.Client{Timeout: timeout},
	}
}

// apiError is the platform's JSON error envelope.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return transientError(method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return classifyStatus(method+" "+path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// newAuditRequest builds a bodyless request carrying an audit-log reason.
func (c *Client) newAuditRequest(ctx context.Context, method, path, reason string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bot "+c.token)
	if reason = strings.TrimSpace(reason); reason != "" {
		req.Header.Set("X-Audit-Log-Reason", reason)
	}
	return req, nil
}
