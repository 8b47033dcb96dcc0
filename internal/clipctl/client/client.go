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

	"github.com/gorilla/websocket"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "clipctl")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}

	if respBody != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(respBody)
	}
	return nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("%s: %s", errResp.Code, errResp.Message)
	}
	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
}

// Render submits a composition for rendering. The payload is sent as-is
// so the server performs all validation.
func (c *Client) Render(ctx context.Context, compositionID string, payload interface{}) (*RenderAccepted, error) {
	var result RenderAccepted
	path := "/v1/compositions/" + url.PathEscape(compositionID) + "/render"
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetComposition(ctx context.Context, compositionID string) (*Composition, error) {
	var result Composition
	path := "/v1/compositions/" + url.PathEscape(compositionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetJob(ctx context.Context, jobID string) (*Composition, error) {
	var result Composition
	path := "/v1/jobs/" + url.PathEscape(jobID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Watch subscribes to the progress stream for a composition and invokes
// fn for every frame until the composition reaches a terminal status,
// the server drops the connection, or the context is done. Heartbeat
// pings are answered transparently and not passed to fn.
func (c *Client) Watch(ctx context.Context, compositionID string, fn func(*ProgressMessage)) error {
	wsURL, err := c.websocketURL("/ws/compositions/" + url.PathEscape(compositionID))
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("subscribe failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("subscribe failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock ReadJSON when the caller gives up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var msg ProgressMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("stream closed: %w", err)
		}

		if msg.Type == "ping" {
			pong := ProgressMessage{Type: "pong", Sequence: msg.Sequence, Timestamp: time.Now().UnixMilli()}
			if err := conn.WriteJSON(&pong); err != nil {
				return fmt.Errorf("heartbeat reply failed: %w", err)
			}
			continue
		}

		fn(&msg)

		if msg.Type == "status" && isTerminal(msg.Status) {
			return nil
		}
		if msg.Type == "error" {
			return nil
		}
	}
}

func isTerminal(status string) bool {
	switch status {
	case "completed", "failed", "timeout", "cancelled":
		return true
	}
	return false
}

func (c *Client) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}
