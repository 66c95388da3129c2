package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/mcp-training/battleship/game/engine"
	"github.com/wricardo/mcp-training/battleship/game/service"
)

// Client plays one session through the REST API.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client plays in.
func (c *Client) SessionID() string {
	return c.sessionID
}

// UseSession points the client at an existing session.
func (c *Client) UseSession(id string) {
	c.sessionID = id
}

type attackRequest struct {
	Row          int  `json:"row"`
	Col          int  `json:"col"`
	AutoOpponent bool `json:"auto_opponent"`
}

type resetResponse struct {
	Message string            `json:"message"`
	State   *engine.GameState `json:"state"`
}

// do sends a JSON request and decodes a 2xx answer into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, bytes.TrimSpace(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// CreateSession starts a new session and remembers its ID.
func (c *Client) CreateSession(ctx context.Context, configID string) (*engine.GameState, error) {
	var req any
	if configID != "" {
		req = map[string]string{"config_id": configID}
	}

	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return session.GameState, nil
}

// GetState returns the player's view of the session.
func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

// Attack fires at (row, col) and lets the server play the opponent's reply.
func (c *Client) Attack(ctx context.Context, target engine.Coordinate) (*service.AttackResult, error) {
	req := attackRequest{Row: target.Row, Col: target.Col, AutoOpponent: true}

	var result service.AttackResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/attack"), req, &result); err != nil {
		return nil, fmt.Errorf("attack %s: %w", target, err)
	}
	return &result, nil
}

// Reset redeploys both fleets.
func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp resetResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return resp.State, nil
}

// Verify checks the opponent's fleet against its commitment.
func (c *Client) Verify(ctx context.Context) (*service.VerifyResult, error) {
	var result service.VerifyResult
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/verify"), nil, &result); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	return &result, nil
}
