// Package client talks to a running action server the way the platform does:
// it reads metadata and posts signed, mocked interactions.
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

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/mattjoyce/niftyapes-action/internal/interaction"
	"github.com/mattjoyce/niftyapes-action/internal/signature"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

// Result is the outcome of a full invocation round trip.
type Result struct {
	Metadata    *interaction.Metadata `json:"metadata"`
	Interaction json.RawMessage       `json:"interaction"`
	Response    *interaction.Response `json:"response"`
}

// Client calls one action mounted at a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     signature.Signer
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock overrides the time used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a client for the action at baseURL, e.g.
// http://127.0.0.1:8080/niftyapes. signer may be nil for metadata-only use.
func New(baseURL string, signer signature.Signer, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		signer:     signer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Metadata fetches GET <base>/metadata.
func (c *Client) Metadata(ctx context.Context) (*interaction.Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metadata", nil)
	if err != nil {
		return nil, err
	}

	var md interaction.Metadata
	if err := c.do(req, &md); err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	return &md, nil
}

// Invoke posts a signed action request carrying rawInteraction.
func (c *Client) Invoke(ctx context.Context, rawInteraction json.RawMessage) (*interaction.Response, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("invoke: no signing key configured")
	}

	body, err := json.Marshal(map[string]json.RawMessage{"interaction": rawInteraction})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interactions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := signature.SignRequest(req.Header, c.signer, body, c.now()); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	var resp interaction.Response
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("invoke: %w", err)
	}
	return &resp, nil
}

// Run fetches metadata, then invokes command with a mocked interaction built
// from it. The command must be one the metadata declares.
func (c *Client) Run(ctx context.Context, command string) (*Result, error) {
	md, err := c.Metadata(ctx)
	if err != nil {
		return nil, err
	}

	declared := false
	for _, name := range md.CommandNames() {
		if name == command {
			declared = true
			break
		}
	}
	if !declared {
		return nil, fmt.Errorf("command %q not declared by %s (available: %s)",
			command, md.Manifest.AppID, strings.Join(md.CommandNames(), ", "))
	}

	raw, err := MockCommand(md.Manifest.AppID, command)
	if err != nil {
		return nil, err
	}

	resp, err := c.Invoke(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &Result{Metadata: md, Interaction: raw, Response: resp}, nil
}

// Ping posts a signed ping interaction.
func (c *Client) Ping(ctx context.Context) (*interaction.Response, error) {
	raw, err := json.Marshal(map[string]any{
		"id":             uuid.NewString(),
		"application_id": "ping",
		"type":           discordgo.InteractionPing,
		"token":          uuid.NewString(),
		"version":        1,
	})
	if err != nil {
		return nil, err
	}
	return c.Invoke(ctx, raw)
}

// MockCommand builds an application command interaction with fresh ids, in
// the shape the platform relays.
func MockCommand(appID, command string) (json.RawMessage, error) {
	return json.Marshal(map[string]any{
		"id":             uuid.NewString(),
		"application_id": appID,
		"type":           discordgo.InteractionApplicationCommand,
		"token":          uuid.NewString(),
		"version":        1,
		"data": map[string]any{
			"id":   uuid.NewString(),
			"name": command,
			"type": discordgo.ChatApplicationCommand,
		},
	})
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
