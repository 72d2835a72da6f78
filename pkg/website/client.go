// Package website talks to the companion website that lists the bot and
// the invite links of running games.
package website

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/internal/types"
)

const (
	invitePath       = "/api/invite"
	availabilityPath = "/api/availability"
	healthPath       = "/api/health"
)

// Client calls the website API. A client without URL does nothing.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *logging.Logger
}

// New creates a client for baseURL authenticated with token
func New(baseURL, token string, httpClient *http.Client, log *logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logging.Default
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		log:        log.With("website"),
	}
}

// Enabled reports whether a website is configured
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

type payload struct {
	Token   string `json:"token"`
	GuildID string `json:"guild_id,omitempty"`
	Link    string `json:"link,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return types.WrapError(types.ErrInternalError, "failed to encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return types.WrapError(types.ErrInternalError, "failed to create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.WrapError(types.ErrNetworkError, fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.NewGameError(types.ErrNetworkError,
			fmt.Sprintf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg))))
	}
	return nil
}

// PublishInvite posts the invite link of a guild
func (c *Client) PublishInvite(ctx context.Context, guildID, link string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, invitePath, payload{Token: c.token, GuildID: guildID, Link: link}); err != nil {
		c.log.Warn("posting invite link: %v", err)
		return err
	}
	c.log.Info("invite of guild %s published", guildID)
	return nil
}

// DeleteInvite removes the invite link of a guild
func (c *Client) DeleteInvite(ctx context.Context, guildID string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.do(ctx, http.MethodDelete, invitePath, payload{Token: c.token, GuildID: guildID}); err != nil {
		c.log.Warn("deleting invite link: %v", err)
		return err
	}
	c.log.Info("invite of guild %s deleted", guildID)
	return nil
}

// SetAvailability tells the website whether the bot can join a new guild
func (c *Client) SetAvailability(ctx context.Context, available bool) error {
	if !c.Enabled() {
		return nil
	}
	method := http.MethodDelete
	if available {
		method = http.MethodPost
	}
	if err := c.do(ctx, method, availabilityPath, payload{Token: c.token}); err != nil {
		c.log.Warn("updating availability: %v", err)
		return err
	}
	c.log.Debug("availability set to %v", available)
	return nil
}

// Ping checks the website is reachable
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.do(ctx, http.MethodGet, healthPath, nil)
}
