// Package api is the outbound REST client for the Villa bot platform.
// Calls authenticate with the bot credential headers and are scoped to
// one villa per request. The client is safe for concurrent use; all
// handlers of all bots may share it through its connection pool.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/keepmind9/villabot/pkg/constants"
)

// Client calls the bot platform REST API on behalf of one bot.
type Client struct {
	httpClient *http.Client
	baseURL    string
	botID      string
	secret     string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint, mainly
// for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the given bot credentials.
func New(botID, secret string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: constants.DefaultAPITimeout},
		baseURL:    constants.DefaultAPIBaseURL,
		botID:      botID,
		secret:     secret,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}
	return c
}

// response is the envelope every API call answers with.
type response struct {
	Retcode int             `json:"retcode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// request performs one API call. villaID of zero omits the villa
// scoping header, for villa-independent endpoints.
func (c *Client) request(ctx context.Context, method, path string, villaID uint64, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("api: encode %s request: %w", path, err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderBotID, c.botID)
	req.Header.Set(constants.HeaderBotSecret, c.secret)
	if villaID != 0 {
		req.Header.Set(constants.HeaderBotVillaID, strconv.FormatUint(villaID, 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: call %s: %w", path, err)
	}
	defer resp.Body.Close()

	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("api: decode %s response: %w", path, err)
	}
	if envelope.Retcode != constants.RetcodeOK {
		return &Error{Retcode: envelope.Retcode, Message: envelope.Message}
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("api: decode %s data: %w", path, err)
		}
	}
	return nil
}
