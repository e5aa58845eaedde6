// internal/client/client.go
//
// HTTP transport for the Hangman API.

// Package client is the Go SDK for the Hangman HTTP API.
//
// A Client is a stateless transport. A Session holds everything that belongs to
// one signed-in player (identity, token, current game) and enforces the rules
// around in-flight requests: one account request and one game request at a
// time, bounded by a timeout, with late responses dropped after Abandon or
// Logout.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/robalobadob/hangman/internal/account"
	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/words"
)

// DefaultTimeout bounds every request made through a Session.
const DefaultTimeout = 10 * time.Second

var (
	ErrBusy             = errors.New("client: a request of this kind is already in flight")
	ErrStale            = errors.New("client: response arrived after the session moved on")
	ErrNotAuthenticated = errors.New("client: not signed in")
	ErrNoGame           = errors.New("client: no game in progress")
	ErrGameNotFound     = errors.New("client: game not found")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Code   string
	Unmet  []account.Requirement
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Code)
}

var codeErrors = map[string]error{
	"game_over":           game.ErrGameOver,
	"empty_guess":         game.ErrEmptyGuess,
	"no_valid_word":       words.ErrNoValidWord,
	"invalid_custom_word": words.ErrInvalidCustomWord,
	"game_not_found":      ErrGameNotFound,
	"unauthorized":        ErrNotAuthenticated,
	"invalid_token":       ErrNotAuthenticated,
}

// Is lets callers test API errors against the package sentinels they stand for,
// e.g. errors.Is(err, game.ErrGameOver).
func (e *APIError) Is(target error) bool {
	mapped, ok := codeErrors[e.Code]
	return ok && mapped == target
}

// Client talks to one server.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a Client for baseURL (e.g. "http://localhost:5175").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do sends a JSON request and decodes a 2xx JSON response into out.
// Network failures, timeouts and undecodable bodies come back as
// account.KindTransport errors; other statuses as *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &account.Error{Kind: account.KindTransport, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var eb struct {
			Error string                `json:"error"`
			Unmet []account.Requirement `json:"unmet"`
		}
		_ = json.NewDecoder(res.Body).Decode(&eb)
		if eb.Error == "" {
			eb.Error = http.StatusText(res.StatusCode)
		}
		return &APIError{Status: res.StatusCode, Code: eb.Error, Unmet: eb.Unmet}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &account.Error{Kind: account.KindTransport, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// accountErr turns an API error from an /auth endpoint into the tagged account
// error it encodes.
func accountErr(err error) error {
	var ae *APIError
	if !errors.As(err, &ae) {
		return err
	}
	kind := account.Kind(ae.Code)
	switch kind {
	case account.KindBlankUsername, account.KindUsernameTaken, account.KindPasswordPolicy,
		account.KindPasswordMismatch, account.KindBlankFields, account.KindInvalidCredentials,
		account.KindPostRegistrationLogin, account.KindTransport:
		return &account.Error{Kind: kind, Unmet: ae.Unmet, Err: ae}
	}
	return err
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/ping", "", nil, nil)
}
