// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package tutorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bktutor/bktutor/lib/netutil"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the root of the course server (e.g., "http://localhost:8000").
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// RequestTimeout bounds each request. Zero leaves only the caller's
	// context and the transport's own defaults.
	RequestTimeout time.Duration
	// UserAgent, when set, is sent on every request.
	UserAgent string
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is an unauthenticated course server client. It holds the base
// URL, the HTTP transport, and the unauthorized-event subscribers shared
// by every Session derived from it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger

	hooksMu  sync.Mutex
	hooks    map[uint64]func(UnauthorizedEvent)
	nextHook uint64
}

// NewClient creates a new course server client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("tutorapi: BaseURL is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("tutorapi: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("tutorapi: BaseURL %q must be http or https", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		timeout:    config.RequestTimeout,
		userAgent:  config.UserAgent,
		logger:     logger,
		hooks:      make(map[uint64]func(UnauthorizedEvent)),
	}, nil
}

// BaseURL returns the server root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for an access token. The request carries
// no bearer token, so a 401 here never fires the unauthorized event.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	if username == "" {
		return nil, fmt.Errorf("tutorapi: username is required for login")
	}

	var response TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", LoginRequest{
		Username: username,
		Password: password,
	}, &response); err != nil {
		return nil, err
	}
	if response.AccessToken == "" {
		return nil, fmt.Errorf("tutorapi: login response has no access_token")
	}
	return &response, nil
}

// CurrentUser fetches the identity behind accessToken. Used to verify a
// token before any session state is committed to it.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Authorized returns a Session that attaches the token currently held by
// tokens to every request.
func (c *Client) Authorized(tokens TokenSource) *Session {
	return &Session{client: c, tokens: tokens}
}

// do performs one JSON request. On 2xx the body is decoded into
// response (when non-nil). On other statuses the result is an *APIError;
// when no response was obtained it is a *TransportError. A 401 on a
// request that carried accessToken notifies the unauthorized hooks
// before returning.
func (c *Client) do(ctx context.Context, method, path, accessToken string, requestBody, response any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("tutorapi: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("tutorapi: failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		request.Header.Set("User-Agent", c.userAgent)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+accessToken)
	}

	httpResponse, err := c.httpClient.Do(request)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer httpResponse.Body.Close()

	responseBody, err := netutil.ReadResponse(httpResponse.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("reading response body: %w", err)}
	}

	c.logger.Debug("course server request",
		"method", method,
		"path", path,
		"status", httpResponse.StatusCode,
		"request_id", requestID,
	)

	if httpResponse.StatusCode >= 200 && httpResponse.StatusCode < 300 {
		if response == nil {
			return nil
		}
		if err := json.Unmarshal(responseBody, response); err != nil {
			return fmt.Errorf("tutorapi: failed to parse %s %s response: %w", method, path, err)
		}
		return nil
	}

	apiErr := &APIError{
		StatusCode: httpResponse.StatusCode,
		Message:    errorMessage(responseBody),
		Method:     method,
		Path:       path,
	}
	if httpResponse.StatusCode == http.StatusUnauthorized && accessToken != "" {
		c.publishUnauthorized(UnauthorizedEvent{
			Method:    method,
			Path:      path,
			RequestID: requestID,
			Token:     accessToken,
		})
	}
	return apiErr
}
