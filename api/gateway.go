// Package api is the typed REST gateway to the social backend. A single
// Gateway carries the base endpoint, attaches the stored bearer credential to
// every request, and handles credential rejection centrally: a 401 fires the
// unauthorized hook (which the application wires to clear the session) and
// the call returns AuthorizationExpiredErr. It is a pure request/response
// passthrough with no retries or backoff.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// TokenSource supplies the current session token, or "" when signed out.
type TokenSource func() string

type Gateway struct {
	httpClient     *http.Client
	baseURL        string
	tokenSource    TokenSource
	onUnauthorized func()
	logger         zerolog.Logger
}

type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithUnauthorizedHook sets the callback fired whenever the backend rejects
// the credential. It runs at most once per response, before the call returns.
func WithUnauthorizedHook(hook func()) Option {
	return func(g *Gateway) {
		g.onUnauthorized = hook
	}
}

func New(baseURL string, tokenSource TokenSource, options ...Option) *Gateway {
	g := &Gateway{
		httpClient:  http.DefaultClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		tokenSource: tokenSource,
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// do executes one JSON request/response exchange. out may be nil when the
// response body is irrelevant.
func (g *Gateway) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Gateway.do] json.Marshal")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "[Gateway.do] http.NewRequestWithContext")
	}
	req.Header.Set("Content-Type", "application/json")
	if g.tokenSource != nil {
		if token := g.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Gateway.do] httpClient.Do")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		g.logger.Warn().Str("path", path).Msg("credential rejected by backend")
		if g.onUnauthorized != nil {
			g.onUnauthorized()
		}
		return AuthorizationExpiredErr
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return g.decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "[Gateway.do] decode response")
	}
	return nil
}

func (g *Gateway) decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Message = envelope.Error
	}
	return apiErr
}
