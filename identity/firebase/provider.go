// Package firebase implements identity.Provider against the Google Identity
// Platform REST API: password sign-up/sign-in via the identity-toolkit
// endpoints and federated sign-in via a standard OIDC authorization-code
// flow with PKCE on a loopback redirect. A refresh token is cached locally
// so a later run can re-establish the identity without re-prompting.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-social-client/identity"
)

const (
	signUpPath = "/v1/accounts:signUp"
	signInPath = "/v1/accounts:signInWithPassword"
)

// Settings carries the provider endpoints and OIDC client registration.
type Settings struct {
	APIKey           string
	AuthBaseURL      string
	TokenRefreshURL  string
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	RedirectPort     string
}

type Provider struct {
	settings   Settings
	httpClient *http.Client
	cache      TokenCache
	logger     zerolog.Logger

	// authURLHandler presents the federated sign-in URL to the user.
	authURLHandler func(url string)
}

var _ identity.Provider = (*Provider)(nil)

type Option func(*Provider)

func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func WithAuthURLHandler(handler func(url string)) Option {
	return func(p *Provider) {
		p.authURLHandler = handler
	}
}

func New(settings Settings, cache TokenCache, options ...Option) (*Provider, error) {
	if cache == nil {
		return nil, pkgerrors.New("[firebase.New] token cache is required")
	}
	settings.AuthBaseURL = strings.TrimRight(settings.AuthBaseURL, "/")
	p := &Provider{
		settings:   settings,
		httpClient: http.DefaultClient,
		cache:      cache,
		logger:     zerolog.Nop(),
	}
	p.authURLHandler = func(u string) {
		fmt.Printf("Open the following URL in your browser to sign in:\n\n  %s\n\n", u)
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (identity.Credential, error) {
	return p.passwordAuth(ctx, signUpPath, email, password)
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (identity.Credential, error) {
	return p.passwordAuth(ctx, signInPath, email, password)
}

func (p *Provider) passwordAuth(ctx context.Context, path, email, password string) (identity.Credential, error) {
	var result passwordResponse
	err := p.post(ctx, p.settings.AuthBaseURL+path, passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &result)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Provider.passwordAuth]")
	}

	if result.RefreshToken != "" {
		if err := p.cache.Save(&CachedToken{Kind: TokenKindPassword, RefreshToken: result.RefreshToken}); err != nil {
			// A failed cache write only costs a re-prompt on the next run.
			p.logger.Err(err).Msg("failed to cache provider refresh token")
		}
	}
	return identity.Credential(result.IDToken), nil
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
}

// Detect re-establishes a provider identity from the cached refresh token.
func (p *Provider) Detect(ctx context.Context) (identity.Credential, error) {
	cached, err := p.cache.Load()
	if err != nil {
		return "", identity.NotSignedInErr
	}

	switch cached.Kind {
	case TokenKindPassword:
		return p.refreshPasswordToken(ctx, cached.RefreshToken)
	case TokenKindFederated:
		return p.refreshFederatedToken(ctx, cached.RefreshToken)
	default:
		return "", identity.NotSignedInErr
	}
}

func (p *Provider) refreshPasswordToken(ctx context.Context, refreshToken string) (identity.Credential, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	endpoint := p.settings.TokenRefreshURL + "?key=" + url.QueryEscape(p.settings.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Provider.refreshPasswordToken] http.NewRequestWithContext")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Provider.refreshPasswordToken] httpClient.Do")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// A rejected refresh token means the provider session is gone.
		return "", identity.NotSignedInErr
	}

	var result refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", pkgerrors.Wrap(err, "[Provider.refreshPasswordToken] decode response")
	}

	if result.RefreshToken != "" && result.RefreshToken != refreshToken {
		if err := p.cache.Save(&CachedToken{Kind: TokenKindPassword, RefreshToken: result.RefreshToken}); err != nil {
			p.logger.Err(err).Msg("failed to rotate cached refresh token")
		}
	}
	return identity.Credential(result.IDToken), nil
}

// Revoke discards the local provider identity. The cached refresh token is
// deleted; the provider session itself is left to expire server-side.
func (p *Provider) Revoke(_ context.Context) error {
	if err := p.cache.Delete(); err != nil {
		return pkgerrors.Wrap(err, "[Provider.Revoke] cache.Delete")
	}
	return nil
}

// post executes one JSON exchange against the identity-toolkit API, mapping
// its {"error": {"message": ...}} envelope to an error.
func (p *Provider) post(ctx context.Context, endpoint string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(err, "json.Marshal")
	}
	withKey := endpoint + "?key=" + url.QueryEscape(p.settings.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, withKey, bytes.NewReader(encoded))
	if err != nil {
		return pkgerrors.Wrap(err, "http.NewRequestWithContext")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, "httpClient.Do")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return providerError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(err, "decode response")
	}
	return nil
}

func providerError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return pkgerrors.Errorf("provider rejected request: %s", envelope.Error.Message)
	}
	return pkgerrors.Errorf("provider rejected request: status %d", resp.StatusCode)
}
