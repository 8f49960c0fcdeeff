package firebase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-social-client/identity"
)

const codeVerifierLength = 32

// Federated runs the OIDC authorization-code flow with PKCE: the user signs
// in via the browser and the provider redirects back to a loopback listener
// with the authorization code. The CLI equivalent of a sign-in popup.
func (p *Provider) Federated(ctx context.Context) (*identity.FederatedIdentity, error) {
	oidcProvider, conf, err := p.oauthConfig(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Provider.Federated]")
	}

	verifier, err := newCodeVerifier()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Provider.Federated] newCodeVerifier")
	}
	state := uuid.New().String()
	nonce := uuid.New().String()

	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oidc.Nonce(nonce),
		oauth2.SetAuthURLParam("code_challenge", codeChallengeS256(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	code, err := p.awaitCallback(ctx, authURL, state)
	if err != nil {
		return nil, err
	}

	oauth2Token, err := conf.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Provider.Federated] token exchange")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, pkgerrors.New("[Provider.Federated] no ID token in response")
	}

	idToken, err := oidcProvider.Verifier(&oidc.Config{ClientID: conf.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Provider.Federated] ID token verification")
	}

	var claims struct {
		Nonce   string `json:"nonce"`
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, pkgerrors.Wrap(err, "[Provider.Federated] extract claims")
	}
	if claims.Nonce != nonce {
		return nil, pkgerrors.New("[Provider.Federated] invalid nonce")
	}

	if oauth2Token.RefreshToken != "" {
		if err := p.cache.Save(&CachedToken{Kind: TokenKindFederated, RefreshToken: oauth2Token.RefreshToken}); err != nil {
			p.logger.Err(err).Msg("failed to cache provider refresh token")
		}
	}

	return &identity.FederatedIdentity{
		Credential: identity.Credential(rawIDToken),
		Email:      claims.Email,
		Name:       claims.Name,
		PhotoURL:   claims.Picture,
	}, nil
}

func (p *Provider) refreshFederatedToken(ctx context.Context, refreshToken string) (identity.Credential, error) {
	_, conf, err := p.oauthConfig(ctx)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Provider.refreshFederatedToken]")
	}
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return "", identity.NotSignedInErr
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", identity.NotSignedInErr
	}
	return identity.Credential(rawIDToken), nil
}

func (p *Provider) oauthConfig(ctx context.Context) (*oidc.Provider, *oauth2.Config, error) {
	oidcProvider, err := oidc.NewProvider(oidc.ClientContext(ctx, p.httpClient), p.settings.OIDCIssuer)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(err, "oidc.NewProvider")
	}
	conf := &oauth2.Config{
		ClientID:     p.settings.OIDCClientID,
		ClientSecret: p.settings.OIDCClientSecret,
		Endpoint:     oidcProvider.Endpoint(),
		RedirectURL:  fmt.Sprintf("http://127.0.0.1:%s/callback", p.settings.RedirectPort),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	return oidcProvider, conf, nil
}

// awaitCallback serves the loopback redirect endpoint until the provider
// delivers an authorization code or the context is cancelled.
func (p *Provider) awaitCallback(ctx context.Context, authURL, state string) (string, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.FormValue("error"); errParam != "" {
			http.Error(w, "Sign-in failed", http.StatusBadRequest)
			errCh <- pkgerrors.Errorf("authorization failed: %s", errParam)
			return
		}
		if r.FormValue("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			errCh <- pkgerrors.New("invalid state parameter")
			return
		}
		code := r.FormValue("code")
		if code == "" {
			http.Error(w, "Missing code parameter", http.StatusBadRequest)
			errCh <- pkgerrors.New("missing code parameter")
			return
		}
		fmt.Fprintln(w, "Signed in. You can close this window.")
		codeCh <- code
	})

	listener, err := net.Listen("tcp", "127.0.0.1:"+p.settings.RedirectPort)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Provider.awaitCallback] net.Listen")
	}
	server := &http.Server{Handler: mux}
	go func() {
		_ = server.Serve(listener)
	}()
	defer server.Shutdown(context.Background()) //nolint:errcheck

	p.authURLHandler(authURL)

	select {
	case <-ctx.Done():
		return "", pkgerrors.Wrap(identity.FlowCancelledErr, ctx.Err().Error())
	case err := <-errCh:
		return "", pkgerrors.Wrap(err, "[Provider.awaitCallback]")
	case code := <-codeCh:
		return code, nil
	}
}

// newCodeVerifier returns a PKCE code verifier: 43 base64url characters from
// 32 random bytes, per RFC 7636.
func newCodeVerifier() (string, error) {
	buf := make([]byte, codeVerifierLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func codeChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
