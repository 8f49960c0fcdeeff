package config

type IdentityConfig interface {
	GetIdentityAPIKey() string
	GetIdentityAuthBaseURL() string
	GetIdentityTokenRefreshURL() string
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCRedirectPort() string
}

type Identity struct{}

var _ IdentityConfig = Identity{}

// GetIdentityAPIKey returns the identity provider's public web API key,
// appended as a query parameter to the password sign-up/sign-in endpoints.
func (Identity) GetIdentityAPIKey() string {
	return GetEnv("IDENTITY_API_KEY", "")
}

// GetIdentityAuthBaseURL returns the base URL of the provider's password
// authentication REST API.
func (Identity) GetIdentityAuthBaseURL() string {
	return GetEnv("IDENTITY_AUTH_BASE_URL", "https://identitytoolkit.googleapis.com")
}

// GetIdentityTokenRefreshURL returns the provider endpoint that exchanges a
// refresh token for a fresh ID token.
func (Identity) GetIdentityTokenRefreshURL() string {
	return GetEnv("IDENTITY_TOKEN_REFRESH_URL", "https://securetoken.googleapis.com/v1/token")
}

func (Identity) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "https://accounts.google.com")
}

func (Identity) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Identity) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

// GetOIDCRedirectPort returns the loopback port the federated sign-in flow
// listens on for the authorization-code redirect.
func (Identity) GetOIDCRedirectPort() string {
	return GetEnv("OIDC_REDIRECT_PORT", "8089")
}
