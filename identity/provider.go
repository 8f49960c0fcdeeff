// Package identity abstracts the federated identity provider. The provider
// verifies who the user is and issues the credential the backend exchanges
// for a session; it never talks to the backend itself.
package identity

import (
	"context"
	"errors"
)

var (
	// NotSignedInErr is returned by Detect when no provider-level identity
	// is present on this machine.
	NotSignedInErr = errors.New("no provider identity detected")

	// FlowCancelledErr is returned when an interactive sign-in flow is
	// abandoned before completion.
	FlowCancelledErr = errors.New("sign-in flow cancelled")
)

// Credential is the opaque provider-issued proof of identity (an ID token)
// that the backend verifies during register/login/verify.
type Credential string

// FederatedIdentity is the result of a federated sign-in: the credential
// plus the claims the provider knows about the user, used to seed a backend
// profile when none exists yet.
type FederatedIdentity struct {
	Credential Credential
	Email      string
	Name       string
	PhotoURL   string
}

type Provider interface {
	// SignUp creates a provider account from email/password and returns a
	// fresh credential.
	SignUp(ctx context.Context, email, password string) (Credential, error)

	// SignIn authenticates an existing provider account.
	SignIn(ctx context.Context, email, password string) (Credential, error)

	// Federated runs the interactive third-party sign-in flow.
	Federated(ctx context.Context) (*FederatedIdentity, error)

	// Detect returns a fresh credential for a previously established
	// provider identity, or NotSignedInErr when there is none.
	Detect(ctx context.Context) (Credential, error)

	// Revoke discards the local provider identity.
	Revoke(ctx context.Context) error
}
