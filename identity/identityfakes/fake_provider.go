package identityfakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-social-client/identity"
)

var _ identity.Provider = (*FakeProvider)(nil)

// FakeProvider is a scripted identity provider for tests. Accounts created
// through SignUp are remembered so SignIn can authenticate them; the
// federated and detect results are set directly.
type FakeProvider struct {
	lock     sync.Mutex
	accounts map[string]string // email -> password

	SignUpErr       error
	SignInErr       error
	FederatedResult *identity.FederatedIdentity
	FederatedErr    error
	DetectResult    identity.Credential
	DetectErr       error
	RevokeErr       error
	RevokeCalls     int
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		accounts:  make(map[string]string),
		DetectErr: identity.NotSignedInErr,
	}
}

func (p *FakeProvider) SignUp(_ context.Context, email, password string) (identity.Credential, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.SignUpErr != nil {
		return "", p.SignUpErr
	}
	if _, exists := p.accounts[email]; exists {
		return "", identity.FlowCancelledErr
	}
	p.accounts[email] = password
	return credentialFor(email), nil
}

func (p *FakeProvider) SignIn(_ context.Context, email, password string) (identity.Credential, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.SignInErr != nil {
		return "", p.SignInErr
	}
	stored, exists := p.accounts[email]
	if !exists || stored != password {
		return "", identity.NotSignedInErr
	}
	return credentialFor(email), nil
}

func (p *FakeProvider) Federated(_ context.Context) (*identity.FederatedIdentity, error) {
	if p.FederatedErr != nil {
		return nil, p.FederatedErr
	}
	return p.FederatedResult, nil
}

func (p *FakeProvider) Detect(_ context.Context) (identity.Credential, error) {
	if p.DetectErr != nil {
		return "", p.DetectErr
	}
	return p.DetectResult, nil
}

func (p *FakeProvider) Revoke(_ context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.RevokeCalls++
	return p.RevokeErr
}

func credentialFor(email string) identity.Credential {
	return identity.Credential("id-token-" + email)
}
