package auth_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-social-client/api"
	"github.com/jrsteele09/go-social-client/auth"
	"github.com/jrsteele09/go-social-client/identity"
	"github.com/jrsteele09/go-social-client/identity/identityfakes"
	"github.com/jrsteele09/go-social-client/internal/utils"
	"github.com/jrsteele09/go-social-client/session"
	"github.com/jrsteele09/go-social-client/session/repofakes"
	"github.com/jrsteele09/go-social-client/users"
)

const (
	testEmail    = "john.doe@example.com"
	testPassword = "Password123"
	testName     = "John Doe"
)

// fakeBackend is an in-memory stand-in for the API gateway: registered
// credentials get a profile, Verify reports whether one exists.
type fakeBackend struct {
	mu       sync.Mutex
	nextID   int
	profiles map[string]*users.Profile // credential -> profile

	lastRegister api.RegisterRequest
	lastUpdate   users.ProfileUpdate
	updated      *users.Profile

	registerErr error
	loginErr    error
	verifyErr   error
	updateErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{profiles: make(map[string]*users.Profile)}
}

func (b *fakeBackend) Register(_ context.Context, req api.RegisterRequest) (*api.AuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.registerErr != nil {
		return nil, b.registerErr
	}
	b.lastRegister = req
	b.nextID++
	profile := &users.Profile{
		ID:        fmt.Sprintf("user-%d", b.nextID),
		Name:      req.Name,
		Bio:       utils.Value(req.Bio),
		AvatarURL: utils.Value(req.AvatarURL),
	}
	b.profiles[req.IDToken] = profile
	return &api.AuthResult{Profile: profile, AccessToken: "token-" + profile.ID}, nil
}

func (b *fakeBackend) Login(_ context.Context, credential string) (*api.AuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loginErr != nil {
		return nil, b.loginErr
	}
	profile, exists := b.profiles[credential]
	if !exists {
		return nil, errors.New("unknown credential")
	}
	return &api.AuthResult{Profile: profile, AccessToken: "token-" + profile.ID}, nil
}

func (b *fakeBackend) Verify(_ context.Context, credential string) (*api.VerifyResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.verifyErr != nil {
		return nil, b.verifyErr
	}
	profile, exists := b.profiles[credential]
	if !exists {
		return &api.VerifyResult{Exists: false}, nil
	}
	return &api.VerifyResult{Exists: true, Profile: profile, AccessToken: "token-" + profile.ID}, nil
}

func (b *fakeBackend) UpdateCurrentUser(_ context.Context, update users.ProfileUpdate) (*users.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.updateErr != nil {
		return nil, b.updateErr
	}
	b.lastUpdate = update
	return b.updated, nil
}

type testFixture struct {
	provider    *identityfakes.FakeProvider
	backend     *fakeBackend
	sessionRepo *repofakes.FakeSessionRepo
	sessions    *session.Store
	service     *auth.Service
}

func setupTestFixture(t *testing.T, options ...auth.Option) *testFixture {
	t.Helper()

	provider := identityfakes.NewFakeProvider()
	backend := newFakeBackend()
	sessionRepo := repofakes.NewFakeSessionRepo()
	sessions, err := session.NewStore(sessionRepo)
	require.NoError(t, err)

	service, err := auth.New(auth.Deps{
		Provider: provider,
		Backend:  backend,
		Sessions: sessions,
	}, options...)
	require.NoError(t, err)

	return &testFixture{
		provider:    provider,
		backend:     backend,
		sessionRepo: sessionRepo,
		sessions:    sessions,
		service:     service,
	}
}

func TestServiceSignUp(t *testing.T) {
	t.Run("creates account and session", func(t *testing.T) {
		f := setupTestFixture(t)

		signedUp, err := f.service.SignUp(context.Background(), testEmail, testPassword, users.ProfileUpdate{
			Name: utils.Ptr(testName),
			Bio:  utils.Ptr("hello"),
		})
		require.NoError(t, err)
		require.Equal(t, testName, signedUp.Name)
		require.Equal(t, "hello", signedUp.Bio)
		require.True(t, f.sessions.Authenticated())
		require.NotNil(t, f.sessionRepo.Stored())
	})

	t.Run("invalid email rejected before any provider call", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.SignUpErr = errors.New("should not be reached")

		_, err := f.service.SignUp(context.Background(), "not-an-email", testPassword, users.ProfileUpdate{Name: utils.Ptr(testName)})
		require.ErrorIs(t, err, auth.AuthErr)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.SignUp(context.Background(), testEmail, "weak", users.ProfileUpdate{Name: utils.Ptr(testName)})
		require.ErrorIs(t, err, auth.AuthErr)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.SignUp(context.Background(), testEmail, testPassword, users.ProfileUpdate{})
		require.ErrorIs(t, err, auth.AuthErr)
	})

	t.Run("registration failure leaves the store signed out", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.registerErr = errors.New("backend down")

		_, err := f.service.SignUp(context.Background(), testEmail, testPassword, users.ProfileUpdate{Name: utils.Ptr(testName)})
		require.ErrorIs(t, err, auth.AuthErr)
		require.False(t, f.sessions.Authenticated())
	})
}

func TestServiceSignIn(t *testing.T) {
	t.Run("returns the profile registered at sign-up", func(t *testing.T) {
		f := setupTestFixture(t)
		signedUp, err := f.service.SignUp(context.Background(), testEmail, testPassword, users.ProfileUpdate{Name: utils.Ptr(testName)})
		require.NoError(t, err)

		signedIn, err := f.service.SignIn(context.Background(), testEmail, testPassword)
		require.NoError(t, err)
		require.Equal(t, signedUp.ID, signedIn.ID)
		require.True(t, f.sessions.Authenticated())
	})

	t.Run("wrong password", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.SignUp(context.Background(), testEmail, testPassword, users.ProfileUpdate{Name: utils.Ptr(testName)})
		require.NoError(t, err)

		_, err = f.service.SignIn(context.Background(), testEmail, "Wrong1234")
		require.ErrorIs(t, err, auth.AuthErr)
	})
}

func TestServiceSignInFederated(t *testing.T) {
	t.Run("existing profile signs in without registering", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.profiles["federated-cred"] = &users.Profile{ID: "user-9", Name: "Jane"}
		f.provider.FederatedResult = &identity.FederatedIdentity{Credential: "federated-cred", Name: "Jane"}

		signedIn, err := f.service.SignInFederated(context.Background(), users.ProfileUpdate{})
		require.NoError(t, err)
		require.Equal(t, "user-9", signedIn.ID)
		require.Empty(t, f.backend.lastRegister.IDToken)
	})

	t.Run("new identity registers with federated claims", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.FederatedResult = &identity.FederatedIdentity{
			Credential: "federated-cred",
			Name:       "Jane Doe",
			PhotoURL:   "https://photos.example.com/jane.jpg",
		}

		signedIn, err := f.service.SignInFederated(context.Background(), users.ProfileUpdate{})
		require.NoError(t, err)
		require.Equal(t, "Jane Doe", signedIn.Name)
		require.Equal(t, "https://photos.example.com/jane.jpg", signedIn.AvatarURL)
		require.True(t, f.sessions.Authenticated())
	})

	t.Run("federated name wins over fallback", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.FederatedResult = &identity.FederatedIdentity{Credential: "cred", Name: "Claimed Name"}

		signedIn, err := f.service.SignInFederated(context.Background(), users.ProfileUpdate{Name: utils.Ptr("Fallback Name")})
		require.NoError(t, err)
		require.Equal(t, "Claimed Name", signedIn.Name)
	})

	t.Run("fallback name used when claims carry none", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.FederatedResult = &identity.FederatedIdentity{Credential: "cred"}

		signedIn, err := f.service.SignInFederated(context.Background(), users.ProfileUpdate{Name: utils.Ptr("Fallback Name")})
		require.NoError(t, err)
		require.Equal(t, "Fallback Name", signedIn.Name)
	})

	t.Run("anonymous when no name anywhere", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.FederatedResult = &identity.FederatedIdentity{Credential: "cred"}

		signedIn, err := f.service.SignInFederated(context.Background(), users.ProfileUpdate{})
		require.NoError(t, err)
		require.Equal(t, "Anonymous", signedIn.Name)
	})

	t.Run("cancelled flow", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.FederatedErr = identity.FlowCancelledErr

		_, err := f.service.SignInFederated(context.Background(), users.ProfileUpdate{})
		require.ErrorIs(t, err, auth.AuthErr)
		require.False(t, f.sessions.Authenticated())
	})
}

func TestServiceSignOut(t *testing.T) {
	t.Run("clears session and revokes provider identity", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.SignUp(context.Background(), testEmail, testPassword, users.ProfileUpdate{Name: utils.Ptr(testName)})
		require.NoError(t, err)

		f.service.SignOut(context.Background())
		require.False(t, f.sessions.Authenticated())
		require.Nil(t, f.sessionRepo.Stored())
		require.Equal(t, 1, f.provider.RevokeCalls)
	})

	t.Run("revocation failure still signs out locally", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.SignUp(context.Background(), testEmail, testPassword, users.ProfileUpdate{Name: utils.Ptr(testName)})
		require.NoError(t, err)
		f.provider.RevokeErr = errors.New("network down")

		f.service.SignOut(context.Background())
		require.False(t, f.sessions.Authenticated())
	})
}

func TestServiceUpdateProfile(t *testing.T) {
	t.Run("replaces the cached profile and keeps the token", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.SignUp(context.Background(), testEmail, testPassword, users.ProfileUpdate{Name: utils.Ptr(testName)})
		require.NoError(t, err)
		token := f.sessions.Token()
		f.backend.updated = &users.Profile{ID: "user-1", Name: testName, Bio: "new bio"}

		updated, err := f.service.UpdateProfile(context.Background(), users.ProfileUpdate{Bio: utils.Ptr("new bio")})
		require.NoError(t, err)
		require.Equal(t, "new bio", updated.Bio)
		require.Equal(t, "new bio", f.sessions.Current().Profile.Bio)
		require.Equal(t, token, f.sessions.Token())
	})

	t.Run("empty update rejected before any network call", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.updateErr = errors.New("should not be reached")

		_, err := f.service.UpdateProfile(context.Background(), users.ProfileUpdate{})
		require.ErrorIs(t, err, auth.ProfileUpdateErr)
	})

	t.Run("expired authorization passed through", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.updateErr = api.AuthorizationExpiredErr

		_, err := f.service.UpdateProfile(context.Background(), users.ProfileUpdate{Bio: utils.Ptr("x")})
		require.ErrorIs(t, err, api.AuthorizationExpiredErr)
		require.NotErrorIs(t, err, auth.ProfileUpdateErr)
	})
}

func TestServiceRestore(t *testing.T) {
	t.Run("live cached session used without the provider", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.sessionRepo.Save(&session.Session{
			Token:   "opaque-token",
			Profile: &users.Profile{ID: "user-1", Name: testName},
		}))
		f.provider.DetectErr = errors.New("should not be reached")

		restored, err := f.service.Restore(context.Background())
		require.NoError(t, err)
		require.Equal(t, "user-1", restored.ID)
	})

	t.Run("expired cached token forces re-verification", func(t *testing.T) {
		now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		f := setupTestFixture(t, auth.WithNowTime(func() time.Time { return now }))

		expired := expiredToken(t, now.Add(-time.Hour))
		require.NoError(t, f.sessionRepo.Save(&session.Session{
			Token:   expired,
			Profile: &users.Profile{ID: "user-1"},
		}))
		f.backend.profiles["detected-cred"] = &users.Profile{ID: "user-1", Name: testName}
		f.provider.DetectErr = nil
		f.provider.DetectResult = "detected-cred"

		restored, err := f.service.Restore(context.Background())
		require.NoError(t, err)
		require.Equal(t, testName, restored.Name)
		require.Equal(t, "token-user-1", f.sessions.Token())
	})

	t.Run("no provider identity stays signed out", func(t *testing.T) {
		f := setupTestFixture(t)

		restored, err := f.service.Restore(context.Background())
		require.NoError(t, err)
		require.Nil(t, restored)
		require.False(t, f.sessions.Authenticated())
	})

	t.Run("provider identity without backend profile stays signed out", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.DetectErr = nil
		f.provider.DetectResult = "unknown-cred"

		restored, err := f.service.Restore(context.Background())
		require.NoError(t, err)
		require.Nil(t, restored)
		require.False(t, f.sessions.Authenticated())
	})
}

// expiredToken builds a syntactically valid JWT whose exp claim is in the
// past. The signature is irrelevant; only the claims are peeked at.
func expiredToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiry),
	})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}
