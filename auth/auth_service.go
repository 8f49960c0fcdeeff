// Package auth orchestrates the session lifecycle: it exchanges provider
// credentials for backend sessions, keeps the session store and its durable
// copy in sync, and exposes the sign-up/sign-in/sign-out/update operations
// the views call.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-social-client/api"
	"github.com/jrsteele09/go-social-client/identity"
	"github.com/jrsteele09/go-social-client/internal/utils"
	"github.com/jrsteele09/go-social-client/session"
	"github.com/jrsteele09/go-social-client/users"
)

const fallbackDisplayName = "Anonymous"

// Backend is the slice of the API gateway the service needs.
type Backend interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResult, error)
	Login(ctx context.Context, credential string) (*api.AuthResult, error)
	Verify(ctx context.Context, credential string) (*api.VerifyResult, error)
	UpdateCurrentUser(ctx context.Context, update users.ProfileUpdate) (*users.Profile, error)
}

// Deps holds all dependencies for the Service.
type Deps struct {
	Provider identity.Provider
	Backend  Backend
	Sessions *session.Store
}

type Service struct {
	deps    Deps
	logger  zerolog.Logger
	nowTime func() time.Time // nowTime function (injectable for testing)
}

type Option func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(deps Deps, options ...Option) (*Service, error) {
	if deps.Provider == nil {
		return nil, pkgerrors.New("[auth.New] Provider is required")
	}
	if deps.Backend == nil {
		return nil, pkgerrors.New("[auth.New] Backend is required")
	}
	if deps.Sessions == nil {
		return nil, pkgerrors.New("[auth.New] Sessions store is required")
	}

	service := &Service{
		deps:    deps,
		logger:  zerolog.Nop(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// SignUp creates a provider account and registers a backend profile for it.
func (s *Service) SignUp(ctx context.Context, email, password string, fields users.ProfileUpdate) (*users.Profile, error) {
	if err := users.ValidateEmail(email); err != nil {
		return nil, wrapAuthErr(err)
	}
	if err := users.ValidatePasswordStrength(password); err != nil {
		return nil, wrapAuthErr(err)
	}
	name := strings.TrimSpace(utils.Value(fields.Name))
	if err := users.ValidateName(name); err != nil {
		return nil, wrapAuthErr(err)
	}

	credential, err := s.deps.Provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, wrapAuthErr(pkgerrors.Wrap(err, "[Service.SignUp] Provider.SignUp"))
	}

	result, err := s.deps.Backend.Register(ctx, api.RegisterRequest{
		IDToken:   string(credential),
		Name:      name,
		Bio:       fields.Bio,
		AvatarURL: fields.AvatarURL,
	})
	if err != nil {
		return nil, wrapAuthErr(pkgerrors.Wrap(err, "[Service.SignUp] Backend.Register"))
	}

	s.setSession(result.AccessToken, result.Profile)
	return result.Profile, nil
}

// SignIn authenticates against the provider and exchanges the credential for
// a backend session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*users.Profile, error) {
	credential, err := s.deps.Provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, wrapAuthErr(pkgerrors.Wrap(err, "[Service.SignIn] Provider.SignIn"))
	}

	result, err := s.deps.Backend.Login(ctx, string(credential))
	if err != nil {
		return nil, wrapAuthErr(pkgerrors.Wrap(err, "[Service.SignIn] Backend.Login"))
	}

	s.setSession(result.AccessToken, result.Profile)
	return result.Profile, nil
}

// SignInFederated runs the provider's federated flow, then logs in when a
// backend profile exists or registers one seeded from the federated claims
// merged with the fallback fields.
func (s *Service) SignInFederated(ctx context.Context, fallback users.ProfileUpdate) (*users.Profile, error) {
	federated, err := s.deps.Provider.Federated(ctx)
	if err != nil {
		return nil, wrapAuthErr(pkgerrors.Wrap(err, "[Service.SignInFederated] Provider.Federated"))
	}

	verified, err := s.deps.Backend.Verify(ctx, string(federated.Credential))
	if err != nil {
		return nil, wrapAuthErr(pkgerrors.Wrap(err, "[Service.SignInFederated] Backend.Verify"))
	}

	if verified.Exists {
		s.setSession(verified.AccessToken, verified.Profile)
		return verified.Profile, nil
	}

	result, err := s.deps.Backend.Register(ctx, s.federatedRegistration(federated, fallback))
	if err != nil {
		return nil, wrapAuthErr(pkgerrors.Wrap(err, "[Service.SignInFederated] Backend.Register"))
	}

	s.setSession(result.AccessToken, result.Profile)
	return result.Profile, nil
}

// federatedRegistration merges the provider's claims with the caller's
// fallback fields. The federated display name wins; the photo is only used
// when the fallback doesn't supply one.
func (s *Service) federatedRegistration(federated *identity.FederatedIdentity, fallback users.ProfileUpdate) api.RegisterRequest {
	name := strings.TrimSpace(federated.Name)
	if name == "" {
		name = strings.TrimSpace(utils.Value(fallback.Name))
	}
	if name == "" {
		name = fallbackDisplayName
	}

	avatarURL := fallback.AvatarURL
	if avatarURL == nil && federated.PhotoURL != "" {
		avatarURL = utils.Ptr(federated.PhotoURL)
	}

	return api.RegisterRequest{
		IDToken:   string(federated.Credential),
		Name:      name,
		Bio:       fallback.Bio,
		AvatarURL: avatarURL,
	}
}

// SignOut revokes the local provider identity and clears the session. It
// never returns an error: the local session is cleared regardless, and
// revocation failures are only logged.
func (s *Service) SignOut(ctx context.Context) {
	if err := s.deps.Provider.Revoke(ctx); err != nil {
		s.logger.Err(err).Msg("provider revocation failed during sign-out")
	}
	if err := s.deps.Sessions.Clear(); err != nil {
		s.logger.Err(err).Msg("failed to clear persisted session during sign-out")
	}
}

// UpdateProfile sends a partial update and replaces the cached profile on
// success.
func (s *Service) UpdateProfile(ctx context.Context, update users.ProfileUpdate) (*users.Profile, error) {
	if err := update.Validate(); err != nil {
		return nil, pkgerrors.Wrap(ProfileUpdateErr, err.Error())
	}

	profile, err := s.deps.Backend.UpdateCurrentUser(ctx, update)
	if err != nil {
		if pkgerrors.Is(err, api.AuthorizationExpiredErr) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(ProfileUpdateErr, err.Error())
	}

	s.setSession(s.deps.Sessions.Token(), profile)
	return profile, nil
}

// Restore re-establishes the session on startup. A cached session with a
// live token is used as-is; otherwise a detected provider identity is
// re-verified against the backend and the cache repopulated. Returns
// (nil, nil) when no authenticated session can be established.
func (s *Service) Restore(ctx context.Context) (*users.Profile, error) {
	cached, err := s.deps.Sessions.Restore()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Service.Restore] Sessions.Restore")
	}
	if cached.Authenticated() && !s.tokenExpired(cached.Token) {
		return cached.Profile, nil
	}

	credential, err := s.deps.Provider.Detect(ctx)
	if err != nil {
		if pkgerrors.Is(err, identity.NotSignedInErr) {
			// No provider identity: drop any stale cache and stay signed out.
			if cached != nil {
				s.clearQuietly()
			}
			return nil, nil
		}
		return nil, wrapAuthErr(pkgerrors.Wrap(err, "[Service.Restore] Provider.Detect"))
	}

	verified, err := s.deps.Backend.Verify(ctx, string(credential))
	if err != nil {
		return nil, wrapAuthErr(pkgerrors.Wrap(err, "[Service.Restore] Backend.Verify"))
	}
	if !verified.Exists {
		// Provider identity without a backend profile: unauthenticated until
		// registration completes.
		s.clearQuietly()
		return nil, nil
	}

	s.setSession(verified.AccessToken, verified.Profile)
	return verified.Profile, nil
}

func (s *Service) setSession(token string, profile *users.Profile) {
	if err := s.deps.Sessions.Set(&session.Session{Token: token, Profile: profile}); err != nil {
		// The in-memory session is live; a failed persist only costs
		// re-authentication after a restart.
		s.logger.Err(err).Msg("failed to persist session")
	}
}

func (s *Service) clearQuietly() {
	if err := s.deps.Sessions.Clear(); err != nil {
		s.logger.Err(err).Msg("failed to clear session")
	}
}

// tokenExpired peeks at the backend session token's exp claim without
// verifying the signature (the backend remains the authority). Opaque or
// claimless tokens are assumed live; an expired one forces re-verification.
func (s *Service) tokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(s.nowTime())
}

func wrapAuthErr(err error) error {
	return pkgerrors.Wrap(AuthErr, err.Error())
}
