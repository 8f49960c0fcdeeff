package session

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Store is the owned session aggregate with an explicit lifecycle: Restore on
// startup, Set on successful authentication or profile mutation, Clear on
// sign-out or credential rejection. Readers receive the Store by injection;
// nothing mutates it ambiently.
type Store struct {
	mu      sync.RWMutex
	current *Session
	repo    Repo
	logger  zerolog.Logger
}

type StoreOption func(*Store)

func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(repo Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, pkgerrors.New("[NewStore] repo is required")
	}
	s := &Store{
		repo:   repo,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Restore loads the persisted session into memory. A missing persisted
// session is not an error; the store just stays unauthenticated.
func (s *Store) Restore() (*Session, error) {
	sess, err := s.repo.Load()
	if err != nil {
		if pkgerrors.Is(err, NotFoundErr) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "[Store.Restore] repo.Load")
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return s.snapshot(), nil
}

// Set replaces the current session and persists it.
func (s *Store) Set(sess *Session) error {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	if err := s.repo.Save(sess); err != nil {
		return pkgerrors.Wrap(err, "[Store.Set] repo.Save")
	}
	return nil
}

// Clear drops the in-memory session unconditionally and removes the durable
// copy. The memory clear happens even when the delete fails, so a failed
// call still leaves the client signed out.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.repo.Delete(); err != nil {
		s.logger.Err(err).Msg("failed to delete persisted session")
		return pkgerrors.Wrap(err, "[Store.Clear] repo.Delete")
	}
	return nil
}

// Current returns a copy of the session, or nil when signed out.
func (s *Store) Current() *Session {
	return s.snapshot()
}

// Token returns the bearer credential, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Authenticated()
}

func (s *Store) snapshot() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	if s.current.Profile != nil {
		profile := *s.current.Profile
		copied.Profile = &profile
	}
	return &copied
}
