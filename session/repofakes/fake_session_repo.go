package repofakes

import (
	"sync"

	"github.com/jrsteele09/go-social-client/session"
)

var _ session.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	lock    sync.RWMutex
	stored  *session.Session
	SaveErr error
	LoadErr error
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

func (r *FakeSessionRepo) Save(sess *session.Session) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.stored = sess
	return nil
}

func (r *FakeSessionRepo) Load() (*session.Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.LoadErr != nil {
		return nil, r.LoadErr
	}
	if r.stored == nil {
		return nil, session.NotFoundErr
	}
	return r.stored, nil
}

func (r *FakeSessionRepo) Delete() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.stored = nil
	return nil
}

// Stored returns the persisted session for assertions.
func (r *FakeSessionRepo) Stored() *session.Session {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.stored
}
