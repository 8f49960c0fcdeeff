package session

import "errors"

// NotFoundErr is returned by Repo.Load when no session has been persisted.
var NotFoundErr = errors.New("session not found")

type Repo interface {
	Save(session *Session) error
	Load() (*Session, error)
	Delete() error
}
