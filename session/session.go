// Package session owns the authenticated session aggregate: the backend
// session token plus the cached profile. The in-memory copy is the single
// source of truth for readers; the Repo keeps a durable duplicate so a
// restart does not force re-authentication while the provider session is
// still valid.
package session

import (
	"github.com/jrsteele09/go-social-client/users"
)

type Session struct {
	Token   string         `json:"access_token"`
	Profile *users.Profile `json:"user"`
}

// Authenticated reports whether the session carries a usable credential.
// A session without one implies no authenticated views are reachable.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.Profile != nil
}
