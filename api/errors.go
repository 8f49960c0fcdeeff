package api

import (
	"errors"
	"fmt"
)

// AuthorizationExpiredErr is returned on any call the backend rejects with
// 401. The gateway fires its unauthorized hook before returning it, so
// callers normally treat it as already handled.
var AuthorizationExpiredErr = errors.New("authorization expired")

// APIError is a non-401 error response decoded from the backend's
// {"error": ...} envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: %s (status %d)", e.Message, e.Status)
}
