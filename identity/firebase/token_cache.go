package firebase

import (
	"encoding/json"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
)

type TokenKind string

const (
	TokenKindPassword  TokenKind = "password"
	TokenKindFederated TokenKind = "federated"
)

// CachedToken is the locally persisted provider refresh token, the
// "provider-level identity" Detect looks for on startup.
type CachedToken struct {
	Kind         TokenKind `json:"kind"`
	RefreshToken string    `json:"refresh_token"`
}

var CacheMissErr = pkgerrors.New("no cached provider token")

type TokenCache interface {
	Save(token *CachedToken) error
	Load() (*CachedToken, error)
	Delete() error
}

const tokenCacheFileName = "provider_token.json"

// FileTokenCache keeps the refresh token as a 0600 JSON file under the
// application data folder.
type FileTokenCache struct {
	path string
}

var _ TokenCache = (*FileTokenCache)(nil)

func NewFileTokenCache(dataFolder string) (*FileTokenCache, error) {
	if err := os.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, pkgerrors.Wrap(err, "[NewFileTokenCache] os.MkdirAll")
	}
	return &FileTokenCache{path: filepath.Join(dataFolder, tokenCacheFileName)}, nil
}

func (c *FileTokenCache) Save(token *CachedToken) error {
	encoded, err := json.Marshal(token)
	if err != nil {
		return pkgerrors.Wrap(err, "[FileTokenCache.Save] json.Marshal")
	}
	if err := os.WriteFile(c.path, encoded, 0o600); err != nil {
		return pkgerrors.Wrap(err, "[FileTokenCache.Save] os.WriteFile")
	}
	return nil
}

func (c *FileTokenCache) Load() (*CachedToken, error) {
	blob, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, CacheMissErr
		}
		return nil, pkgerrors.Wrap(err, "[FileTokenCache.Load] os.ReadFile")
	}
	var token CachedToken
	if err := json.Unmarshal(blob, &token); err != nil {
		return nil, CacheMissErr
	}
	if token.RefreshToken == "" {
		return nil, CacheMissErr
	}
	return &token, nil
}

func (c *FileTokenCache) Delete() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrap(err, "[FileTokenCache.Delete] os.Remove")
	}
	return nil
}
