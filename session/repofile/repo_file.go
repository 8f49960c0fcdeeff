// Package repofile persists the session as an AES-GCM-encrypted JSON file
// under the application data folder, the durable-local-storage counterpart
// of a browser client. The encryption key is derived from a local passphrase
// with scrypt; a fresh salt and nonce are generated on every save.
package repofile

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"

	"github.com/jrsteele09/go-social-client/session"
)

const (
	sessionFileName = "session.json.enc"
	saltLength      = 16
	keyLength       = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

type FileRepo struct {
	path   string
	secret []byte
}

var _ session.Repo = (*FileRepo)(nil)

func New(dataFolder, secret string) (*FileRepo, error) {
	if secret == "" {
		return nil, pkgerrors.New("[repofile.New] secret is required")
	}
	if err := os.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, pkgerrors.Wrap(err, "[repofile.New] os.MkdirAll")
	}
	return &FileRepo{
		path:   filepath.Join(dataFolder, sessionFileName),
		secret: []byte(secret),
	}, nil
}

func (r *FileRepo) Save(sess *session.Session) error {
	plain, err := json.Marshal(sess)
	if err != nil {
		return pkgerrors.Wrap(err, "[FileRepo.Save] json.Marshal")
	}
	sealed, err := r.seal(plain)
	if err != nil {
		return pkgerrors.Wrap(err, "[FileRepo.Save] seal")
	}
	if err := os.WriteFile(r.path, sealed, 0o600); err != nil {
		return pkgerrors.Wrap(err, "[FileRepo.Save] os.WriteFile")
	}
	return nil
}

func (r *FileRepo) Load() (*session.Session, error) {
	blob, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, session.NotFoundErr
		}
		return nil, pkgerrors.Wrap(err, "[FileRepo.Load] os.ReadFile")
	}
	plain, err := r.open(blob)
	if err != nil {
		// Undecryptable cache (changed secret, corrupt file) is treated as
		// absent rather than fatal; the user just signs in again.
		return nil, session.NotFoundErr
	}
	var sess session.Session
	if err := json.Unmarshal(plain, &sess); err != nil {
		return nil, session.NotFoundErr
	}
	return &sess, nil
}

func (r *FileRepo) Delete() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrap(err, "[FileRepo.Delete] os.Remove")
	}
	return nil
}

// seal encrypts plain as salt || nonce || ciphertext.
func (r *FileRepo) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	gcm, err := r.aead(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(salt)+len(nonce)+len(plain)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plain, nil), nil
}

func (r *FileRepo) open(blob []byte) ([]byte, error) {
	if len(blob) < saltLength {
		return nil, pkgerrors.New("[FileRepo.open] blob too short")
	}
	salt := blob[:saltLength]
	gcm, err := r.aead(salt)
	if err != nil {
		return nil, err
	}
	rest := blob[saltLength:]
	if len(rest) < gcm.NonceSize() {
		return nil, pkgerrors.New("[FileRepo.open] blob too short")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func (r *FileRepo) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(r.secret, salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[FileRepo.aead] scrypt.Key")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[FileRepo.aead] aes.NewCipher")
	}
	return cipher.NewGCM(block)
}
