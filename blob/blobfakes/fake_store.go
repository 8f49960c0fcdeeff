package blobfakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-social-client/blob"
)

var _ blob.Store = (*FakeStore)(nil)

type Upload struct {
	ObjectPath  string
	Data        []byte
	ContentType string
}

type FakeStore struct {
	lock      sync.Mutex
	uploads   []Upload
	URL       string
	UploadErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{URL: "https://blobs.example.com/object"}
}

func (s *FakeStore) Upload(_ context.Context, objectPath string, data []byte, contentType string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	s.uploads = append(s.uploads, Upload{ObjectPath: objectPath, Data: data, ContentType: contentType})
	return s.URL, nil
}

func (s *FakeStore) Uploads() []Upload {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Upload(nil), s.uploads...)
}
