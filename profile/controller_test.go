package profile_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-social-client/blob/blobfakes"
	"github.com/jrsteele09/go-social-client/internal/utils"
	"github.com/jrsteele09/go-social-client/profile"
	"github.com/jrsteele09/go-social-client/session"
	"github.com/jrsteele09/go-social-client/session/repofakes"
	"github.com/jrsteele09/go-social-client/users"
)

type fakeUpdater struct {
	lastUpdate users.ProfileUpdate
	calls      int
	result     *users.Profile
	err        error
}

func (u *fakeUpdater) UpdateProfile(_ context.Context, update users.ProfileUpdate) (*users.Profile, error) {
	u.calls++
	u.lastUpdate = update
	if u.err != nil {
		return nil, u.err
	}
	return u.result, nil
}

type testFixture struct {
	updater    *fakeUpdater
	blobs      *blobfakes.FakeStore
	sessions   *session.Store
	controller *profile.Controller
}

func setupTestFixture(t *testing.T, signedIn bool, options ...profile.Option) *testFixture {
	t.Helper()

	updater := &fakeUpdater{result: &users.Profile{ID: "user-1", Name: "John"}}
	blobs := blobfakes.NewFakeStore()
	sessions, err := session.NewStore(repofakes.NewFakeSessionRepo())
	require.NoError(t, err)
	if signedIn {
		require.NoError(t, sessions.Set(&session.Session{
			Token:   "session-token-1",
			Profile: &users.Profile{ID: "user-1", ProviderUID: "provider-uid-1", Name: "John"},
		}))
	}

	controller, err := profile.New(profile.Deps{
		Updater:  updater,
		Blobs:    blobs,
		Sessions: sessions,
	}, options...)
	require.NoError(t, err)

	return &testFixture{
		updater:    updater,
		blobs:      blobs,
		sessions:   sessions,
		controller: controller,
	}
}

// testJPEG renders a gradient so JPEG compression has real content to work on.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestControllerUpdate(t *testing.T) {
	f := setupTestFixture(t, true)

	updated, err := f.controller.Update(context.Background(), users.ProfileUpdate{Bio: utils.Ptr("new bio")})
	require.NoError(t, err)
	require.Equal(t, "user-1", updated.ID)
	require.Equal(t, "new bio", *f.updater.lastUpdate.Bio)
}

func TestControllerUploadAvatar(t *testing.T) {
	t.Run("compresses, uploads under the user prefix and updates the profile", func(t *testing.T) {
		f := setupTestFixture(t, true)
		f.blobs.URL = "https://blobs.example.com/avatar.jpg"

		updated, err := f.controller.UploadAvatar(context.Background(), bytes.NewReader(testJPEG(t, 2048, 1536)))
		require.NoError(t, err)
		require.Equal(t, "user-1", updated.ID)

		uploads := f.blobs.Uploads()
		require.Len(t, uploads, 1)
		require.True(t, strings.HasPrefix(uploads[0].ObjectPath, "profile_pictures/provider-uid-1/"))
		require.True(t, strings.HasSuffix(uploads[0].ObjectPath, ".jpg"))
		require.Equal(t, "image/jpeg", uploads[0].ContentType)
		require.LessOrEqual(t, len(uploads[0].Data), 1<<20)

		decoded, _, err := image.Decode(bytes.NewReader(uploads[0].Data))
		require.NoError(t, err)
		require.LessOrEqual(t, decoded.Bounds().Dx(), 1024)
		require.LessOrEqual(t, decoded.Bounds().Dy(), 1024)

		require.NotNil(t, f.updater.lastUpdate.AvatarURL)
		require.Equal(t, "https://blobs.example.com/avatar.jpg", *f.updater.lastUpdate.AvatarURL)
	})

	t.Run("small image is not upscaled", func(t *testing.T) {
		f := setupTestFixture(t, true)

		_, err := f.controller.UploadAvatar(context.Background(), bytes.NewReader(testJPEG(t, 200, 100)))
		require.NoError(t, err)

		uploads := f.blobs.Uploads()
		require.Len(t, uploads, 1)
		decoded, _, err := image.Decode(bytes.NewReader(uploads[0].Data))
		require.NoError(t, err)
		require.Equal(t, 200, decoded.Bounds().Dx())
		require.Equal(t, 100, decoded.Bounds().Dy())
	})

	t.Run("signed out", func(t *testing.T) {
		f := setupTestFixture(t, false)

		_, err := f.controller.UploadAvatar(context.Background(), bytes.NewReader(testJPEG(t, 100, 100)))
		require.ErrorIs(t, err, profile.UploadErr)
		require.Empty(t, f.blobs.Uploads())
		require.Zero(t, f.updater.calls)
	})

	t.Run("undecodable image aborts before any upload", func(t *testing.T) {
		f := setupTestFixture(t, true)

		_, err := f.controller.UploadAvatar(context.Background(), strings.NewReader("not an image"))
		require.ErrorIs(t, err, profile.UploadErr)
		require.Empty(t, f.blobs.Uploads())
		require.Zero(t, f.updater.calls)
	})

	t.Run("upload failure leaves the profile untouched", func(t *testing.T) {
		f := setupTestFixture(t, true)
		f.blobs.UploadErr = errors.New("storage down")

		_, err := f.controller.UploadAvatar(context.Background(), bytes.NewReader(testJPEG(t, 100, 100)))
		require.ErrorIs(t, err, profile.UploadErr)
		require.Zero(t, f.updater.calls)
	})

	t.Run("profile update failure surfaced", func(t *testing.T) {
		f := setupTestFixture(t, true)
		f.updater.err = errors.New("backend down")

		_, err := f.controller.UploadAvatar(context.Background(), bytes.NewReader(testJPEG(t, 100, 100)))
		require.Error(t, err)
		require.Len(t, f.blobs.Uploads(), 1)
	})

	t.Run("distinct uploads never share an object path", func(t *testing.T) {
		f := setupTestFixture(t, true)

		_, err := f.controller.UploadAvatar(context.Background(), bytes.NewReader(testJPEG(t, 100, 100)))
		require.NoError(t, err)
		_, err = f.controller.UploadAvatar(context.Background(), bytes.NewReader(testJPEG(t, 100, 100)))
		require.NoError(t, err)

		uploads := f.blobs.Uploads()
		require.Len(t, uploads, 2)
		require.NotEqual(t, uploads[0].ObjectPath, uploads[1].ObjectPath)
	})
}

func TestNewControllerValidation(t *testing.T) {
	sessions, err := session.NewStore(repofakes.NewFakeSessionRepo())
	require.NoError(t, err)

	_, err = profile.New(profile.Deps{Blobs: blobfakes.NewFakeStore(), Sessions: sessions})
	require.Error(t, err)

	_, err = profile.New(profile.Deps{Updater: &fakeUpdater{}, Sessions: sessions})
	require.Error(t, err)

	_, err = profile.New(profile.Deps{Updater: &fakeUpdater{}, Blobs: blobfakes.NewFakeStore()})
	require.Error(t, err)
}
